// Package state holds the application state machine that decides which
// surface a session shows.
package state

import "sync"

// AppState is the surface currently presented to the user.
type AppState string

const (
	Onboarding     AppState = "ONBOARDING"
	Chat           AppState = "CHAT"
	Crisis         AppState = "CRISIS"
	TherapistMatch AppState = "THERAPIST_MATCH"
)

// Valid reports whether s is one of the four known states.
func (s AppState) Valid() bool {
	switch s {
	case Onboarding, Chat, Crisis, TherapistMatch:
		return true
	default:
		return false
	}
}

// Event is an input that may move the machine.
type Event string

const (
	// OnboardingElapsed fires once the onboarding display delay has passed.
	OnboardingElapsed Event = "onboarding.elapsed"
	// CrisisFlagged fires when a gateway response carries the crisis flag.
	CrisisFlagged Event = "crisis.flagged"
	// CrisisDismissed fires when the user closes the referral surface.
	CrisisDismissed Event = "crisis.dismissed"
)

// Transition returns the state that follows current on event. Unknown events
// and events that do not apply leave the state unchanged.
func Transition(current AppState, event Event) AppState {
	switch event {
	case OnboardingElapsed:
		if current == Onboarding {
			return Chat
		}
	case CrisisFlagged:
		return Crisis
	case CrisisDismissed:
		// Only the onboarding delay ends Onboarding.
		if current != Onboarding {
			return Chat
		}
	}
	return current
}

// Machine holds the current state of one session.
type Machine struct {
	mu      sync.RWMutex
	current AppState
}

// NewMachine starts a machine in Onboarding.
func NewMachine() *Machine {
	return &Machine{current: Onboarding}
}

// Current returns the present state.
func (m *Machine) Current() AppState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies event and reports the previous state and whether it changed.
func (m *Machine) Fire(event Event) (from, to AppState, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from = m.current
	to = Transition(from, event)
	m.current = to
	return from, to, from != to
}
