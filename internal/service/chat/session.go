package chat

import (
	"sync"
	"time"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
	"github.com/zhouzirui/lumi/backend/internal/model/state"
)

// session is the live state behind one chat.Session view.
type session struct {
	id         string
	createdAt  time.Time
	machine    *state.Machine
	transcript *Transcript

	// turnMu serializes gateway turns so user and model entries alternate.
	// Waiters are not FIFO; callers needing order submit one at a time.
	turnMu sync.Mutex

	mu         sync.Mutex
	pending    int
	surfaces   chat.Surfaces
	lastActive time.Time
	onboarding *time.Timer
}

func newSession(id string, now time.Time) *session {
	return &session{
		id:         id,
		createdAt:  now,
		machine:    state.NewMachine(),
		transcript: NewTranscript(),
		lastActive: now,
	}
}

// view snapshots the session for callers outside the package.
func (s *session) view() chat.Session {
	s.mu.Lock()
	typing := s.pending > 0
	surfaces := s.surfaces
	updated := s.lastActive
	s.mu.Unlock()

	return chat.Session{
		ID:        s.id,
		State:     s.machine.Current(),
		Typing:    typing,
		Surfaces:  surfaces,
		Messages:  s.transcript.List(),
		CreatedAt: s.createdAt,
		UpdatedAt: updated,
	}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// beginTurn registers a pending turn and reports whether the typing
// indicator just turned on.
func (s *session) beginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	return s.pending == 1
}

// endTurn reports whether the typing indicator just turned off.
func (s *session) endTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	return s.pending == 0
}

func (s *session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive), s.pending > 0
}

// setSurface applies fn to the surfaces and reports whether anything changed.
func (s *session) setSurface(fn func(*chat.Surfaces)) (chat.Surfaces, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.surfaces
	fn(&s.surfaces)
	return s.surfaces, before != s.surfaces
}

func (s *session) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onboarding != nil {
		s.onboarding.Stop()
	}
}
