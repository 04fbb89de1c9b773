// Package breathing describes the paced breathing exercises the widget
// animates.
package breathing

import "time"

// PhaseKind is one step of a breathing cycle.
type PhaseKind string

const (
	Inhale PhaseKind = "inhale"
	Hold   PhaseKind = "hold"
	Exhale PhaseKind = "exhale"
	Rest   PhaseKind = "rest"
)

// Phase is a timed step with the cue shown to the user.
type Phase struct {
	Kind    PhaseKind `json:"kind"`
	Seconds int       `json:"seconds"`
	Cue     string    `json:"cue"`
}

// Pattern is a repeating breathing exercise.
type Pattern struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Phases []Phase `json:"phases"`
	Cycles int     `json:"cycles"`
}

// CycleDuration is the length of one pass through the phases.
func (p Pattern) CycleDuration() time.Duration {
	total := 0
	for _, phase := range p.Phases {
		total += phase.Seconds
	}
	return time.Duration(total) * time.Second
}

// Duration is the length of the whole exercise.
func (p Pattern) Duration() time.Duration {
	return p.CycleDuration() * time.Duration(p.Cycles)
}

// PhaseAt returns the phase active at elapsed time into the exercise and
// whether the exercise is still running.
func (p Pattern) PhaseAt(elapsed time.Duration) (Phase, bool) {
	cycle := p.CycleDuration()
	if cycle <= 0 || elapsed < 0 || elapsed >= p.Duration() {
		return Phase{}, false
	}

	offset := elapsed % cycle
	for _, phase := range p.Phases {
		length := time.Duration(phase.Seconds) * time.Second
		if offset < length {
			return phase, true
		}
		offset -= length
	}
	return Phase{}, false
}

// DefaultPatternID is opened when the client does not pick one.
const DefaultPatternID = "box"

var patterns = []Pattern{
	{
		ID:   "box",
		Name: "Box breathing",
		Phases: []Phase{
			{Kind: Inhale, Seconds: 4, Cue: "Breathe in"},
			{Kind: Hold, Seconds: 4, Cue: "Hold"},
			{Kind: Exhale, Seconds: 4, Cue: "Breathe out"},
			{Kind: Rest, Seconds: 4, Cue: "Rest"},
		},
		Cycles: 4,
	},
	{
		ID:   "4-7-8",
		Name: "4-7-8 relaxing breath",
		Phases: []Phase{
			{Kind: Inhale, Seconds: 4, Cue: "Breathe in through your nose"},
			{Kind: Hold, Seconds: 7, Cue: "Hold"},
			{Kind: Exhale, Seconds: 8, Cue: "Breathe out through your mouth"},
		},
		Cycles: 4,
	},
	{
		ID:   "coherent",
		Name: "Coherent breathing",
		Phases: []Phase{
			{Kind: Inhale, Seconds: 5, Cue: "Breathe in"},
			{Kind: Exhale, Seconds: 5, Cue: "Breathe out"},
		},
		Cycles: 6,
	},
}

// Patterns lists the available exercises.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	for i, p := range patterns {
		p.Phases = append([]Phase(nil), p.Phases...)
		out[i] = p
	}
	return out
}

// Find looks a pattern up by id.
func Find(id string) (Pattern, bool) {
	for _, p := range Patterns() {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}
