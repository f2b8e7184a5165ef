// Package clipboard copies lyrics to a clipboard and drives the copy
// control's temporary "copied" look.
//
// Overlapping copies cancel and restart the revert: the newest copy owns the
// only pending revert, and the look captured before the first copy is the one
// restored.
package clipboard

import "time"

// RevertDelay is how long the copied look stays before reverting.
const RevertDelay = 2000 * time.Millisecond

// FailureNotice is shown to the user when a write is rejected.
const FailureNotice = "Failed to copy lyrics"

// Affordance is the visible state of the copy control.
type Affordance struct {
	Label      string `json:"label"`
	Background string `json:"background"`
}

var (
	DefaultAffordance = Affordance{Label: "Copy Lyrics", Background: "#30363d"}
	CopiedAffordance  = Affordance{Label: "Copied to clipboard", Background: "#238636"}
)

type Status int

const (
	Idle Status = iota
	Copied
)

func (s Status) String() string {
	if s == Copied {
		return "copied"
	}
	return "idle"
}

// State is the copy control's state. Generation identifies the revert that
// belongs to the current Copied state; bumping it cancels older reverts.
// The zero value is an idle control with the default look.
type State struct {
	Status     Status
	Affordance Affordance
	Generation uint64

	restore Affordance
}

// Current returns the look to display.
func (s State) Current() Affordance {
	if s.Affordance == (Affordance{}) {
		return DefaultAffordance
	}
	return s.Affordance
}

// Copied records a successful write. The returned Generation must be passed
// to Revert once the delay elapses.
func (s State) Copied() State {
	restore := s.Current()
	if s.Status == Copied {
		restore = s.restore
	}
	return State{
		Status:     Copied,
		Affordance: CopiedAffordance,
		Generation: s.Generation + 1,
		restore:    restore,
	}
}

// Revert restores the pre-copy look if gen still names the pending revert.
func (s State) Revert(gen uint64) (State, bool) {
	if s.Status != Copied || gen != s.Generation {
		return s, false
	}
	return State{
		Status:     Idle,
		Affordance: s.restore,
		Generation: s.Generation,
	}, true
}

// Reset returns the control to its default look and cancels any pending revert.
func (s State) Reset() State {
	return State{Affordance: DefaultAffordance, Generation: s.Generation + 1}
}
