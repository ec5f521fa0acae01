package runner

import "fmt"

// State is a point in a scenario's lifecycle.
type State int

const (
	StateLaunched State = iota
	StateAuthenticated
	StatePageReady
	StateElementReady
	StateModalOpen
	StateModalClosed
	StateClosed
)

var stateNames = map[State]string{
	StateLaunched:      "launched",
	StateAuthenticated: "authenticated",
	StatePageReady:     "page-ready",
	StateElementReady:  "element-ready",
	StateModalOpen:     "modal-open",
	StateModalClosed:   "modal-closed",
	StateClosed:        "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Closed is reachable from everywhere and is handled by Tracker.Close, so it
// does not appear here.
var transitions = map[State][]State{
	StateLaunched:      {StateAuthenticated, StatePageReady},
	StateAuthenticated: {StatePageReady},
	StatePageReady:     {StatePageReady, StateElementReady},
	StateElementReady:  {StateModalOpen},
	StateModalOpen:     {StateModalClosed},
	StateModalClosed:   {StateElementReady, StatePageReady},
}

// Tracker records the states a scenario passes through and rejects moves the
// lifecycle does not allow.
type Tracker struct {
	current State
	trail   []State
}

// NewTracker returns a tracker in the Launched state.
func NewTracker() *Tracker {
	return &Tracker{
		current: StateLaunched,
		trail:   []State{StateLaunched},
	}
}

// Current returns the state the scenario is in.
func (t *Tracker) Current() State {
	return t.current
}

// Advance moves to next, or returns an error if the move is not allowed.
func (t *Tracker) Advance(next State) error {
	if next == StateClosed {
		t.Close()
		return nil
	}
	for _, allowed := range transitions[t.current] {
		if allowed == next {
			t.current = next
			t.trail = append(t.trail, next)
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", t.current, next)
}

// Close moves to Closed from any state. Repeated calls are no-ops.
func (t *Tracker) Close() {
	if t.current == StateClosed {
		return
	}
	t.current = StateClosed
	t.trail = append(t.trail, StateClosed)
}

// Trail returns a copy of every state visited, in order.
func (t *Tracker) Trail() []State {
	out := make([]State, len(t.trail))
	copy(out, t.trail)
	return out
}
