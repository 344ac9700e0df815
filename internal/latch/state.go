package latch

import "fmt"

// State is the discrete mode of the comparator latch.
type State int

const (
	Precharge State = iota
	EvaluateHigh
	EvaluateLowHighLow
	// EvaluateLowStable has no incoming transition; it is kept as a no-op
	// mode until the intended behavior is known.
	EvaluateLowStable
	EvaluateLowLowHigh
	EvaluateWaitLowHigh
	EvaluateWaitHighLow
)

var stateNames = [...]string{
	Precharge:           "precharge",
	EvaluateHigh:        "evaluate_high",
	EvaluateLowHighLow:  "evaluate_low_high_low",
	EvaluateLowStable:   "evaluate_low_stable",
	EvaluateLowLowHigh:  "evaluate_low_low_high",
	EvaluateWaitLowHigh: "evaluate_wait_low_high",
	EvaluateWaitHighLow: "evaluate_wait_high_low",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// States lists every mode in declaration order.
func States() []State {
	out := make([]State, len(stateNames))
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// Event is one recorded mode change.
type Event struct {
	Time float64
	From State
	To   State
}

func (e Event) String() string {
	return fmt.Sprintf("t=%.4g: %s -> %s", e.Time, e.From, e.To)
}
