package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Hybrid marks a System whose Derive advances a discrete mode as a side
// effect. Derive must then be called exactly once per step, in time order.
type Hybrid interface {
	System
	Hybrid()
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// SingleEvaluation is implemented by integrators that call Derive exactly
// once per step and may therefore drive a Hybrid system.
type SingleEvaluation interface {
	Integrator
	SingleEvaluation()
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	// Steps overrides Duration/Dt when positive.
	Steps         int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-11,
		Duration:      1e-8,
		ValidateState: true,
	}
}

// NumSteps returns the number of fixed steps the configuration describes.
func (c Config) NumSteps() int {
	if c.Steps > 0 {
		return c.Steps
	}
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
}

// Series returns component i of every recorded state.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// ControlSeries returns component i of every recorded control.
func (r *Result) ControlSeries(i int) []float64 {
	out := make([]float64, len(r.Controls))
	for k, c := range r.Controls {
		if i < len(c) {
			out[k] = c[i]
		}
	}
	return out
}
