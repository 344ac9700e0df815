package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/latchsim/internal/dynamo"
)

// rc is a first-order RC low-pass driven by u[0].
type rc struct {
	tau float64
}

func (r *rc) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	return dynamo.State{(in - x[0]) / r.tau}
}

func (r *rc) StateDim() int   { return 1 }
func (r *rc) ControlDim() int { return 1 }

type oscillator struct{}

func (o *oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (o *oscillator) StateDim() int   { return 2 }
func (o *oscillator) ControlDim() int { return 0 }

type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	c.calls++
	return c.System.Derive(x, u, t)
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerRCStep(t *testing.T) {
	dyn := &rc{tau: 1e-9}
	integ := NewEuler()

	x := dynamo.State{0}
	u := dynamo.Control{3.3}
	dt := 1e-11
	for i := 0; i < 500; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	want := 3.3 * (1 - math.Exp(-5))
	if math.Abs(x[0]-want) > 1e-2 {
		t.Errorf("expected ~%.4f after five time constants, got %.4f", want, x[0])
	}
}

func TestEvaluationsPerStep(t *testing.T) {
	tests := []struct {
		name  string
		integ dynamo.Integrator
		calls int
	}{
		{"euler", NewEuler(), 1},
		{"rk4", NewRK4(), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dyn := &countingSystem{System: &rc{tau: 1}}
			tt.integ.Step(dyn, dynamo.State{0}, dynamo.Control{1}, 0, 0.1)
			if dyn.calls != tt.calls {
				t.Errorf("expected %d evaluations, got %d", tt.calls, dyn.calls)
			}
			_, single := tt.integ.(dynamo.SingleEvaluation)
			if single != (tt.calls == 1) {
				t.Errorf("SingleEvaluation marker mismatch for %s", tt.name)
			}
		})
	}
}
