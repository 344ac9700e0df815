package integrators

import (
	"github.com/san-kum/latchsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Classical Butcher tableau: stage s is evaluated at t + nodes[s]·dt from
// x + nodes[s]·dt·k_{s-1}, and contributes weights[s]/6 of its slope.
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1, 2, 2, 1}
)

// RK4 is the classical fourth-order Runge-Kutta method. It evaluates the
// derivative four times per step and keeps stage buffers between steps,
// so an RK4 value must not be shared between goroutines.
type RK4 struct {
	k     dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.k) != n {
		r.k = make(dynamo.State, n)
		r.stage = make(dynamo.State, n)
	}

	next := x.Clone()
	for s := range rk4Nodes {
		at := x
		if s > 0 {
			floats.AddScaledTo(r.stage, x, rk4Nodes[s]*dt, r.k)
			at = r.stage
		}
		copy(r.k, dyn.Derive(at, u, t+rk4Nodes[s]*dt))
		floats.AddScaled(next, dt*rk4Weights[s]/6, r.k)
	}
	return next
}
