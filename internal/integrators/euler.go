package integrators

import "github.com/san-kum/latchsim/internal/dynamo"

// Euler is the forward Euler method. It evaluates the derivative once per
// step, so it is the only method here that may drive a hybrid system.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func (e *Euler) SingleEvaluation() {}
