// Package sim runs a dynamo.System forward on a fixed time grid.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/latchsim/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 at t=0 over cfg.NumSteps() steps of cfg.Dt. Step
// i is taken at t = i·dt, so the grid does not drift with accumulated
// rounding. On an invalid state the partial result is returned together
// with a *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.NumSteps()
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	defer func() {
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		newX := s.integrator.Step(s.dyn, x, u, t, dt)
		next := float64(i+1) * dt

		if cfg.ValidateState && !newX.IsValid() {
			return result, &dynamo.SimulationError{Step: i, Time: next, State: newX, Wrapped: dynamo.ErrInvalidState}
		}

		x = newX
		t = next
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	return result, nil
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Steps <= 0 && !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if cfg.NumSteps() <= 0 {
		return fmt.Errorf("%w: duration %g is shorter than one step of %g", dynamo.ErrParameterBounds, cfg.Duration, cfg.Dt)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d entries, system wants %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if _, hybrid := s.dyn.(dynamo.Hybrid); hybrid {
		if _, single := s.integrator.(dynamo.SingleEvaluation); !single {
			return fmt.Errorf("%w: got %T", dynamo.ErrMultiEvaluation, s.integrator)
		}
	}
	return nil
}

// RunWithCallback steps until the callback returns false, the context is
// cancelled, or cfg.NumSteps() steps have been taken.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, dynamo.Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	steps := cfg.NumSteps()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u := s.controller.Compute(x, t)

		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)

		if cfg.ValidateState && !x.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: t + cfg.Dt, State: x, Wrapped: dynamo.ErrInvalidState}
		}
	}

	return nil
}
