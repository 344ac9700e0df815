// Package dynamo provides the numeric primitives shared by the latch
// simulation and the derived ODE systems.
//
// The package defines the fundamental interfaces and types for fixed-step
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: source of the external input u (e.g. a clock)
//   - [Metric] and [Observer]: per-step hooks used by the simulator
//
// # Example
//
//	model, _ := latch.New(params)
//	s := sim.New(model, integrators.NewEuler(), stimulus.NewPulse(250, 500, 250, 3.3))
//	result, _ := s.Run(ctx, dynamo.State{3.3}, cfg)
//
// # Hybrid systems
//
// A [System] whose Derive mutates internal mode (the comparator latch)
// must be advanced by an integrator that evaluates Derive exactly once per
// step. Such systems implement [Hybrid].
package dynamo
