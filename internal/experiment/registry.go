package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/integrators"
	"github.com/san-kum/latchsim/internal/metrics"
	"github.com/san-kum/latchsim/internal/stimulus"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	clocks      map[string]func(c config.ClockConfig, dt float64) (dynamo.Controller, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		clocks:      make(map[string]func(config.ClockConfig, float64) (dynamo.Controller, error)),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.clocks["pulse"] = func(c config.ClockConfig, dt float64) (dynamo.Controller, error) {
		return stimulus.NewPulse(c.Low, c.High, c.LowAfter, c.Level, dt)
	}
	r.clocks["square"] = func(c config.ClockConfig, dt float64) (dynamo.Controller, error) {
		return stimulus.NewSquare(c.Period, c.Duty, c.Cycles, c.Level, dt)
	}
	r.clocks["hold"] = func(c config.ClockConfig, dt float64) (dynamo.Controller, error) {
		return stimulus.NewHold(c.Level), nil
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetClock(c config.ClockConfig, dt float64) (dynamo.Controller, error) {
	fn, ok := r.clocks[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown clock: %s", c.Kind)
	}
	return fn(c, dt)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListClocks() []string {
	return sortedKeys(r.clocks)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are the trace metrics recorded for every latch run.
func (r *Registry) DefaultMetrics(vdd float64) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewRailStability(0, vdd, 0.01*vdd),
		metrics.NewSwing(),
		metrics.NewClockActivity(vdd / 2),
		metrics.NewCrossing("fall_time", 0.1*vdd),
	}
}
