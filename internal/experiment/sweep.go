package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/metrics"
	"github.com/san-kum/latchsim/internal/sim"
)

type SweepPoint struct {
	VREG     float64
	FallTime float64
	Swing    float64
	Final    float64
}

// SweepVREG runs the latch once per VREG value, in parallel, with every
// other setting taken from cfg.
func SweepVREG(ctx context.Context, cfg *config.Config, fits Fits, values []float64, workers int) ([]SweepPoint, error) {
	registry := NewRegistry()

	jobs := make([]sim.Job, len(values))
	for i, v := range values {
		c := *cfg
		c.VREG = v
		jobs[i] = sim.Job{
			Name: fmt.Sprintf("vreg=%g", v),
			Build: func() (*sim.Simulator, dynamo.State, error) {
				e, err := NewLatch(&c, fits, registry)
				if err != nil {
					return nil, nil, err
				}
				return e.GetSimulator(), c.GetInitState(), nil
			},
		}
	}

	results, err := sim.NewSweep(jobs, workers).Run(ctx, cfg.SimConfig())
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(values))
	for i, r := range results {
		s := metrics.Summarize(r.Series(0))
		points[i] = SweepPoint{
			VREG:     values[i],
			FallTime: r.Metrics["fall_time"],
			Swing:    r.Metrics["swing"],
			Final:    s.Final,
		}
	}
	return points, nil
}
