// Package experiment assembles runnable pipelines from a run
// configuration: the clocked latch simulation, bias sweeps over it, and
// the transfer-function derivation.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/latch"
	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/sim"
	"github.com/san-kum/latchsim/internal/storage"
)

// Fits are the two transition fits of the latch timing model.
type Fits struct {
	HighLow regress.Transition
	LowHigh regress.Transition
}

func LoadFits(cfg *config.Config) (Fits, error) {
	highLow, err := regress.LoadTransition(cfg.Params.HighLow)
	if err != nil {
		return Fits{}, fmt.Errorf("high->low fit: %w", err)
	}
	lowHigh, err := regress.LoadTransition(cfg.Params.LowHigh)
	if err != nil {
		return Fits{}, fmt.Errorf("low->high fit: %w", err)
	}
	return Fits{HighLow: highLow, LowHigh: lowHigh}, nil
}

type Experiment struct {
	cfg       *config.Config
	model     *latch.Model
	simulator *sim.Simulator
}

// NewLatch wires a latch model, its clock and integrator into a simulator
// with the default metrics attached.
func NewLatch(cfg *config.Config, fits Fits, registry *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := latch.NewParams(cfg.Bias(), fits.HighLow, fits.LowHigh)
	p.VDD = cfg.VDD
	p.SettleTolerance = cfg.SettleTolerance

	model, err := latch.New(p)
	if err != nil {
		return nil, err
	}

	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	clk, err := registry.GetClock(cfg.Clock, cfg.Dt())
	if err != nil {
		return nil, err
	}

	s := sim.New(model, integ, clk)
	for _, m := range registry.DefaultMetrics(cfg.VDD) {
		s.AddMetric(m)
	}

	return &Experiment{cfg: cfg, model: model, simulator: s}, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	e.model.Reset()
	return e.simulator.Run(ctx, e.cfg.GetInitState(), e.cfg.SimConfig())
}

func (e *Experiment) Model() *latch.Model { return e.model }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

// Metadata describes the run for storage, including the mode changes of
// the last Run.
func (e *Experiment) Metadata() storage.RunMetadata {
	meta := storage.RunMetadata{
		Model:      "latch",
		VREF:       e.cfg.VREF,
		VREG:       e.cfg.VREG,
		VDD:        e.cfg.VDD,
		Dt:         e.cfg.Dt(),
		Duration:   e.cfg.TMax,
		Samples:    e.cfg.Samples,
		Integrator: e.cfg.Integrator,
		Clock:      e.cfg.Clock.Kind,
	}
	for _, ev := range e.model.Transitions() {
		meta.Transitions = append(meta.Transitions, storage.Transition{
			Time: ev.Time,
			From: ev.From.String(),
			To:   ev.To.String(),
		})
	}
	return meta
}
