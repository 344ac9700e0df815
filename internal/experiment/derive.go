package experiment

import (
	"context"
	"fmt"
	"io"

	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/integrators"
	"github.com/san-kum/latchsim/internal/odegen"
	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/sim"
	"github.com/san-kum/latchsim/internal/statespace"
	"github.com/san-kum/latchsim/internal/stimulus"
	"github.com/san-kum/latchsim/internal/symbolic"
	"github.com/san-kum/latchsim/internal/transfer"
)

// Derivation is every stage from a parameter record to a numerically
// integrable state-space model.
type Derivation struct {
	Record      regress.Record
	Bias        regress.Bias
	Transfer    *transfer.TransferFunction
	Numerator   symbolic.Coefficients
	Denominator symbolic.Coefficients
	ODE         *odegen.Result
	StateSpace  *statespace.Model
}

// Derive loads the record named in cfg and runs it through the builder,
// the ODE transformer and the state-space compiler. Transformer stages are
// written to trace when it is non-nil.
func Derive(cfg *config.Config, trace io.Writer) (*Derivation, error) {
	rec, err := regress.LoadRecord(cfg.Transfer.Params, regress.Options{LegacyNaming: cfg.Transfer.LegacyNames})
	if err != nil {
		return nil, err
	}
	return DeriveRecord(rec, cfg.Bias(), cfg.Transfer.Polar, trace)
}

func DeriveRecord(rec regress.Record, bias regress.Bias, polar bool, trace io.Writer) (*Derivation, error) {
	build := transfer.Build
	if polar {
		build = transfer.BuildPolar
	}
	tf, err := build(rec, bias)
	if err != nil {
		return nil, err
	}

	d := &Derivation{Record: rec, Bias: bias, Transfer: tf}
	d.Numerator, d.Denominator = tf.Coefficients()

	tr := &odegen.Transformer{Trace: trace}
	d.ODE, err = tr.Transform(d.Numerator, d.Denominator, symbolic.NewVarGen())
	if err != nil {
		return nil, err
	}

	d.StateSpace, err = statespace.Compile(d.ODE.System, statespace.DefaultTolerance)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", tf, err)
	}
	return d, nil
}

// StepResponse integrates the derived system with RK4 from rest, holding
// the input u at level.
func (d *Derivation) StepResponse(ctx context.Context, level float64, simCfg dynamo.Config) (*dynamo.Result, error) {
	x0 := d.StateSpace.Initial(map[symbolic.Symbol]float64{d.ODE.Input: level})
	s := sim.New(d.StateSpace, integrators.NewRK4(), stimulus.NewHold(level))
	return s.Run(ctx, x0, simCfg)
}

// Output is the y component of a step-response trace.
func (d *Derivation) Output(r *dynamo.Result) []float64 {
	i, _ := d.StateSpace.Index(d.ODE.Output)
	return r.Series(i)
}
