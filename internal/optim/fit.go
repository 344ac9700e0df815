package optim

import (
	"context"

	"github.com/san-kum/latchsim/internal/fixture"
	"github.com/san-kum/latchsim/internal/regress"
)

const (
	ParamTau          = "tau"
	ParamResponseTime = "response_time"
)

// FitConstant finds the bias-independent transition whose analytic
// response best matches the fixtures, scored by the average sum of squared
// residuals over the tau × response-time grid.
func FitConstant(ctx context.Context, set fixture.Set, dir fixture.Direction, vdd float64, taus, responseTimes []float64) (regress.Transition, *Result, error) {
	g, err := NewGridSearch([]string{ParamTau, ParamResponseTime}, [][]float64{taus, responseTimes})
	if err != nil {
		return regress.Transition{}, nil, err
	}

	res, err := g.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		rep, err := fixture.Compare(set, constant(p[ParamTau], p[ParamResponseTime]), dir, vdd)
		if err != nil {
			return 0, err
		}
		return rep.Average, nil
	})
	if err != nil {
		return regress.Transition{}, nil, err
	}

	return constant(res.Params[ParamTau], res.Params[ParamResponseTime]), res, nil
}

func constant(tau, responseTime float64) regress.Transition {
	return regress.Transition{
		Tau:          regress.Fit{Const: tau},
		ResponseTime: regress.Fit{Const: responseTime},
	}
}
