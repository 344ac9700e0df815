package fixture

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/latchsim/internal/regress"
	"gonum.org/v1/gonum/floats"
)

// Direction selects the analytic response a fixture is scored against.
type Direction int

const (
	// Falling is the high→low output transition.
	Falling Direction = iota
	// Rising is the low→high output transition.
	Rising
)

func (d Direction) String() string {
	if d == Rising {
		return "rise"
	}
	return "fall"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "fall", "falling", "high_low", "one_zero":
		return Falling, nil
	case "rise", "rising", "low_high", "zero_one":
		return Rising, nil
	}
	return 0, fmt.Errorf("fixture: unknown direction %q", s)
}

// Response is the analytic output at time t: held at its starting rail
// until the response time, then exponential with time constant tau.
func Response(dir Direction, vdd, tau, responseTime, t float64) float64 {
	if t < responseTime {
		if dir == Rising {
			return 0
		}
		return vdd
	}
	decay := math.Exp(-(t - responseTime) / tau)
	if dir == Rising {
		return vdd * (1 - decay)
	}
	return vdd * decay
}

func Responses(dir Direction, vdd, tau, responseTime float64, times []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = Response(dir, vdd, tau, responseTime, t)
	}
	return out
}

// SumSquaredResiduals is Σ(a−b)².
func SumSquaredResiduals(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Dot(diff, diff), nil
}

type Comparison struct {
	Name         string
	Bias         regress.Bias
	Tau          float64
	ResponseTime float64
	Time         []float64
	Measured     []float64
	Model        []float64
	SSR          float64
}

type Report struct {
	Direction   Direction
	Comparisons []Comparison
	Total       float64
	// Average is Total divided by the number of simulations.
	Average float64
}

// Compare evaluates the transition fits at each simulation's bias and
// scores the analytic response against the measured output.
func Compare(set Set, tr regress.Transition, dir Direction, vdd float64) (*Report, error) {
	if len(set) == 0 {
		return nil, ErrNoSimulations
	}

	rep := &Report{Direction: dir, Comparisons: make([]Comparison, 0, len(set))}
	for _, s := range set {
		bias, err := s.Bias()
		if err != nil {
			return nil, err
		}

		tau := tr.Tau.Eval(bias)
		rt := tr.ResponseTime.Eval(bias)
		if math.IsNaN(tau) || math.IsInf(tau, 0) || tau <= 0 {
			return nil, fmt.Errorf("%w: %s: tau = %g at VREF=%g VREG=%g", ErrTimeConstant, s.Name, tau, bias.VREF, bias.VREG)
		}
		if math.IsNaN(rt) || math.IsInf(rt, 0) {
			return nil, fmt.Errorf("%w: %s: response time = %g at VREF=%g VREG=%g", ErrResponseTime, s.Name, rt, bias.VREF, bias.VREG)
		}
		model := Responses(dir, vdd, tau, rt, s.RP.Time)

		ssr, err := SumSquaredResiduals(s.RP.Value, model)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}

		rep.Comparisons = append(rep.Comparisons, Comparison{
			Name:         s.Name,
			Bias:         bias,
			Tau:          tau,
			ResponseTime: rt,
			Time:         s.RP.Time,
			Measured:     s.RP.Value,
			Model:        model,
			SSR:          ssr,
		})
		rep.Total += ssr
	}
	rep.Average = rep.Total / float64(len(rep.Comparisons))

	return rep, nil
}
