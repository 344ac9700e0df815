package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrNoSwing = errors.New("analysis: step response has no swing from its initial value")

type StepInfo struct {
	Initial float64
	Final   float64
	// RiseTime is the 10% to 90% time of the swing.
	RiseTime float64
	// SettlingTime is the first time after which the trace stays within
	// the band around Final; it is only meaningful when Settled.
	SettlingTime float64
	Settled      bool
	// Overshoot is the peak excursion past Final as a fraction of the
	// swing, zero when the trace never passes Final.
	Overshoot float64
}

// Step measures a sampled step response. band is the settling band as a
// fraction of the swing (0.02 for the usual 2% criterion). Final is the
// mean of the last 5% of the samples.
func Step(times, y []float64, band float64) (StepInfo, error) {
	if len(times) != len(y) {
		return StepInfo{}, fmt.Errorf("analysis: %d times and %d values", len(times), len(y))
	}
	if len(y) < 2 {
		return StepInfo{}, fmt.Errorf("analysis: need at least 2 samples, got %d", len(y))
	}
	if floats.HasNaN(y) {
		return StepInfo{}, fmt.Errorf("analysis: step response contains NaN")
	}

	tail := max(1, len(y)/20)
	info := StepInfo{Initial: y[0], Final: floats.Sum(y[len(y)-tail:]) / float64(tail)}
	swing := info.Final - info.Initial
	if swing == 0 {
		return info, ErrNoSwing
	}

	// Normalize so the response always rises from 0 to 1.
	norm := make([]float64, len(y))
	floats.AddConst(-info.Initial, floats.ScaleTo(norm, 1, y))
	floats.Scale(1/swing, norm)

	t10, t90 := math.NaN(), math.NaN()
	for i, v := range norm {
		if math.IsNaN(t10) && v >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && v >= 0.9 {
			t90 = times[i]
			break
		}
	}
	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		info.RiseTime = t90 - t10
	}

	if peak := floats.Max(norm); peak > 1 {
		info.Overshoot = peak - 1
	}

	info.Settled = true
	info.SettlingTime = times[0]
	for i := len(norm) - 1; i >= 0; i-- {
		if math.Abs(norm[i]-1) > band {
			if i == len(norm)-1 {
				info.Settled = false
			}
			info.SettlingTime = times[min(i+1, len(times)-1)]
			break
		}
	}

	return info, nil
}
