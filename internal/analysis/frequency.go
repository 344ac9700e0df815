package analysis

import (
	"math"
	"math/cmplx"
)

// Evaluator is anything with a complex frequency response, such as a
// transfer function.
type Evaluator interface {
	Eval(s complex128) complex128
}

type FrequencyPoint struct {
	Omega       float64
	Magnitude   float64
	MagnitudeDB float64
	// Phase in degrees, wrapped to (-180, 180].
	Phase float64
}

// FrequencyResponse evaluates h at s = jω for each ω in omegas (rad/s).
func FrequencyResponse(h Evaluator, omegas []float64) []FrequencyPoint {
	out := make([]FrequencyPoint, len(omegas))
	for i, w := range omegas {
		v := h.Eval(complex(0, w))
		mag := cmplx.Abs(v)
		out[i] = FrequencyPoint{
			Omega:       w,
			Magnitude:   mag,
			MagnitudeDB: 20 * math.Log10(mag),
			Phase:       cmplx.Phase(v) * 180 / math.Pi,
		}
	}
	return out
}

// Bandwidth is the first frequency at which the gain has dropped 3 dB
// below its value at the first grid point. ok is false when the response
// never drops that far on the grid.
func Bandwidth(points []FrequencyPoint) (omega float64, ok bool) {
	if len(points) == 0 {
		return 0, false
	}
	ref := points[0].MagnitudeDB
	for _, p := range points[1:] {
		if p.MagnitudeDB <= ref-3 {
			return p.Omega, true
		}
	}
	return 0, false
}
