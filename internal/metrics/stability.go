package metrics

import (
	"github.com/san-kum/latchsim/internal/dynamo"
)

// RailStability is the fraction of observed samples whose state lies
// within [low-margin, high+margin]. A latch output that leaves its supply
// rails points to an integration step that is too large for the fitted τ.
type RailStability struct {
	name       string
	low, high  float64
	margin     float64
	violations int
	samples    int
}

func NewRailStability(low, high, margin float64) *RailStability {
	return &RailStability{
		name:   "rail_stability",
		low:    low,
		high:   high,
		margin: margin,
	}
}

func (s *RailStability) Name() string {
	return s.name
}

func (s *RailStability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	for _, val := range x {
		if val < s.low-s.margin || val > s.high+s.margin {
			s.violations++
			break
		}
	}
}

func (s *RailStability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *RailStability) Reset() {
	s.violations = 0
	s.samples = 0
}
