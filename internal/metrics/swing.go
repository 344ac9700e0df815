package metrics

import (
	"math"

	"github.com/san-kum/latchsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Swing is max-min of state component 0 over the run.
type Swing struct {
	name     string
	min, max float64
	samples  int
}

func NewSwing() *Swing {
	s := &Swing{name: "swing"}
	s.Reset()
	return s
}

func (s *Swing) Name() string { return s.name }

func (s *Swing) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	s.min = math.Min(s.min, x[0])
	s.max = math.Max(s.max, x[0])
	s.samples++
}

func (s *Swing) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.max - s.min
}

func (s *Swing) Reset() {
	s.min = math.Inf(1)
	s.max = math.Inf(-1)
	s.samples = 0
}

// Crossing records the first time state component 0 drops below a level.
// Value is -1 until the crossing happens.
type Crossing struct {
	name  string
	level float64
	at    float64
	seen  bool
}

func NewCrossing(name string, level float64) *Crossing {
	return &Crossing{name: name, level: level}
}

func (c *Crossing) Name() string { return c.name }

func (c *Crossing) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if c.seen || len(x) == 0 {
		return
	}
	if x[0] < c.level {
		c.at = t
		c.seen = true
	}
}

func (c *Crossing) Value() float64 {
	if !c.seen {
		return -1
	}
	return c.at
}

func (c *Crossing) Reset() {
	c.at = 0
	c.seen = false
}

// Summary describes a finished trace.
type Summary struct {
	Min, Max, Mean, Final float64
}

func Summarize(y []float64) Summary {
	if len(y) == 0 {
		return Summary{}
	}
	return Summary{
		Min:   floats.Min(y),
		Max:   floats.Max(y),
		Mean:  floats.Sum(y) / float64(len(y)),
		Final: y[len(y)-1],
	}
}
