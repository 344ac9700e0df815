package metrics

import (
	"github.com/san-kum/latchsim/internal/dynamo"
)

// ClockActivity counts threshold crossings of control input 0 in either
// direction.
type ClockActivity struct {
	name      string
	threshold float64
	edges     int
	prev      bool
	started   bool
}

func NewClockActivity(threshold float64) *ClockActivity {
	return &ClockActivity{
		name:      "clock_edges",
		threshold: threshold,
	}
}

func (c *ClockActivity) Name() string {
	return c.name
}

func (c *ClockActivity) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) == 0 {
		return
	}
	high := u[0] > c.threshold
	if c.started && high != c.prev {
		c.edges++
	}
	c.prev = high
	c.started = true
}

func (c *ClockActivity) Value() float64 {
	return float64(c.edges)
}

func (c *ClockActivity) Reset() {
	c.edges = 0
	c.prev = false
	c.started = false
}
