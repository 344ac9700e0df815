// Package stimulus provides clock waveforms that drive a model's inputs.
// Every waveform is a dynamo.Controller: it ignores the state and maps the
// simulation time onto a sample index with the step size it was built for.
package stimulus

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/latchsim/internal/dynamo"
)

var ErrInvalidWaveform = errors.New("stimulus: invalid waveform")

// Hold drives a constant level.
type Hold struct {
	Level float64
}

func NewHold(level float64) *Hold {
	return &Hold{Level: level}
}

func (h *Hold) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{h.Level}
}

// Pulse is low for Low samples, at Level for High samples, then low again
// for LowAfter samples and beyond.
type Pulse struct {
	Low, High, LowAfter int
	Level               float64
	dt                  float64
}

func NewPulse(low, high, lowAfter int, level, dt float64) (*Pulse, error) {
	if low < 0 || high < 0 || lowAfter < 0 {
		return nil, fmt.Errorf("%w: negative sample count (%d/%d/%d)", ErrInvalidWaveform, low, high, lowAfter)
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidWaveform, dt)
	}
	return &Pulse{Low: low, High: high, LowAfter: lowAfter, Level: level, dt: dt}, nil
}

// Samples is the total pattern length.
func (p *Pulse) Samples() int {
	return p.Low + p.High + p.LowAfter
}

func (p *Pulse) At(i int) float64 {
	if i >= p.Low && i < p.Low+p.High {
		return p.Level
	}
	return 0
}

func (p *Pulse) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{p.At(index(t, p.dt))}
}

// Square is a periodic clock: each period starts high for Duty·Period
// samples. Cycles limits the number of periods; zero means unbounded.
type Square struct {
	Period int
	Duty   float64
	Cycles int
	Level  float64
	dt     float64
}

func NewSquare(period int, duty float64, cycles int, level, dt float64) (*Square, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period must be positive, got %d", ErrInvalidWaveform, period)
	}
	if duty < 0 || duty > 1 {
		return nil, fmt.Errorf("%w: duty must be in [0, 1], got %g", ErrInvalidWaveform, duty)
	}
	if cycles < 0 {
		return nil, fmt.Errorf("%w: negative cycle count %d", ErrInvalidWaveform, cycles)
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidWaveform, dt)
	}
	return &Square{Period: period, Duty: duty, Cycles: cycles, Level: level, dt: dt}, nil
}

func (s *Square) At(i int) float64 {
	if i < 0 || (s.Cycles > 0 && i >= s.Cycles*s.Period) {
		return 0
	}
	if float64(i%s.Period) < s.Duty*float64(s.Period) {
		return s.Level
	}
	return 0
}

func (s *Square) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{s.At(index(t, s.dt))}
}

// Sampled replays a recorded waveform; past the end it holds the last value.
type Sampled struct {
	Values []float64
	dt     float64
}

func NewSampled(values []float64, dt float64) (*Sampled, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty waveform", ErrInvalidWaveform)
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidWaveform, dt)
	}
	return &Sampled{Values: values, dt: dt}, nil
}

func (s *Sampled) Compute(x dynamo.State, t float64) dynamo.Control {
	i := index(t, s.dt)
	if i < 0 {
		i = 0
	}
	if i >= len(s.Values) {
		i = len(s.Values) - 1
	}
	return dynamo.Control{s.Values[i]}
}

func index(t, dt float64) int {
	return int(math.Round(t / dt))
}
