package stimulus

import (
	"errors"
	"testing"
)

func TestPulse(t *testing.T) {
	dt := 1e-11
	p, err := NewPulse(250, 500, 250, 3.3, dt)
	if err != nil {
		t.Fatal(err)
	}
	if p.Samples() != 1000 {
		t.Errorf("expected 1000 samples, got %d", p.Samples())
	}

	tests := []struct {
		i    int
		want float64
	}{
		{0, 0},
		{249, 0},
		{250, 3.3},
		{749, 3.3},
		{750, 0},
		{999, 0},
		{5000, 0},
	}
	for _, tt := range tests {
		u := p.Compute(nil, float64(tt.i)*dt)
		if len(u) != 1 || u[0] != tt.want {
			t.Errorf("sample %d: got %v, want %g", tt.i, u, tt.want)
		}
	}
}

func TestSquare(t *testing.T) {
	s, err := NewSquare(10, 0.5, 2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
	for i, w := range want {
		if got := s.Compute(nil, float64(i))[0]; got != w {
			t.Errorf("sample %d: got %g, want %g", i, got, w)
		}
	}
}

func TestSampledHoldsLastValue(t *testing.T) {
	s, err := NewSampled([]float64{0, 1, 2}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Compute(nil, 0.5)[0]; got != 1 {
		t.Errorf("expected 1, got %g", got)
	}
	if got := s.Compute(nil, 10)[0]; got != 2 {
		t.Errorf("expected last value 2, got %g", got)
	}
}

func TestHold(t *testing.T) {
	if got := NewHold(3.3).Compute(nil, 42)[0]; got != 3.3 {
		t.Errorf("expected 3.3, got %g", got)
	}
}

func TestInvalidWaveforms(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"negative pulse", func() error { _, err := NewPulse(-1, 1, 1, 1, 1); return err }},
		{"pulse zero dt", func() error { _, err := NewPulse(1, 1, 1, 1, 0); return err }},
		{"square zero period", func() error { _, err := NewSquare(0, 0.5, 0, 1, 1); return err }},
		{"square bad duty", func() error { _, err := NewSquare(10, 1.5, 0, 1, 1); return err }},
		{"empty sampled", func() error { _, err := NewSampled(nil, 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidWaveform) {
				t.Errorf("expected ErrInvalidWaveform, got %v", err)
			}
		})
	}
}
