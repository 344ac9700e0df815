package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_NormSub(t *testing.T) {
	if got := (State{3, 4}).Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", got)
	}
	d := State{4, 5, 6}.Sub(State{1, 2})
	if d[0] != 3 || d[1] != 3 || d[2] != 6 {
		t.Errorf("Sub failed: got %v", d)
	}
}

func TestConfigNumSteps(t *testing.T) {
	tests := []struct {
		cfg  Config
		want int
	}{
		{Config{Dt: 1e-11, Duration: 1e-8}, 1000},
		{Config{Dt: 0.1, Duration: 1}, 10},
		{Config{Dt: 0.1, Duration: 1, Steps: 3}, 3},
	}
	for _, tt := range tests {
		if got := tt.cfg.NumSteps(); got != tt.want {
			t.Errorf("NumSteps(%+v) = %d, want %d", tt.cfg, got, tt.want)
		}
	}
}

func TestResultSeries(t *testing.T) {
	r := &Result{
		States:   []State{{1, 10}, {2, 20}, {3}},
		Controls: []Control{{0.5}, {}},
	}
	got := r.Series(1)
	if got[0] != 10 || got[1] != 20 || got[2] != 0 {
		t.Errorf("Series(1) = %v", got)
	}
	if c := r.ControlSeries(0); c[0] != 0.5 || c[1] != 0 {
		t.Errorf("ControlSeries(0) = %v", c)
	}
}

func TestSimulationErrorWraps(t *testing.T) {
	err := error(&SimulationError{Step: 7, Time: 7e-11, Wrapped: ErrInvalidState})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected wrapped ErrInvalidState")
	}
	if err.Error() != "step 7 (t=7e-11): "+ErrInvalidState.Error() {
		t.Errorf("unexpected message %q", err.Error())
	}
}
