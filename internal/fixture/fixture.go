// Package fixture loads circuit-simulator fixture dumps and scores the
// analytic latch response against them.
//
// A dump is a JSON object keyed by simulation name. Each simulation holds
// three waveforms as [[t...], [v...]] pairs: rp is the latch output, inp
// the VREG input and inn the VREF input. Only the first sample of the two
// inputs is used; they are held constant during a fixture run.
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/latchsim/internal/regress"
)

var (
	ErrMalformed      = errors.New("fixture: malformed dump")
	ErrEmptyTrace     = errors.New("fixture: empty trace")
	ErrLengthMismatch = errors.New("fixture: series length mismatch")
	ErrNoSimulations  = errors.New("fixture: no simulations")
	ErrTimeConstant   = errors.New("fixture: time constant must be finite and positive")
	ErrResponseTime   = errors.New("fixture: response time must be finite")
)

type Trace struct {
	Time  []float64
	Value []float64
}

func (t *Trace) UnmarshalJSON(data []byte) error {
	var pair [][]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected [time, value] pair, got %d series", ErrMalformed, len(pair))
	}
	if len(pair[0]) != len(pair[1]) {
		return fmt.Errorf("%w: %d times vs %d values", ErrLengthMismatch, len(pair[0]), len(pair[1]))
	}
	t.Time, t.Value = pair[0], pair[1]
	return nil
}

func (t Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal([][]float64{t.Time, t.Value})
}

type Simulation struct {
	Name string `json:"-"`
	RP   Trace  `json:"rp"`
	INP  Trace  `json:"inp"`
	INN  Trace  `json:"inn"`
}

// Bias reads the operating point from the first input samples.
func (s Simulation) Bias() (regress.Bias, error) {
	if len(s.INP.Value) == 0 {
		return regress.Bias{}, fmt.Errorf("%w: %s inp", ErrEmptyTrace, s.Name)
	}
	if len(s.INN.Value) == 0 {
		return regress.Bias{}, fmt.Errorf("%w: %s inn", ErrEmptyTrace, s.Name)
	}
	return regress.Bias{VREF: s.INN.Value[0], VREG: s.INP.Value[0]}, nil
}

// Set is a dump ordered by simulation name.
type Set []Simulation

func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func Parse(data []byte) (Set, error) {
	var raw map[string]Simulation
	if err := json.Unmarshal(data, &raw); err != nil {
		if errors.Is(err, ErrMalformed) || errors.Is(err, ErrLengthMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	set := make(Set, 0, len(raw))
	for name, s := range raw {
		s.Name = name
		if len(s.RP.Time) == 0 {
			return nil, fmt.Errorf("%w: %s rp", ErrEmptyTrace, name)
		}
		set = append(set, s)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Name < set[j].Name })
	return set, nil
}
