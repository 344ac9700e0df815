package regress

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const taggedRecord = `
z1:
  kind: zero
  VREF_to_z1: 1.0
  VREG_to_z1: 2.0
  const_z1: 3.0
p1:
  kind: pole
  VREF_to_p1: {const_1: -1.0}
  VREG_to_p1: {const_1: 0.5}
  const_p1: {const_1: -2.0e9}
`

func TestParseRecordTagged(t *testing.T) {
	rec, err := ParseRecord([]byte(taggedRecord), "test.yaml", Options{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rec) != 2 {
		t.Fatalf("expected 2 quantities, got %d", len(rec))
	}
	if rec[0].Name != "z1" || rec[1].Name != "p1" {
		t.Errorf("expected file order [z1 p1], got [%s %s]", rec[0].Name, rec[1].Name)
	}
	if rec[0].Kind != Zero || rec[1].Kind != Pole {
		t.Errorf("unexpected kinds: %v %v", rec[0].Kind, rec[1].Kind)
	}

	b := Bias{VREF: 1.6, VREG: 3.3}
	if got, want := rec[0].Value(b), 1.6+6.6+3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("z1 value: got %g, want %g", got, want)
	}
	if got, want := rec[1].Value(b), -1.6+1.65-2e9; math.Abs(got-want) > 1e-3 {
		t.Errorf("p1 value: got %g, want %g", got, want)
	}
}

func TestParseRecordLegacyNaming(t *testing.T) {
	data := []byte(`
pz:
  VREF_to_pz: 0
  VREG_to_pz: 0
  const_pz: -1
zr:
  VREF_to_zr: 0
  VREG_to_zr: 0
  const_zr: -2
`)
	if _, err := ParseRecord(data, "legacy.yaml", Options{}); !errors.Is(err, ErrMissingKind) {
		t.Fatalf("expected ErrMissingKind without legacy naming, got %v", err)
	}

	rec, err := ParseRecord(data, "legacy.yaml", Options{LegacyNaming: true})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec[0].Kind != Pole {
		t.Errorf("pz should be a pole under legacy naming")
	}
	if rec[1].Kind != Zero {
		t.Errorf("zr should be a zero under legacy naming")
	}
}

func TestParseRecordMissingCoefficient(t *testing.T) {
	data := []byte(`
p1:
  kind: pole
  VREF_to_p1: 1
  const_p1: 2
`)
	_, err := ParseRecord(data, "broken.yaml", Options{})
	if !errors.Is(err, ErrMissingCoefficient) {
		t.Fatalf("expected ErrMissingCoefficient, got %v", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if ce.Source != "broken.yaml" || ce.Quantity != "p1" || ce.Key != "VREG_to_p1" {
		t.Errorf("unexpected error context: %+v", ce)
	}
}

func TestParseRecordInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"bad kind", "p1: {kind: both, VREF_to_p1: 0, VREG_to_p1: 0, const_p1: 1}", ErrInvalidValue},
		{"text coefficient", "p1: {kind: pole, VREF_to_p1: abc, VREG_to_p1: 0, const_p1: 1}", ErrInvalidValue},
		{"nan coefficient", "p1: {kind: pole, VREF_to_p1: .nan, VREG_to_p1: 0, const_p1: 1}", ErrInvalidValue},
		{"wrapper without const_1", "p1: {kind: pole, VREF_to_p1: {x: 1}, VREG_to_p1: 0, const_p1: 1}", ErrMissingCoefficient},
		{"scalar body", "p1: 3", ErrMalformed},
		{"sequence root", "- 1\n- 2", ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tt.data), "x.yaml", Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadTransition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regression_results_one_zero.yaml")
	data := []byte(`
tau:
  VREF_to_tau: {const_1: 1.0e-11}
  VREG_to_tau: {const_1: -2.0e-11}
  const_tau: {const_1: 2.0e-10}
response_time:
  VREF_to_response_time: {const_1: 0}
  VREG_to_response_time: {const_1: 0}
  const_response_time: {const_1: 5.0e-10}
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := LoadTransition(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	b := Bias{VREF: 1.6, VREG: 3.3}
	wantTau := 1.6*1e-11 - 3.3*2e-11 + 2e-10
	if got := tr.Tau.Eval(b); math.Abs(got-wantTau) > 1e-20 {
		t.Errorf("tau: got %g, want %g", got, wantTau)
	}
	if got := tr.ResponseTime.Eval(b); got != 5e-10 {
		t.Errorf("response time: got %g, want 5e-10", got)
	}
}

func TestParseTransitionMissingSection(t *testing.T) {
	data := []byte(`
tau:
  VREF_to_tau: 0
  VREG_to_tau: 0
  const_tau: 1e-10
`)
	_, err := ParseTransition(data, "t.yaml")
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Quantity != "response_time" {
		t.Fatalf("expected missing response_time error, got %v", err)
	}
}

func TestSaveTransitionReloads(t *testing.T) {
	want := Transition{
		Tau:          Fit{VREF: -1.5e-10, VREG: 2e-11, Const: 3e-10},
		ResponseTime: Fit{Const: 1e-10},
	}
	path := filepath.Join(t.TempDir(), "fit.yaml")
	if err := SaveTransition(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTransition(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
