// Package regress reads the regression fits that parametrize the latch
// models. Every fitted quantity is an affine function of the two reference
// voltages: value = a·VREF + b·VREG + c.
package regress

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingCoefficient = errors.New("regress: missing coefficient")
	ErrMissingKind        = errors.New("regress: missing pole/zero kind")
	ErrInvalidValue       = errors.New("regress: invalid value")
	ErrMalformed          = errors.New("regress: malformed parameter file")
)

// ConfigError reports which file, quantity and key a configuration problem
// was found in.
type ConfigError struct {
	Source   string
	Quantity string
	Key      string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Quantity != "" {
		fmt.Fprintf(&b, ": quantity %q", e.Quantity)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key %q", e.Key)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Bias holds the two reference voltages a fit is evaluated at.
type Bias struct {
	VREF float64
	VREG float64
}

// Fit is one affine regression result.
type Fit struct {
	VREF  float64
	VREG  float64
	Const float64
}

func (f Fit) Eval(b Bias) float64 {
	return b.VREF*f.VREF + b.VREG*f.VREG + f.Const
}

type Kind int

const (
	Zero Kind = iota
	Pole
)

func (k Kind) String() string {
	if k == Pole {
		return "pole"
	}
	return "zero"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pole":
		return Pole, nil
	case "zero":
		return Zero, nil
	}
	return Zero, fmt.Errorf("%w: kind %q (want pole or zero)", ErrInvalidValue, s)
}

// legacyKind reproduces the historic naming rule: any name containing a
// "p" is a pole.
func legacyKind(name string) Kind {
	if strings.Contains(name, "p") {
		return Pole
	}
	return Zero
}

// Quantity is one named entry of a parameter record.
type Quantity struct {
	Name string
	Kind Kind
	Fit  Fit
}

func (q Quantity) Value(b Bias) float64 { return q.Fit.Eval(b) }

// Record is an ordered parameter record; order follows the source file.
type Record []Quantity

func (r Record) Lookup(name string) (Quantity, bool) {
	for _, q := range r {
		if q.Name == name {
			return q, true
		}
	}
	return Quantity{}, false
}

type Options struct {
	// LegacyNaming infers the kind of entries without an explicit kind
	// from their name.
	LegacyNaming bool
}

func LoadRecord(path string, opts Options) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRecord(data, path, opts)
}

// ParseRecord decodes a record of the form
//
//	p1:
//	  kind: pole
//	  VREF_to_p1: {const_1: 0.5}
//	  VREG_to_p1: -0.25
//	  const_p1: -1.0e9
func ParseRecord(data []byte, source string, opts Options) (Record, error) {
	root, err := mappingRoot(data, source)
	if err != nil {
		return nil, err
	}

	rec := make(Record, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		body := root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, &ConfigError{Source: source, Quantity: name, Err: ErrMalformed}
		}

		fit, err := decodeFit(body, name)
		if err != nil {
			return nil, withSource(err, source)
		}

		var kind Kind
		if kn := lookup(body, "kind"); kn != nil {
			kind, err = ParseKind(kn.Value)
			if err != nil {
				return nil, &ConfigError{Source: source, Quantity: name, Key: "kind", Err: err}
			}
		} else if opts.LegacyNaming {
			kind = legacyKind(name)
		} else {
			return nil, &ConfigError{Source: source, Quantity: name, Key: "kind", Err: ErrMissingKind}
		}

		rec = append(rec, Quantity{Name: name, Kind: kind, Fit: fit})
	}
	return rec, nil
}

// Transition holds the fits of one output transition direction.
type Transition struct {
	Tau          Fit
	ResponseTime Fit
}

func LoadTransition(path string) (Transition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transition{}, err
	}
	return ParseTransition(data, path)
}

// ParseTransition decodes a file with "tau" and "response_time" sections.
func ParseTransition(data []byte, source string) (Transition, error) {
	root, err := mappingRoot(data, source)
	if err != nil {
		return Transition{}, err
	}

	var tr Transition
	for _, sec := range []struct {
		name string
		dst  *Fit
	}{
		{"tau", &tr.Tau},
		{"response_time", &tr.ResponseTime},
	} {
		node := lookup(root, sec.name)
		if node == nil {
			return Transition{}, &ConfigError{Source: source, Quantity: sec.name, Err: ErrMissingCoefficient}
		}
		if node.Kind != yaml.MappingNode {
			return Transition{}, &ConfigError{Source: source, Quantity: sec.name, Err: ErrMalformed}
		}
		fit, err := decodeFit(node, sec.name)
		if err != nil {
			return Transition{}, withSource(err, source)
		}
		*sec.dst = fit
	}
	return tr, nil
}

func mappingRoot(data []byte, source string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &ConfigError{Source: source, Err: ErrMalformed}
	}
	return doc.Content[0], nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func decodeFit(body *yaml.Node, name string) (Fit, error) {
	var fit Fit
	for _, c := range []struct {
		key string
		dst *float64
	}{
		{"VREF_to_" + name, &fit.VREF},
		{"VREG_to_" + name, &fit.VREG},
		{"const_" + name, &fit.Const},
	} {
		node := lookup(body, c.key)
		if node == nil {
			return Fit{}, &ConfigError{Quantity: name, Key: c.key, Err: ErrMissingCoefficient}
		}
		v, err := decodeCoefficient(node)
		if err != nil {
			return Fit{}, &ConfigError{Quantity: name, Key: c.key, Err: err}
		}
		*c.dst = v
	}
	return fit, nil
}

// decodeCoefficient accepts a bare number or the regression tool's
// {const_1: number} wrapper.
func decodeCoefficient(n *yaml.Node) (float64, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	var v float64
	switch n.Kind {
	case yaml.ScalarNode:
		if err := n.Decode(&v); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, n.Value)
		}
	case yaml.MappingNode:
		inner := lookup(n, "const_1")
		if inner == nil {
			return 0, fmt.Errorf("%w: const_1", ErrMissingCoefficient)
		}
		return decodeCoefficient(inner)
	default:
		return 0, ErrMalformed
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite coefficient", ErrInvalidValue)
	}
	return v, nil
}

func withSource(err error, source string) error {
	var ce *ConfigError
	if errors.As(err, &ce) && ce.Source == "" {
		ce.Source = source
	}
	return err
}
