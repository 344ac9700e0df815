// Package transfer builds Laplace-domain transfer functions from fitted
// pole/zero regression records.
package transfer

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/symbolic"
)

var (
	ErrNonFinite     = errors.New("transfer: non-finite pole or zero")
	ErrPolarNaming   = errors.New("transfer: polar quantity must end in _r or _i")
	ErrPolarPartner  = errors.New("transfer: polar quantity has no matching part")
	ErrPolarMismatch = errors.New("transfer: polar parts disagree on kind")
)

// TransferFunction is G(s) = Π(s - zero) / Π(s - pole) after identical
// pole/zero factors have been cancelled.
type TransferFunction struct {
	Zeros       []complex128
	Poles       []complex128
	Numerator   symbolic.Poly
	Denominator symbolic.Poly
}

// Build evaluates every quantity of rec at bias and treats each value as a
// real pole or zero.
func Build(rec regress.Record, bias regress.Bias) (*TransferFunction, error) {
	var zeros, poles []complex128
	for _, q := range rec {
		v := q.Value(bias)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s = %g at VREF=%g VREG=%g", ErrNonFinite, q.Name, v, bias.VREF, bias.VREG)
		}
		if q.Kind == regress.Pole {
			poles = append(poles, complex(v, 0))
		} else {
			zeros = append(zeros, complex(v, 0))
		}
	}
	return assemble(zeros, poles), nil
}

// BuildPolar pairs <name>_r and <name>_i quantities into complex poles and
// zeros. The result always carries an extra integrator pole at s = 0.
func BuildPolar(rec regress.Record, bias regress.Bias) (*TransferFunction, error) {
	type pair struct {
		re, im *regress.Quantity
	}
	pairs := make(map[string]*pair)
	var order []string

	for i := range rec {
		q := &rec[i]
		base, part, ok := splitPolar(q.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPolarNaming, q.Name)
		}
		p, seen := pairs[base]
		if !seen {
			p = &pair{}
			pairs[base] = p
			order = append(order, base)
		}
		if part == 'r' {
			p.re = q
		} else {
			p.im = q
		}
	}

	poles := []complex128{0}
	var zeros []complex128
	for _, base := range order {
		p := pairs[base]
		if p.re == nil || p.im == nil {
			return nil, fmt.Errorf("%w: %s", ErrPolarPartner, base)
		}
		if p.re.Kind != p.im.Kind {
			return nil, fmt.Errorf("%w: %s", ErrPolarMismatch, base)
		}
		v := complex(p.re.Value(bias), p.im.Value(bias))
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, fmt.Errorf("%w: %s = %v at VREF=%g VREG=%g", ErrNonFinite, base, v, bias.VREF, bias.VREG)
		}
		if p.re.Kind == regress.Pole {
			poles = append(poles, v)
		} else {
			zeros = append(zeros, v)
		}
	}
	return assemble(zeros, poles), nil
}

func splitPolar(name string) (string, byte, bool) {
	switch {
	case strings.HasSuffix(name, "_r"):
		return strings.TrimSuffix(name, "_r"), 'r', true
	case strings.HasSuffix(name, "_i"):
		return strings.TrimSuffix(name, "_i"), 'i', true
	}
	return "", 0, false
}

func assemble(zeros, poles []complex128) *TransferFunction {
	zeros, poles = cancel(zeros, poles)
	return &TransferFunction{
		Zeros:       zeros,
		Poles:       poles,
		Numerator:   symbolic.FromRoots(zeros),
		Denominator: symbolic.FromRoots(poles),
	}
}

// cancel removes factors shared between numerator and denominator.
func cancel(zeros, poles []complex128) ([]complex128, []complex128) {
	used := make([]bool, len(poles))
	keptZeros := make([]complex128, 0, len(zeros))
	for _, z := range zeros {
		matched := false
		for j, p := range poles {
			if !used[j] && p == z {
				used[j] = true
				matched = true
				break
			}
		}
		if !matched {
			keptZeros = append(keptZeros, z)
		}
	}
	keptPoles := make([]complex128, 0, len(poles))
	for j, p := range poles {
		if !used[j] {
			keptPoles = append(keptPoles, p)
		}
	}
	return keptZeros, keptPoles
}

// Coefficients returns the numerator and denominator coefficient
// dictionaries of the expanded transfer function.
func (tf *TransferFunction) Coefficients() (num, den symbolic.Coefficients) {
	return tf.Numerator.Coefficients(), tf.Denominator.Coefficients()
}

func (tf *TransferFunction) Eval(s complex128) complex128 {
	return tf.Numerator.Eval(s) / tf.Denominator.Eval(s)
}

// Order is the degree of the denominator.
func (tf *TransferFunction) Order() int {
	return tf.Denominator.Degree()
}

func (tf *TransferFunction) String() string {
	return factored(tf.Zeros) + " / " + factored(tf.Poles)
}

func factored(roots []complex128) string {
	if len(roots) == 0 {
		return "1"
	}
	parts := make([]string, len(roots))
	for i, r := range roots {
		switch {
		case r == 0:
			parts[i] = "s"
		case imag(r) == 0 && real(r) < 0:
			parts[i] = "(s + " + symbolic.FormatComplex(-r) + ")"
		default:
			parts[i] = "(s - " + symbolic.FormatComplex(r) + ")"
		}
	}
	return strings.Join(parts, "*")
}
