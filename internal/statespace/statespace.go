// Package statespace compiles a first-order symbolic ODE system into the
// linear form x'(t) = A x(t) so it can be integrated numerically.
package statespace

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/symbolic"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFirstOrder      = errors.New("statespace: system is not first order")
	ErrComplexCoefficient = errors.New("statespace: complex coefficient where real expected")
)

// DefaultTolerance bounds the imaginary part accepted as round-off,
// relative to the real part.
const DefaultTolerance = 1e-9

// Model is x'(t) = A x(t) over the state vector Vars. Symbols that appear
// on a right-hand side without an equation of their own are appended to
// Vars and held constant (their rows of A are zero).
type Model struct {
	Vars      []symbolic.Symbol
	A         *mat.Dense
	numStates int
	index     map[symbolic.Symbol]int
}

func Compile(sys symbolic.System, tol float64) (*Model, error) {
	if !sys.IsFirstOrder() {
		return nil, ErrNotFirstOrder
	}

	vars := append(sys.States(), sys.Inputs()...)
	index := make(map[symbolic.Symbol]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}

	n := len(vars)
	a := mat.NewDense(n, n, nil)
	for row, o := range sys {
		for _, term := range o.Rate.Terms() {
			re, im := real(term.Coeff), imag(term.Coeff)
			if math.Abs(im) > tol*math.Max(1, math.Abs(re)) {
				return nil, fmt.Errorf("%w: %s in d(%s)/dt", ErrComplexCoefficient, symbolic.FormatComplex(term.Coeff), o.State)
			}
			a.Set(row, index[term.Sym], re)
		}
	}

	return &Model{Vars: vars, A: a, numStates: len(sys), index: index}, nil
}

func (m *Model) Index(s symbolic.Symbol) (int, bool) {
	i, ok := m.index[s]
	return i, ok
}

// Inputs returns the held variables.
func (m *Model) Inputs() []symbolic.Symbol {
	return m.Vars[m.numStates:]
}

// Initial builds a state vector, zero except for the given values.
func (m *Model) Initial(values map[symbolic.Symbol]float64) dynamo.State {
	x := make(dynamo.State, len(m.Vars))
	for s, v := range values {
		if i, ok := m.index[s]; ok {
			x[i] = v
		}
	}
	return x
}

func (m *Model) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	var dx mat.VecDense
	dx.MulVec(m.A, mat.NewVecDense(len(x), x))
	return dynamo.State(dx.RawVector().Data)
}

func (m *Model) StateDim() int   { return len(m.Vars) }
func (m *Model) ControlDim() int { return 0 }

// Eigenvalues of A; a positive real part flags an unstable derivation.
func (m *Model) Eigenvalues() ([]complex128, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(m.A, mat.EigenNone); !ok {
		return nil, fmt.Errorf("statespace: eigen decomposition failed")
	}
	return eig.Values(nil), nil
}
