// Package symbolic implements the small amount of computer algebra the
// derivation pipeline needs: time-derivative symbols, linear expressions
// over them with complex coefficients, linear solving, and polynomials in
// the Laplace variable s.
package symbolic

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNoSolution    = errors.New("symbolic: equation has no solution")
	ErrManySolutions = errors.New("symbolic: equation has infinitely many solutions")
)

// Symbol is a time-dependent scalar. Order > 0 denotes the Order-th time
// derivative of the variable Name.
type Symbol struct {
	Name  string
	Order int
}

func Var(name string) Symbol { return Symbol{Name: name} }

func (s Symbol) IsDerivative() bool { return s.Order > 0 }

func (s Symbol) Base() Symbol { return Symbol{Name: s.Name} }

// Next is the time derivative of s.
func (s Symbol) Next() Symbol { return Symbol{Name: s.Name, Order: s.Order + 1} }

func (s Symbol) String() string {
	switch s.Order {
	case 0:
		return s.Name
	case 1:
		return "d" + s.Name + "/dt"
	default:
		return fmt.Sprintf("d^%d %s/dt^%d", s.Order, s.Name, s.Order)
	}
}

func (s Symbol) less(o Symbol) bool {
	if s.Name != o.Name {
		return s.Name < o.Name
	}
	return s.Order < o.Order
}

type Term struct {
	Coeff complex128
	Sym   Symbol
}

// Expr is a linear combination of symbols. The zero value is the
// expression 0. Terms are kept merged, sorted and free of zero
// coefficients.
type Expr struct {
	terms []Term
}

func NewExpr(terms ...Term) Expr {
	merged := make(map[Symbol]complex128, len(terms))
	for _, t := range terms {
		merged[t.Sym] += t.Coeff
	}
	out := make([]Term, 0, len(merged))
	for s, c := range merged {
		if c != 0 {
			out = append(out, Term{Coeff: c, Sym: s})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sym.less(out[j].Sym) })
	return Expr{terms: out}
}

// Scaled returns the single-term expression c·s.
func Scaled(c complex128, s Symbol) Expr { return NewExpr(Term{Coeff: c, Sym: s}) }

func (e Expr) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

func (e Expr) IsZero() bool { return len(e.terms) == 0 }

func (e Expr) Add(o Expr) Expr {
	return NewExpr(append(e.Terms(), o.terms...)...)
}

func (e Expr) Sub(o Expr) Expr { return e.Add(o.Scale(-1)) }

func (e Expr) Scale(c complex128) Expr {
	out := make([]Term, len(e.terms))
	for i, t := range e.terms {
		out[i] = Term{Coeff: t.Coeff * c, Sym: t.Sym}
	}
	return NewExpr(out...)
}

func (e Expr) Coeff(s Symbol) complex128 {
	for _, t := range e.terms {
		if t.Sym == s {
			return t.Coeff
		}
	}
	return 0
}

func (e Expr) Contains(s Symbol) bool { return e.Coeff(s) != 0 }

// Without drops the term in s.
func (e Expr) Without(s Symbol) Expr {
	out := make([]Term, 0, len(e.terms))
	for _, t := range e.terms {
		if t.Sym != s {
			out = append(out, t)
		}
	}
	return Expr{terms: out}
}

func (e Expr) Symbols() []Symbol {
	out := make([]Symbol, len(e.terms))
	for i, t := range e.terms {
		out[i] = t.Sym
	}
	return out
}

// MaxOrder is the highest derivative order present, or -1 for 0.
func (e Expr) MaxOrder() int {
	max := -1
	for _, t := range e.terms {
		if t.Sym.Order > max {
			max = t.Sym.Order
		}
	}
	return max
}

// Subs replaces symbols according to m.
func (e Expr) Subs(m map[Symbol]Symbol) Expr {
	out := make([]Term, len(e.terms))
	for i, t := range e.terms {
		if r, ok := m[t.Sym]; ok {
			t.Sym = r
		}
		out[i] = t
	}
	return NewExpr(out...)
}

// Equal reports whether both expressions have the same symbols with
// coefficients within a relative tolerance tol.
func (e Expr) Equal(o Expr, tol float64) bool {
	d := e.Sub(o)
	for _, t := range d.terms {
		scale := cmplx.Abs(e.Coeff(t.Sym)) + cmplx.Abs(o.Coeff(t.Sym))
		if cmplx.Abs(t.Coeff) > tol*scale {
			return false
		}
	}
	return true
}

func (e Expr) String() string {
	if len(e.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range e.terms {
		c := t.Coeff
		neg := imag(c) == 0 && real(c) < 0
		if neg {
			c = -c
		}
		switch {
		case i == 0 && neg:
			b.WriteString("-")
		case i > 0 && neg:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		if c != 1 {
			b.WriteString(FormatComplex(c))
			b.WriteString("*")
		}
		b.WriteString(t.Sym.String())
	}
	return b.String()
}

// FormatComplex prints real values without an imaginary part.
func FormatComplex(c complex128) string {
	if imag(c) == 0 {
		return strconv.FormatFloat(real(c), 'g', -1, 64)
	}
	return strconv.FormatComplex(c, 'g', -1, 128)
}

// Equation is LHS = RHS.
type Equation struct {
	LHS Expr
	RHS Expr
}

func (eq Equation) String() string { return eq.LHS.String() + " = " + eq.RHS.String() }

// Solve isolates target in eq, treating every other symbol as known.
func Solve(eq Equation, target Symbol) (Expr, error) {
	d := eq.LHS.Sub(eq.RHS)
	c := d.Coeff(target)
	rest := d.Without(target)
	if c == 0 {
		if rest.IsZero() {
			return Expr{}, ErrManySolutions
		}
		return Expr{}, ErrNoSolution
	}
	return rest.Scale(-1 / c), nil
}
