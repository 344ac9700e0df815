// Package odegen turns a transfer function Y(s)/U(s) = N(s)/D(s) into an
// explicit system of first-order ordinary differential equations.
//
// The implicit equation N(d/dt)·u = D(d/dt)·y is solved for the highest
// derivative of y, and every derivative is then replaced by a fresh state
// variable so the result can be integrated directly.
package odegen

import (
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/latchsim/internal/symbolic"
)

// MaxOrder is the highest power of s the derivative table covers.
const MaxOrder = 6

var (
	ErrOrderUnsupported = errors.New("odegen: power of s outside derivative table")
	ErrUnsolvable       = errors.New("odegen: implicit equation has no unique solution")
	ErrStaticSystem     = errors.New("odegen: output has no derivative (transfer function has no poles)")
)

// derivativeOrder maps a power of s to the order of the time derivative it
// stands for.
var derivativeOrder = map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6}

// SolveError carries the implicit equation that could not be made explicit.
type SolveError struct {
	Equation symbolic.Equation
	Target   symbolic.Symbol
	Err      error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v: solving %s for %s: %v", ErrUnsolvable, e.Equation, e.Target, e.Err)
}

func (e *SolveError) Unwrap() []error { return []error{ErrUnsolvable, e.Err} }

// Substitution records which fresh variable replaced a derivative.
type Substitution struct {
	Derivative symbolic.Symbol
	Var        symbolic.Symbol
}

type Result struct {
	Numerator     symbolic.Coefficients
	Denominator   symbolic.Coefficients
	Input         symbolic.Symbol
	Output        symbolic.Symbol
	Implicit      symbolic.Equation
	Explicit      symbolic.Equation
	Substitutions []Substitution
	System        symbolic.System
}

// SubstitutionMap returns the derivative → variable replacements.
func (r *Result) SubstitutionMap() map[symbolic.Symbol]symbolic.Symbol {
	m := make(map[symbolic.Symbol]symbolic.Symbol, len(r.Substitutions))
	for _, s := range r.Substitutions {
		m[s.Derivative] = s.Var
	}
	return m
}

// Transformer runs the derivation. Trace, when set, receives a report of
// every stage.
type Transformer struct {
	Trace io.Writer
}

func (tr *Transformer) logf(format string, args ...any) {
	if tr.Trace != nil {
		fmt.Fprintf(tr.Trace, format+"\n", args...)
	}
}

// Transform declares u and y on g, builds and solves the implicit equation
// and leaves the first-order equations on g.
func (tr *Transformer) Transform(num, den symbolic.Coefficients, g *symbolic.VarGen) (*Result, error) {
	u, err := g.Define("u")
	if err != nil {
		return nil, err
	}
	y, err := g.Define("y")
	if err != nil {
		return nil, err
	}

	tr.logf("--- transfer function coefficients ---")
	tr.logf(" numerator: %s", num)
	tr.logf(" denominator: %s", den)

	yExpr, err := weighted(g, y, den)
	if err != nil {
		return nil, err
	}
	uExpr, err := weighted(g, u, num)
	if err != nil {
		return nil, err
	}

	implicit := symbolic.Equation{LHS: uExpr, RHS: yExpr}
	tr.logf("--- transfer function expressions (U = Y) ---")
	tr.logf(" U expr: %s", uExpr)
	tr.logf(" Y expr: %s", yExpr)
	tr.logf("Implicit differential equation: %s", implicit)

	tr.logf("--- transform to explicit n-th order ODE ---")
	lhs := g.HighestOrder(y.Name)
	if !lhs.IsDerivative() {
		return nil, fmt.Errorf("%w: %s", ErrStaticSystem, implicit)
	}
	tr.logf(" [separating out variable %s from %s]", lhs, implicit)
	rhs, err := symbolic.Solve(implicit, lhs)
	if err != nil {
		return nil, &SolveError{Equation: implicit, Target: lhs, Err: err}
	}
	explicit := symbolic.Equation{LHS: symbolic.Scaled(1, lhs), RHS: rhs}
	tr.logf(" Explicit differential equation: %s", explicit)

	tr.logf("--- transform into first-order ordinary differential equations ---")
	tr.logf("-> replace higher order derivatives with variables")
	derivs := g.Derivatives()
	subs := make([]Substitution, 0, len(derivs))
	repl := make(map[symbolic.Symbol]symbolic.Symbol, len(derivs))
	for _, d := range derivs {
		v, err := g.Define(fmt.Sprintf("d%s_d%d", d.Name, d.Order))
		if err != nil {
			return nil, err
		}
		subs = append(subs, Substitution{Derivative: d, Var: v})
		repl[d] = v
	}

	tr.logf("-> create first-order explicit ODEs")
	topY := g.HighestOrder(y.Name)
	topU := g.HighestOrder(u.Name)
	g.AddODE(y, symbolic.Scaled(1, repl[y.Next()]))
	if topU.IsDerivative() {
		g.AddODE(u, symbolic.Scaled(1, repl[u.Next()]))
	}
	for _, s := range subs {
		switch s.Derivative {
		case topY:
			g.AddODE(s.Var, rhs.Subs(repl))
		case topU:
		default:
			g.AddODE(s.Var, symbolic.Scaled(1, repl[s.Derivative.Next()]))
		}
	}

	sys := g.System()
	for _, o := range sys {
		tr.logf(" %s", o)
	}

	return &Result{
		Numerator:     num,
		Denominator:   den,
		Input:         u,
		Output:        y,
		Implicit:      implicit,
		Explicit:      explicit,
		Substitutions: subs,
		System:        sys,
	}, nil
}

// Transform runs a Transformer without tracing on a fresh VarGen.
func Transform(num, den symbolic.Coefficients) (*Result, error) {
	tr := &Transformer{}
	return tr.Transform(num, den, symbolic.NewVarGen())
}

// weighted builds Σ coeffs[k]·d^k v/dt^k.
func weighted(g *symbolic.VarGen, v symbolic.Symbol, coeffs symbolic.Coefficients) (symbolic.Expr, error) {
	var terms []symbolic.Term
	for _, k := range coeffs.Orders() {
		order, ok := derivativeOrder[k]
		if !ok {
			return symbolic.Expr{}, fmt.Errorf("%w: s^%d (max s^%d)", ErrOrderUnsupported, k, MaxOrder)
		}
		terms = append(terms, symbolic.Term{Coeff: coeffs[k], Sym: g.Deriv(v, order)})
	}
	return symbolic.NewExpr(terms...), nil
}
