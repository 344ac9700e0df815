package symbolic

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicateVar = errors.New("symbolic: variable already defined")

// VarGen is the ledger of declared variables, the highest derivative order
// observed for each, and the first-order equations accumulated so far.
type VarGen struct {
	names    []string
	maxOrder map[string]int
	odes     System
}

func NewVarGen() *VarGen {
	return &VarGen{maxOrder: make(map[string]int)}
}

func (g *VarGen) Define(name string) (Symbol, error) {
	if _, ok := g.maxOrder[name]; ok {
		return Symbol{}, fmt.Errorf("%w: %s", ErrDuplicateVar, name)
	}
	g.names = append(g.names, name)
	g.maxOrder[name] = 0
	return Var(name), nil
}

// Deriv returns the order-th time derivative of v and records it.
func (g *VarGen) Deriv(v Symbol, order int) Symbol {
	d := Symbol{Name: v.Name, Order: v.Order + order}
	if cur, ok := g.maxOrder[d.Name]; !ok || d.Order > cur {
		if !ok {
			g.names = append(g.names, d.Name)
		}
		g.maxOrder[d.Name] = d.Order
	}
	return d
}

// HighestOrder returns the highest derivative of name observed, or the
// variable itself if it never appeared differentiated.
func (g *VarGen) HighestOrder(name string) Symbol {
	return Symbol{Name: name, Order: g.maxOrder[name]}
}

// Derivatives lists every derivative of order 1 up to the highest observed
// order, variable by variable in declaration order.
func (g *VarGen) Derivatives() []Symbol {
	var out []Symbol
	for _, name := range g.names {
		for k := 1; k <= g.maxOrder[name]; k++ {
			out = append(out, Symbol{Name: name, Order: k})
		}
	}
	return out
}

// AddODE records d(state)/dt = rate.
func (g *VarGen) AddODE(state Symbol, rate Expr) {
	g.odes = append(g.odes, ODE{State: state, Rate: rate})
}

func (g *VarGen) System() System {
	out := make(System, len(g.odes))
	copy(out, g.odes)
	return out
}

func (g *VarGen) Vars() []Symbol {
	out := make([]Symbol, len(g.names))
	for i, n := range g.names {
		out[i] = Var(n)
	}
	return out
}

// ODE is d(State)/dt = Rate.
type ODE struct {
	State Symbol
	Rate  Expr
}

func (o ODE) String() string {
	return fmt.Sprintf("d(%s)/dt = %s", o.State, o.Rate)
}

// System is an ordered set of first-order equations.
type System []ODE

// IsFirstOrder reports whether no right-hand side refers to a derivative.
func (s System) IsFirstOrder() bool {
	for _, o := range s {
		if o.State.IsDerivative() || o.Rate.MaxOrder() > 0 {
			return false
		}
	}
	return true
}

func (s System) Subs(m map[Symbol]Symbol) System {
	out := make(System, len(s))
	for i, o := range s {
		st := o.State
		if r, ok := m[st]; ok {
			st = r
		}
		out[i] = ODE{State: st, Rate: o.Rate.Subs(m)}
	}
	return out
}

// States lists the integrated variables in equation order.
func (s System) States() []Symbol {
	out := make([]Symbol, len(s))
	for i, o := range s {
		out[i] = o.State
	}
	return out
}

// Inputs lists symbols that appear on a right-hand side but have no
// equation of their own, in order of first appearance.
func (s System) Inputs() []Symbol {
	has := make(map[Symbol]bool, len(s))
	for _, o := range s {
		has[o.State] = true
	}
	var out []Symbol
	for _, o := range s {
		for _, sym := range o.Rate.Symbols() {
			if !has[sym] {
				has[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

func (s System) Equal(o System, tol float64) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].State != o[i].State || !s[i].Rate.Equal(o[i].Rate, tol) {
			return false
		}
	}
	return true
}

func (s System) String() string {
	lines := make([]string, len(s))
	for i, o := range s {
		lines[i] = o.String()
	}
	return strings.Join(lines, "\n")
}
