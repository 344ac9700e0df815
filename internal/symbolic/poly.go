package symbolic

import (
	"fmt"
	"sort"
	"strings"
)

// Poly is a polynomial in s with complex coefficients; Poly[k] multiplies
// s^k.
type Poly []complex128

func Const(c complex128) Poly { return Poly{c} }

// Linear returns the first-order factor (s - root).
func Linear(root complex128) Poly { return Poly{-root, 1} }

// FromRoots expands Π(s - r).
func FromRoots(roots []complex128) Poly {
	p := Const(1)
	for _, r := range roots {
		p = p.Mul(Linear(r))
	}
	return p
}

func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out.trim()
}

func (p Poly) trim() Poly {
	n := len(p)
	for n > 1 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

func (p Poly) Degree() int {
	t := p.trim()
	if len(t) == 0 || (len(t) == 1 && t[0] == 0) {
		return -1
	}
	return len(t) - 1
}

func (p Poly) Eval(s complex128) complex128 {
	var v complex128
	for k := len(p) - 1; k >= 0; k-- {
		v = v*s + p[k]
	}
	return v
}

// Coefficients lists the non-zero monomials of p.
func (p Poly) Coefficients() Coefficients {
	c := make(Coefficients, len(p))
	for k, v := range p {
		if v != 0 {
			c[k] = v
		}
	}
	return c
}

func (p Poly) String() string {
	return p.Coefficients().Expand()
}

// Coefficients maps the power of s to its coefficient. Absent powers have
// coefficient zero.
type Coefficients map[int]complex128

func (c Coefficients) At(k int) complex128 { return c[k] }

// Orders returns the powers present, ascending.
func (c Coefficients) Orders() []int {
	out := make([]int, 0, len(c))
	for k, v := range c {
		if v != 0 {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

func (c Coefficients) MaxOrder() int {
	max := -1
	for _, k := range c.Orders() {
		if k > max {
			max = k
		}
	}
	return max
}

// Poly rebuilds Σ c[k]·s^k.
func (c Coefficients) Poly() Poly {
	max := c.MaxOrder()
	if max < 0 {
		return Poly{0}
	}
	p := make(Poly, max+1)
	for k, v := range c {
		if k >= 0 && k <= max {
			p[k] = v
		}
	}
	return p
}

func (c Coefficients) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Orders() {
		parts = append(parts, fmt.Sprintf("%d: %s", k, FormatComplex(c[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Expand renders Σ c[k]·s^k, highest power first.
func (c Coefficients) Expand() string {
	orders := c.Orders()
	if len(orders) == 0 {
		return "0"
	}
	var b strings.Builder
	for i := len(orders) - 1; i >= 0; i-- {
		k := orders[i]
		v := c[k]
		neg := imag(v) == 0 && real(v) < 0
		if neg {
			v = -v
		}
		switch {
		case i == len(orders)-1 && neg:
			b.WriteString("-")
		case i < len(orders)-1 && neg:
			b.WriteString(" - ")
		case i < len(orders)-1:
			b.WriteString(" + ")
		}
		mono := ""
		switch k {
		case 0:
		case 1:
			mono = "s"
		default:
			mono = fmt.Sprintf("s^%d", k)
		}
		switch {
		case mono == "":
			b.WriteString(FormatComplex(v))
		case v == 1:
			b.WriteString(mono)
		default:
			b.WriteString(FormatComplex(v) + "*" + mono)
		}
	}
	return b.String()
}
