// Package latch models the transient output of a clocked comparator latch
// as a hybrid automaton: clock edges and elapsed response times switch the
// discrete mode, and within two of the modes the output relaxes
// exponentially toward a rail.
//
// The model is advanced by calling [Model.Poke] with the clock for the
// current step and then [Model.DDT] with the current output estimate and
// time; the caller integrates the returned derivative.
package latch

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/regress"
)

const (
	DefaultVDD             = 3.3
	DefaultSettleTolerance = 1e-4
)

var (
	ErrTimeConstant = errors.New("latch: time constant must be finite and positive")
	ErrResponseTime = errors.New("latch: response time must be finite")
	ErrSupply       = errors.New("latch: supply and tolerance must be positive")
)

// Params fixes the operating point and the two transition fits.
type Params struct {
	Bias regress.Bias
	VDD  float64
	// HighLow is the fit for the output falling from VDD to 0, LowHigh for
	// it recovering to VDD.
	HighLow         regress.Transition
	LowHigh         regress.Transition
	SettleTolerance float64
}

func NewParams(bias regress.Bias, highLow, lowHigh regress.Transition) Params {
	return Params{
		Bias:            bias,
		VDD:             DefaultVDD,
		HighLow:         highLow,
		LowHigh:         lowHigh,
		SettleTolerance: DefaultSettleTolerance,
	}
}

// Inputs are the externally driven pins.
type Inputs struct {
	Clk float64
}

type Model struct {
	params Params

	fallTau      float64
	fallResponse float64
	riseResponse float64
	// riseTau is evaluated from the low→high response-time fit, not its
	// tau fit.
	riseTau float64

	state     State
	in        Inputs
	prevClk   float64
	delayTime float64
	events    []Event
}

// New evaluates every fit at the operating point and rejects time
// constants that would make the dynamics undefined.
func New(p Params) (*Model, error) {
	if !(p.VDD > 0) || !(p.SettleTolerance > 0) {
		return nil, fmt.Errorf("%w: VDD=%g tolerance=%g", ErrSupply, p.VDD, p.SettleTolerance)
	}

	m := &Model{
		params:       p,
		fallTau:      p.HighLow.Tau.Eval(p.Bias),
		fallResponse: p.HighLow.ResponseTime.Eval(p.Bias),
		riseResponse: p.LowHigh.ResponseTime.Eval(p.Bias),
		riseTau:      p.LowHigh.ResponseTime.Eval(p.Bias),
	}

	for _, c := range []struct {
		name string
		v    float64
	}{
		{"high->low tau", m.fallTau},
		{"low->high tau (response time fit)", m.riseTau},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v <= 0 {
			return nil, fmt.Errorf("%w: %s = %g at VREF=%g VREG=%g", ErrTimeConstant, c.name, c.v, p.Bias.VREF, p.Bias.VREG)
		}
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"high->low response time", m.fallResponse},
		{"low->high response time", m.riseResponse},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return nil, fmt.Errorf("%w: %s = %g at VREF=%g VREG=%g", ErrResponseTime, c.name, c.v, p.Bias.VREF, p.Bias.VREG)
		}
	}

	return m, nil
}

func (m *Model) Params() Params { return m.params }
func (m *Model) State() State { return m.state }
func (m *Model) Inputs() Inputs { return m.in }
func (m *Model) DelayTime() float64 { return m.delayTime }
func (m *Model) FallTau() float64 { return m.fallTau }
func (m *Model) RiseTau() float64 { return m.riseTau }
func (m *Model) FallResponse() float64 { return m.fallResponse }
func (m *Model) RiseResponse() float64 { return m.riseResponse }
func (m *Model) Transitions() []Event { return append([]Event(nil), m.events...) }

// Poke sets the input pins for the next DDT call.
func (m *Model) Poke(in Inputs) {
	m.in = in
}

func (m *Model) Reset() {
	m.state = Precharge
	m.in = Inputs{}
	m.prevClk = 0
	m.delayTime = 0
	m.events = nil
}

func (m *Model) high(v float64) bool {
	return v > m.params.VDD/2
}

func (m *Model) enter(s State, t float64) {
	m.events = append(m.events, Event{Time: t, From: m.state, To: s})
	m.state = s
}

// DDT advances the mode for time t and returns dy/dt for output y. It must
// be called once per step with non-decreasing t after the step's Poke.
func (m *Model) DDT(y, t float64) float64 {
	clk := m.in.Clk
	rising := !m.high(m.prevClk) && m.high(clk)
	falling := m.high(m.prevClk) && !m.high(clk)
	vdd := m.params.VDD

	dy := 0.0
	switch m.state {
	case Precharge:
		if rising {
			if m.params.Bias.VREG > m.params.Bias.VREF {
				m.enter(EvaluateWaitHighLow, t)
				m.delayTime = t
			} else {
				m.enter(EvaluateHigh, t)
			}
		}

	case EvaluateHigh:
		if falling {
			m.enter(Precharge, t)
		}

	case EvaluateWaitHighLow:
		if t-m.delayTime >= m.fallResponse {
			m.enter(EvaluateLowHighLow, t)
		}

	case EvaluateLowHighLow:
		dy = -y / m.fallTau
		if falling {
			m.enter(EvaluateWaitLowHigh, t)
			m.delayTime = t
		}

	case EvaluateWaitLowHigh:
		if t-m.delayTime >= m.riseResponse {
			m.enter(EvaluateLowLowHigh, t)
		}

	case EvaluateLowLowHigh:
		dy = (vdd - y) / m.riseTau
		if math.Abs(vdd-y) < m.params.SettleTolerance {
			m.enter(Precharge, t)
		}

	case EvaluateLowStable:
	}

	m.prevClk = clk
	return dy
}

// Derive implements dynamo.System: u[0] is the clock, x[0] the output.
func (m *Model) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	if len(u) > 0 {
		m.Poke(Inputs{Clk: u[0]})
	}
	return dynamo.State{m.DDT(x[0], t)}
}

func (m *Model) StateDim() int { return 1 }
func (m *Model) ControlDim() int { return 1 }

// Hybrid marks the model as mutating on every Derive call.
func (m *Model) Hybrid() {}
