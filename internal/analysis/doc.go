// Package analysis characterizes derived transfer functions and the traces
// they produce.
//
//   - [FrequencyResponse]: H(jω) over a frequency grid, with [Bandwidth]
//   - [Step]: rise time, settling time and overshoot of a step response
//   - [NewPortrait]: phase portrait of two recorded state components
//
// # Stability Check
//
// A derived model whose step response never settles shows up as a
// settling time equal to the trace length:
//
//	info, _ := analysis.Step(r.Times, y, 0.02)
//	if !info.Settled {
//	    // oscillating or diverging
//	}
package analysis
