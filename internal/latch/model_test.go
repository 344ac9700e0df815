package latch_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/integrators"
	"github.com/san-kum/latchsim/internal/latch"
	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/sim"
	"github.com/san-kum/latchsim/internal/stimulus"
)

func constTransition(tau, responseTime float64) regress.Transition {
	return regress.Transition{
		Tau:          regress.Fit{Const: tau},
		ResponseTime: regress.Fit{Const: responseTime},
	}
}

var _ = Describe("Model", func() {
	var (
		params latch.Params
		vdd    = latch.DefaultVDD
	)

	BeforeEach(func() {
		params = latch.NewParams(
			regress.Bias{VREF: 1.6, VREG: 1.7},
			constTransition(2e-10, 5e-10),
			constTransition(2e-10, 5e-10),
		)
	})

	newModel := func() *latch.Model {
		m, err := latch.New(params)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	Describe("construction", func() {
		It("starts in precharge with no transitions", func() {
			m := newModel()
			Expect(m.State()).To(Equal(latch.Precharge))
			Expect(m.Transitions()).To(BeEmpty())
		})

		It("takes the rising time constant from the response-time fit", func() {
			params.LowHigh = constTransition(1e-10, 7e-10)
			m := newModel()
			Expect(m.RiseTau()).To(Equal(7e-10))
			Expect(m.RiseResponse()).To(Equal(7e-10))
			Expect(m.FallTau()).To(Equal(2e-10))
		})

		DescribeTable("rejects unusable parameters",
			func(mutate func(p *latch.Params), want error) {
				mutate(&params)
				_, err := latch.New(params)
				Expect(err).To(MatchError(want))
			},
			Entry("zero fall tau", func(p *latch.Params) { p.HighLow.Tau.Const = 0 }, latch.ErrTimeConstant),
			Entry("negative fall tau", func(p *latch.Params) { p.HighLow.Tau.Const = -1e-10 }, latch.ErrTimeConstant),
			Entry("NaN rise tau", func(p *latch.Params) { p.LowHigh.ResponseTime.Const = math.NaN() }, latch.ErrTimeConstant),
			Entry("infinite fall response", func(p *latch.Params) { p.HighLow.ResponseTime.Const = math.Inf(1) }, latch.ErrResponseTime),
			Entry("zero supply", func(p *latch.Params) { p.VDD = 0 }, latch.ErrSupply),
			Entry("zero tolerance", func(p *latch.Params) { p.SettleTolerance = 0 }, latch.ErrSupply),
		)
	})

	Describe("clock edges", func() {
		It("holds in evaluate_high while VREG is below VREF", func() {
			params.Bias = regress.Bias{VREF: 1.7, VREG: 1.6}
			m := newModel()

			m.Poke(latch.Inputs{Clk: 0})
			Expect(m.DDT(vdd, 0)).To(BeZero())

			m.Poke(latch.Inputs{Clk: vdd})
			Expect(m.DDT(vdd, 1e-11)).To(BeZero())
			Expect(m.State()).To(Equal(latch.EvaluateHigh))

			m.Poke(latch.Inputs{Clk: vdd})
			Expect(m.DDT(vdd, 2e-11)).To(BeZero())
			Expect(m.State()).To(Equal(latch.EvaluateHigh))

			m.Poke(latch.Inputs{Clk: 0})
			m.DDT(vdd, 3e-11)
			Expect(m.State()).To(Equal(latch.Precharge))
		})

		It("treats equal references like VREG below VREF", func() {
			params.Bias = regress.Bias{VREF: 1.6, VREG: 1.6}
			m := newModel()
			m.Poke(latch.Inputs{Clk: vdd})
			m.DDT(vdd, 0)
			Expect(m.State()).To(Equal(latch.EvaluateHigh))
		})

		It("starts the high-to-low wait and records the delay time", func() {
			m := newModel()
			m.Poke(latch.Inputs{Clk: vdd})
			Expect(m.DDT(vdd, 4e-9)).To(BeZero())
			Expect(m.State()).To(Equal(latch.EvaluateWaitHighLow))
			Expect(m.DelayTime()).To(Equal(4e-9))
		})

		DescribeTable("picks the evaluate branch from the reference voltages",
			func(vreg, vref float64, want latch.State) {
				params.Bias = regress.Bias{VREF: vref, VREG: vreg}
				m := newModel()

				m.Poke(latch.Inputs{Clk: 0})
				Expect(m.DDT(vdd, 0)).To(BeZero())
				Expect(m.State()).To(Equal(latch.Precharge))

				m.Poke(latch.Inputs{Clk: 3.3})
				Expect(m.DDT(vdd, 1e-9)).To(BeZero())
				Expect(m.State()).To(Equal(want))
				if want == latch.EvaluateWaitHighLow {
					Expect(m.DelayTime()).To(Equal(1e-9))
				}
			},
			Entry("VREG 1.6 below VREF 3.3", 1.6, 3.3, latch.EvaluateHigh),
			Entry("VREG 3.3 above VREF 1.6", 3.3, 1.6, latch.EvaluateWaitHighLow),
		)

		It("resets to precharge and ignores a low clock", func() {
			m := newModel()
			m.Poke(latch.Inputs{Clk: vdd})
			m.DDT(vdd, 0)
			m.Reset()
			Expect(m.State()).To(Equal(latch.Precharge))
			Expect(m.Transitions()).To(BeEmpty())

			m.Poke(latch.Inputs{Clk: 0})
			m.DDT(vdd, 0)
			Expect(m.State()).To(Equal(latch.Precharge))
		})
	})

	Describe("output dynamics", func() {
		It("returns -y/tau while falling", func() {
			params.HighLow = constTransition(1e-9, 0)
			m := newModel()

			m.Poke(latch.Inputs{Clk: vdd})
			m.DDT(vdd, 0)
			Expect(m.State()).To(Equal(latch.EvaluateWaitHighLow))

			Expect(m.DDT(vdd, 1e-11)).To(BeZero())
			Expect(m.State()).To(Equal(latch.EvaluateLowHighLow))

			Expect(m.DDT(3.3, 2e-11)).To(BeNumerically("~", -3.3e9, 1e-3))
		})

		It("waits the full response time before falling", func() {
			m := newModel()
			m.Poke(latch.Inputs{Clk: vdd})
			m.DDT(vdd, 1e-9)

			m.DDT(vdd, 1.4e-9)
			Expect(m.State()).To(Equal(latch.EvaluateWaitHighLow))

			m.DDT(vdd, 1.6e-9)
			Expect(m.State()).To(Equal(latch.EvaluateLowHighLow))
		})

		It("recovers toward VDD and settles back to precharge", func() {
			params.HighLow = constTransition(2e-10, 0)
			params.LowHigh = constTransition(1e-10, 2e-10)
			m := newModel()

			m.Poke(latch.Inputs{Clk: vdd})
			m.DDT(vdd, 0)
			m.DDT(vdd, 1e-11)
			Expect(m.State()).To(Equal(latch.EvaluateLowHighLow))

			m.Poke(latch.Inputs{Clk: 0})
			m.DDT(0.1, 2e-11)
			Expect(m.State()).To(Equal(latch.EvaluateWaitLowHigh))
			Expect(m.DelayTime()).To(Equal(2e-11))

			m.DDT(0.1, 3e-11)
			Expect(m.State()).To(Equal(latch.EvaluateWaitLowHigh))

			m.DDT(0.1, 2.5e-10)
			Expect(m.State()).To(Equal(latch.EvaluateLowLowHigh))

			Expect(m.DDT(0.1, 2.6e-10)).To(BeNumerically("~", (vdd-0.1)/2e-10, 1))
			Expect(m.State()).To(Equal(latch.EvaluateLowLowHigh))

			m.DDT(vdd-5e-5, 2.7e-10)
			Expect(m.State()).To(Equal(latch.Precharge))

			Expect(m.Transitions()).To(HaveLen(5))
		})
	})

	Describe("driven by the simulator", func() {
		const (
			dt      = 1e-11
			samples = 1000
		)

		run := func(m *latch.Model) *dynamo.Result {
			clk, err := stimulus.NewPulse(250, 500, 250, vdd, dt)
			Expect(err).NotTo(HaveOccurred())

			s := sim.New(m, integrators.NewEuler(), clk)
			res, err := s.Run(context.Background(), dynamo.State{vdd}, dynamo.Config{Dt: dt, Steps: samples, ValidateState: true})
			Expect(err).NotTo(HaveOccurred())
			return res
		}

		It("decays during the clock pulse and recovers after it", func() {
			m := newModel()
			res := run(m)

			y := res.Series(0)
			Expect(y).To(HaveLen(samples + 1))
			for _, v := range y {
				Expect(math.IsNaN(v)).To(BeFalse())
			}

			Expect(y[250]).To(Equal(vdd))
			Expect(y[750]).To(BeNumerically("<", 0.01))
			Expect(y[samples]).To(BeNumerically(">", 3.0))

			var path []latch.State
			for _, e := range m.Transitions() {
				path = append(path, e.To)
			}
			Expect(path).To(Equal([]latch.State{
				latch.EvaluateWaitHighLow,
				latch.EvaluateLowHighLow,
				latch.EvaluateWaitLowHigh,
				latch.EvaluateLowLowHigh,
			}))
			Expect(path).NotTo(ContainElement(latch.EvaluateLowStable))
		})

		It("keeps the output at VDD when VREG is below VREF", func() {
			params.Bias = regress.Bias{VREF: 1.7, VREG: 1.6}
			m := newModel()
			res := run(m)

			for _, v := range res.Series(0) {
				Expect(v).To(Equal(vdd))
			}
			Expect(m.State()).To(Equal(latch.Precharge))
		})

		It("is rejected with a multi-evaluation integrator", func() {
			m := newModel()
			clk := stimulus.NewHold(0)
			s := sim.New(m, integrators.NewRK4(), clk)
			_, err := s.Run(context.Background(), dynamo.State{vdd}, dynamo.Config{Dt: dt, Steps: 10})
			Expect(err).To(MatchError(dynamo.ErrMultiEvaluation))
		})
	})
})

var _ = Describe("State", func() {
	It("names every mode", func() {
		Expect(latch.States()).To(HaveLen(7))
		Expect(latch.EvaluateWaitHighLow.String()).To(Equal("evaluate_wait_high_low"))
		Expect(latch.State(42).String()).To(Equal("State(42)"))
	})
})
