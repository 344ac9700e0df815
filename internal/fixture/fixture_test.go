package fixture_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/latchsim/internal/fixture"
	"github.com/san-kum/latchsim/internal/regress"
)

const vdd = 3.3

var _ = Describe("Load", func() {
	It("orders simulations by name and reads the bias from the inputs", func() {
		set, err := fixture.Load("testdata/fixtures.json")
		Expect(err).NotTo(HaveOccurred())
		Expect(set).To(HaveLen(2))
		Expect(set[0].Name).To(Equal("sim_a"))
		Expect(set[1].Name).To(Equal("sim_b"))

		bias, err := set[1].Bias()
		Expect(err).NotTo(HaveOccurred())
		Expect(bias).To(Equal(regress.Bias{VREF: 1.6, VREG: 1.7}))
		Expect(set[1].RP.Time).To(HaveLen(4))
	})

	DescribeTable("rejects malformed dumps",
		func(doc string, want error) {
			_, err := fixture.Parse([]byte(doc))
			Expect(err).To(MatchError(want))
		},
		Entry("not an object", `[1, 2]`, fixture.ErrMalformed),
		Entry("single series", `{"s": {"rp": [[0, 1]], "inp": [[0],[1]], "inn": [[0],[1]]}}`, fixture.ErrMalformed),
		Entry("ragged series", `{"s": {"rp": [[0, 1], [2]], "inp": [[0],[1]], "inn": [[0],[1]]}}`, fixture.ErrLengthMismatch),
		Entry("empty output", `{"s": {"rp": [[], []], "inp": [[0],[1]], "inn": [[0],[1]]}}`, fixture.ErrEmptyTrace),
	)

	It("reports a simulation without inputs", func() {
		set, err := fixture.Parse([]byte(`{"s": {"rp": [[0], [1]], "inp": [[], []], "inn": [[0],[1]]}}`))
		Expect(err).NotTo(HaveOccurred())
		_, err = set[0].Bias()
		Expect(err).To(MatchError(fixture.ErrEmptyTrace))
	})
})

var _ = Describe("Response", func() {
	It("holds VDD then decays when falling", func() {
		Expect(fixture.Response(fixture.Falling, vdd, 1e-10, 2e-10, 1e-10)).To(Equal(vdd))
		Expect(fixture.Response(fixture.Falling, vdd, 1e-10, 2e-10, 2e-10)).To(Equal(vdd))
		Expect(fixture.Response(fixture.Falling, vdd, 1e-10, 2e-10, 3e-10)).To(BeNumerically("~", vdd*math.Exp(-1), 1e-9))
	})

	It("holds zero then charges when rising", func() {
		Expect(fixture.Response(fixture.Rising, vdd, 1e-10, 2e-10, 1e-10)).To(BeZero())
		Expect(fixture.Response(fixture.Rising, vdd, 1e-10, 2e-10, 2e-10)).To(BeZero())
		Expect(fixture.Response(fixture.Rising, vdd, 1e-10, 2e-10, 3e-10)).To(BeNumerically("~", vdd*(1-math.Exp(-1)), 1e-9))
	})

	It("parses direction names", func() {
		d, err := fixture.ParseDirection("low_high")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(fixture.Rising))

		d, err = fixture.ParseDirection("fall")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(fixture.Falling))

		_, err = fixture.ParseDirection("sideways")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Compare", func() {
	var (
		set fixture.Set
		tr  regress.Transition
	)

	BeforeEach(func() {
		var err error
		set, err = fixture.Load("testdata/fixtures.json")
		Expect(err).NotTo(HaveOccurred())
		tr, err = regress.LoadTransition("testdata/transition.yaml")
		Expect(err).NotTo(HaveOccurred())
	})

	It("sums squared residuals per simulation and averages them", func() {
		rep, err := fixture.Compare(set, tr, fixture.Rising, vdd)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Comparisons).To(HaveLen(2))

		charged := vdd * (1 - math.Exp(-1))
		wantA := 0.25 + (1.0-charged)*(1.0-charged)
		Expect(rep.Comparisons[0].Name).To(Equal("sim_a"))
		Expect(rep.Comparisons[0].Tau).To(Equal(1e-10))
		Expect(rep.Comparisons[0].SSR).To(BeNumerically("~", wantA, 1e-9))

		var total float64
		for _, c := range rep.Comparisons {
			Expect(c.Model).To(HaveLen(len(c.Measured)))
			total += c.SSR
		}
		Expect(rep.Total).To(BeNumerically("~", total, 1e-12))
		Expect(rep.Average).To(BeNumerically("~", total/2, 1e-12))
	})

	It("scores a perfect falling fixture as zero", func() {
		times := []float64{0, 1e-10, 2e-10, 3e-10}
		perfect := fixture.Set{{
			Name: "ideal",
			RP:   fixture.Trace{Time: times, Value: fixture.Responses(fixture.Falling, vdd, 1e-10, 1e-10, times)},
			INP:  fixture.Trace{Time: []float64{0}, Value: []float64{1.7}},
			INN:  fixture.Trace{Time: []float64{0}, Value: []float64{1.6}},
		}}
		rep, err := fixture.Compare(perfect, tr, fixture.Falling, vdd)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Total).To(BeZero())
		Expect(rep.Average).To(BeZero())
	})

	It("rejects an empty set", func() {
		_, err := fixture.Compare(nil, tr, fixture.Falling, vdd)
		Expect(err).To(MatchError(fixture.ErrNoSimulations))
	})

	DescribeTable("rejects fits that are not valid at a simulation's bias",
		func(tau, rt float64, want error) {
			bad := regress.Transition{
				Tau:          regress.Fit{Const: tau},
				ResponseTime: regress.Fit{Const: rt},
			}
			rep, err := fixture.Compare(set, bad, fixture.Falling, vdd)
			Expect(err).To(MatchError(want))
			Expect(err.Error()).To(ContainSubstring("sim_a"))
			Expect(rep).To(BeNil())
		},
		Entry("zero tau", 0.0, 1e-10, fixture.ErrTimeConstant),
		Entry("negative tau", -1e-10, 1e-10, fixture.ErrTimeConstant),
		Entry("infinite tau", math.Inf(1), 1e-10, fixture.ErrTimeConstant),
		Entry("NaN response time", 1e-10, math.NaN(), fixture.ErrResponseTime),
	)

	It("rejects series of different lengths", func() {
		_, err := fixture.SumSquaredResiduals([]float64{1, 2}, []float64{1})
		Expect(err).To(MatchError(fixture.ErrLengthMismatch))
	})
})
