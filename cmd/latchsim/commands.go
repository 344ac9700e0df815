package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/san-kum/latchsim/internal/analysis"
	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/experiment"
	"github.com/san-kum/latchsim/internal/fixture"
	"github.com/san-kum/latchsim/internal/optim"
	"github.com/san-kum/latchsim/internal/regress"
	"github.com/san-kum/latchsim/internal/storage"
	"github.com/san-kum/latchsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

const (
	plotWidth  = 72
	plotHeight = 12
)

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "latch")
	if err != nil {
		return err
	}
	fits, err := experiment.LoadFits(cfg)
	if err != nil {
		return err
	}

	exp, err := experiment.NewLatch(cfg, fits, experiment.NewRegistry())
	if err != nil {
		return err
	}

	m := exp.Model()
	fmt.Println(viz.Title.Render("latch simulation"))
	fmt.Println(viz.KeyValue("VREF", cfg.VREF))
	fmt.Println(viz.KeyValue("VREG", cfg.VREG))
	fmt.Println(viz.KeyValue("fall tau", m.FallTau()))
	fmt.Println(viz.KeyValue("fall delay", m.FallResponse()))
	fmt.Println(viz.KeyValue("rise tau", m.RiseTau()))
	fmt.Println(viz.KeyValue("rise delay", m.RiseResponse()))

	start := time.Now()
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("transitions"))
	for _, ev := range m.Transitions() {
		fmt.Println("  " + ev.String())
	}
	if len(m.Transitions()) == 0 {
		fmt.Println(viz.Subtle.Render("  none"))
	}

	printMetrics(result.Metrics)

	if !noPlot {
		fmt.Println(viz.Separator(plotWidth))
		fmt.Println(viz.PlotTrace(result.Series(0), "output (V)", plotWidth, plotHeight))
		fmt.Println(viz.PlotTrace(result.ControlSeries(0), "clock (V)", plotWidth, 4))
	}

	if pngPath != "" {
		if err := saveRunPNG(pngPath, "latch output", result); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", pngPath)
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta, err := st.Save(exp.Metadata(), result)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	return nil
}

func printMetrics(values map[string]float64) {
	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("metrics"))
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println("  " + viz.KeyValue(name, values[name]))
	}
}

func saveRunPNG(path, title string, result *dynamo.Result) error {
	n := min(len(result.Times), len(result.States))
	lines := []viz.Line{{Name: "output", X: result.Times[:n], Y: result.Series(0)[:n]}}
	if clk := result.ControlSeries(0); len(clk) > 0 {
		k := min(len(clk), n)
		lines = append(lines, viz.Line{Name: "clock", X: result.Times[:k], Y: clk[:k]})
	}
	return viz.SavePNG(path, title, "t (s)", "V", lines...)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "latch")
	if err != nil {
		return err
	}
	fits, err := experiment.LoadFits(cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := experiment.NewLatch(cfg, fits, registry)
	if err != nil {
		return err
	}
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	clk, err := registry.GetClock(cfg.Clock, cfg.Dt())
	if err != nil {
		return err
	}

	title := fmt.Sprintf("latch VREF=%g VREG=%g", cfg.VREF, cfg.VREG)
	lm := viz.NewLiveModel(exp.Model(), integ, clk, cfg.GetInitState(), cfg.Dt(), cfg.SimConfig().NumSteps(), title)
	return viz.RunLive(lm.WithTheme(theme))
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "latch")
	if err != nil {
		return err
	}
	if sweepN < 2 {
		return fmt.Errorf("sweep needs at least 2 points, got %d", sweepN)
	}
	fits, err := experiment.LoadFits(cfg)
	if err != nil {
		return err
	}

	values := floats.Span(make([]float64, sweepN), sweepLo, sweepHi)

	start := time.Now()
	points, err := experiment.SweepVREG(context.Background(), cfg, fits, values, workers)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("VREG sweep at VREF=%g", cfg.VREF)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VREG\tFALL TIME\tSWING\tFINAL")
	fall := make([]float64, 0, len(points))
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4g\n", p.VREG, p.FallTime, p.Swing, p.Final)
		fall = append(fall, p.FallTime)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("fall time " + viz.Sparkline(fall, len(fall)))
	fmt.Printf("\n%d runs in %v\n", len(points), time.Since(start))
	return nil
}

func runDerive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "transfer")
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("transfer function derivation"))
	fmt.Println(viz.KeyValue("record", cfg.Transfer.Params))
	fmt.Println(viz.KeyValue("VREF", cfg.VREF))
	fmt.Println(viz.KeyValue("VREG", cfg.VREG))
	fmt.Println()

	d, err := experiment.Derive(cfg, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.KeyValue("H(s)", d.Transfer))
	fmt.Println(viz.KeyValue("numerator", d.Numerator))
	fmt.Println(viz.KeyValue("denominator", d.Denominator))
	fmt.Println(viz.KeyValue("state vars", d.StateSpace.Vars))

	eig, err := d.StateSpace.Eigenvalues()
	if err != nil {
		return err
	}
	fmt.Println(viz.KeyValue("eigenvalues", eig))

	omegas := floats.LogSpan(make([]float64, 200), 1e6, 1e12)
	resp := analysis.FrequencyResponse(d.Transfer, omegas)
	fmt.Println(viz.KeyValue("gain @1e6 rad/s", fmt.Sprintf("%.4g dB", resp[0].MagnitudeDB)))
	if bw, ok := analysis.Bandwidth(resp); ok {
		fmt.Println(viz.KeyValue("-3 dB", fmt.Sprintf("%.4g rad/s", bw)))
	} else {
		fmt.Println(viz.KeyValue("-3 dB", "beyond 1e12 rad/s"))
	}

	if !withStep {
		return nil
	}

	r, err := d.StepResponse(context.Background(), stepLevel, cfg.SimConfig())
	if err != nil {
		return err
	}
	y := d.Output(r)
	fmt.Println()
	fmt.Println(viz.PlotTrace(y, "step response y", plotWidth, plotHeight))

	if info, err := analysis.Step(r.Times, y, 0.02); err == nil {
		fmt.Println(viz.KeyValue("rise time", info.RiseTime))
		fmt.Println(viz.KeyValue("overshoot", info.Overshoot))
		if info.Settled {
			fmt.Println(viz.KeyValue("settling time", info.SettlingTime))
		} else {
			fmt.Println(viz.KeyValue("settling time", viz.ErrorStyle.Render("not settled")))
		}
	} else {
		fmt.Println(viz.Subtle.Render(err.Error()))
	}

	if phase {
		yi, _ := d.StateSpace.Index(d.ODE.Output)
		dy, ok := d.ODE.SubstitutionMap()[d.ODE.Output.Next()]
		dyi, found := d.StateSpace.Index(dy)
		if !ok || !found {
			return fmt.Errorf("no first derivative of %s in the state vector", d.ODE.Output)
		}
		p, err := analysis.NewPortrait(r, yi, dyi)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(viz.Panel.Render(p.ASCII(plotWidth, plotHeight)))
	}

	if pngPath != "" {
		n := min(len(r.Times), len(y))
		if err := viz.SavePNG(pngPath, "step response", "t (s)", "y", viz.Line{Name: "y", X: r.Times[:n], Y: y[:n]}); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", pngPath)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "latch")
	if err != nil {
		return err
	}

	dir, err := fixture.ParseDirection(cfg.Fixtures.Direction)
	if err != nil {
		return err
	}
	fitPath := cfg.Params.HighLow
	if dir == fixture.Rising {
		fitPath = cfg.Params.LowHigh
	}
	tr, err := regress.LoadTransition(fitPath)
	if err != nil {
		return err
	}
	set, err := fixture.Load(cfg.Fixtures.Path)
	if err != nil {
		return err
	}

	rep, err := fixture.Compare(set, tr, dir, cfg.VDD)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s fit vs %s", rep.Direction, cfg.Fixtures.Path)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIM\tVREF\tVREG\tTAU\tRESPONSE\tSSR")
	for _, c := range rep.Comparisons {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.6g\n", c.Name, c.Bias.VREF, c.Bias.VREG, c.Tau, c.ResponseTime, c.SSR)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.KeyValue("total", rep.Total))
	fmt.Println(viz.KeyValue("average", rep.Average))

	if pngPath != "" {
		if err := os.MkdirAll(pngPath, 0755); err != nil {
			return err
		}
	}
	for _, c := range rep.Comparisons {
		if !noPlot {
			fmt.Println(viz.Separator(plotWidth))
			fmt.Println(viz.PlotComparison(c.Measured, c.Model, c.Name, plotWidth, plotHeight))
		}
		if pngPath != "" {
			path := filepath.Join(pngPath, c.Name+".png")
			err := viz.SavePNG(path, c.Name, "t (s)", "V",
				viz.Line{Name: "measured", X: c.Time, Y: c.Measured},
				viz.Line{Name: "model", X: c.Time, Y: c.Model},
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "latch")
	if err != nil {
		return err
	}
	if gridN < 2 {
		return fmt.Errorf("grid needs at least 2 points per parameter, got %d", gridN)
	}
	if !(tauMin > 0) || tauMax < tauMin {
		return fmt.Errorf("invalid tau range [%g, %g]", tauMin, tauMax)
	}

	dir, err := fixture.ParseDirection(cfg.Fixtures.Direction)
	if err != nil {
		return err
	}
	set, err := fixture.Load(cfg.Fixtures.Path)
	if err != nil {
		return err
	}

	taus := floats.LogSpan(make([]float64, gridN), tauMin, tauMax)
	rts := floats.Span(make([]float64, gridN), rtMin, rtMax)

	start := time.Now()
	tr, res, err := optim.FitConstant(context.Background(), set, dir, cfg.VDD, taus, rts)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("constant %s fit over %d simulations", dir, len(set))))
	fmt.Println(viz.KeyValue("tau", tr.Tau.Const))
	fmt.Println(viz.KeyValue("response time", tr.ResponseTime.Const))
	fmt.Println(viz.KeyValue("average SSR", res.Value))
	fmt.Println(viz.KeyValue("evaluations", res.Evaluations))
	fmt.Printf("\nsearched in %v\n", time.Since(start))

	if fitOutput != "" {
		if err := regress.SaveTransition(fitOutput, tr); err != nil {
			return err
		}
		fmt.Printf("fit written to %s\n", fitOutput)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(runDataDir(cmd))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tVREF\tVREG\tDT\tINTEG\tCLOCK\tTRANSITIONS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.4g\t%.4g\t%.3g\t%s\t%s\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.VREF,
			run.VREG,
			run.Dt,
			run.Integrator,
			run.Clock,
			len(run.Transitions),
		)
	}
	return w.Flush()
}

// runDataDir resolves the data directory for commands that read stored
// runs: the flag, then the config file, then the default.
func runDataDir(cmd *cobra.Command) string {
	if cmd.Flags().Changed("data") || configFile == "" {
		return dataDir
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return dataDir
	}
	return cfg.DataDir
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(runDataDir(cmd))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(result.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.Title.Render("run " + meta.ID))
	fmt.Println(viz.KeyValue("VREF", meta.VREF))
	fmt.Println(viz.KeyValue("VREG", meta.VREG))
	for _, tr := range meta.Transitions {
		fmt.Printf("  t=%.4g: %s -> %s\n", tr.Time, tr.From, tr.To)
	}
	printMetrics(meta.Metrics)
	fmt.Println()
	fmt.Println(viz.PlotTrace(result.Series(0), "output (V)", plotWidth, plotHeight))

	if pngPath != "" {
		if err := saveRunPNG(pngPath, "run "+meta.ID, result); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", pngPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(runDataDir(cmd))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	if exportTo == "" {
		return storage.ExportJSON(os.Stdout, meta, result)
	}
	if err := storage.ExportJSONFile(exportTo, meta, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", exportTo)
	return nil
}
