package main

import (
	"fmt"
	"os"

	"github.com/san-kum/latchsim/internal/config"
	"github.com/san-kum/latchsim/internal/experiment"
	"github.com/san-kum/latchsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string

	vref       float64
	vreg       float64
	vdd        float64
	tmax       float64
	samples    int
	integrator string
	clock      string
	lowHigh    string
	highLow    string

	transferParams string
	polar          bool
	legacyNames    bool
	stepLevel      float64
	withStep       bool

	fixturePath string
	direction   string

	pngPath  string
	noPlot   bool
	sweepLo  float64
	sweepHi  float64
	sweepN   int
	workers  int
	exportTo string

	tauMin    float64
	tauMax    float64
	rtMin     float64
	rtMax     float64
	gridN     int
	fitOutput string
	phase     bool
	theme     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "latchsim",
		Short:        "comparator latch transfer functions and timing simulation",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate the latch output over one clock pattern",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	addBiasFlags(simulateCmd)
	addTimingFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&pngPath, "png", "", "also write a plot image")
	simulateCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the terminal plot")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step the latch interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addBiasFlags(liveCmd)
	addTimingFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "simulate across a range of VREG values in parallel",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addBiasFlags(sweepCmd)
	addTimingFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepLo, "from", 1.5, "first VREG value")
	sweepCmd.Flags().Float64Var(&sweepHi, "to", 1.9, "last VREG value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 9, "number of VREG values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "derive the transfer function, ODE and first-order system of a parameter record",
		Args:  cobra.NoArgs,
		RunE:  runDerive,
	}
	addBiasFlags(deriveCmd)
	deriveCmd.Flags().StringVar(&transferParams, "params", "", "pole/zero regression record (yaml)")
	deriveCmd.Flags().BoolVar(&polar, "polar", false, "record holds _r/_i parts of complex roots")
	deriveCmd.Flags().BoolVar(&legacyNames, "legacy-names", false, "infer pole/zero kind from quantity names")
	deriveCmd.Flags().BoolVar(&withStep, "step", false, "integrate a step response of the derived system")
	deriveCmd.Flags().Float64Var(&stepLevel, "level", 1, "step input level")
	deriveCmd.Flags().Float64Var(&tmax, "tmax", config.DefaultTMax, "step response duration (s)")
	deriveCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "step response samples")
	deriveCmd.Flags().StringVar(&pngPath, "png", "", "also write a plot image of the step response")
	deriveCmd.Flags().BoolVar(&phase, "phase", false, "draw the y / dy_d1 phase portrait of the step response")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "score transition fits against simulated fixtures",
		Args:  cobra.NoArgs,
		RunE:  runCompare,
	}
	compareCmd.Flags().Float64Var(&vdd, "vdd", config.DefaultVDD, "supply voltage")
	compareCmd.Flags().StringVar(&fixturePath, "fixtures", "", "fixture dump (json)")
	compareCmd.Flags().StringVar(&direction, "direction", "", "fall or rise")
	compareCmd.Flags().StringVar(&lowHigh, "low-high", "", "low->high transition fit (yaml)")
	compareCmd.Flags().StringVar(&highLow, "high-low", "", "high->low transition fit (yaml)")
	compareCmd.Flags().StringVar(&pngPath, "png", "", "directory for one plot image per simulation")
	compareCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the terminal plots")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "grid-search a bias-independent transition fit against fixtures",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	fitCmd.Flags().Float64Var(&vdd, "vdd", config.DefaultVDD, "supply voltage")
	fitCmd.Flags().StringVar(&fixturePath, "fixtures", "", "fixture dump (json)")
	fitCmd.Flags().StringVar(&direction, "direction", "", "fall or rise")
	fitCmd.Flags().Float64Var(&tauMin, "tau-min", 1e-12, "smallest time constant")
	fitCmd.Flags().Float64Var(&tauMax, "tau-max", 1e-9, "largest time constant")
	fitCmd.Flags().Float64Var(&rtMin, "rt-min", 0, "smallest response time")
	fitCmd.Flags().Float64Var(&rtMax, "rt-max", 1e-9, "largest response time")
	fitCmd.Flags().IntVar(&gridN, "n", 40, "grid points per parameter")
	fitCmd.Flags().StringVarP(&fitOutput, "output", "o", "", "write the fit as a transition file (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write a plot image")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&exportTo, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [workload]",
		Short: "list available presets for a workload (latch or transfer)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for: %s\n", args[0])
				return nil
			}
			fmt.Println(viz.Title.Render("presets for " + args[0]))
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	integratorsCmd := &cobra.Command{
		Use:   "integrators",
		Short: "list integrators and clock kinds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			r := experiment.NewRegistry()
			fmt.Println(viz.KeyValue("integrators", r.ListIntegrators()))
			fmt.Println(viz.KeyValue("clocks", r.ListClocks()))
		},
	}

	rootCmd.AddCommand(simulateCmd, liveCmd, sweepCmd, deriveCmd, compareCmd, fitCmd,
		listCmd, plotCmd, exportJSONCmd, presetsCmd, integratorsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func addBiasFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&vref, "vref", config.DefaultVREF, "reference input voltage")
	cmd.Flags().Float64Var(&vreg, "vreg", config.DefaultVREG, "regulated input voltage")
}

func addTimingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&vdd, "vdd", config.DefaultVDD, "supply voltage")
	cmd.Flags().Float64Var(&tmax, "tmax", config.DefaultTMax, "simulated time (s)")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of steps")
	cmd.Flags().StringVar(&integrator, "integrator", "euler", "integrator")
	cmd.Flags().StringVar(&clock, "clock", "pulse", "clock kind (pulse, square, hold)")
	cmd.Flags().StringVar(&lowHigh, "low-high", "", "low->high transition fit (yaml)")
	cmd.Flags().StringVar(&highLow, "high-low", "", "high->low transition fit (yaml)")
}

// loadConfig layers defaults, the named preset, the config file and finally
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, workload string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(workload, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(workload))
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("vref") {
		cfg.VREF = vref
	}
	if flags.Changed("vreg") {
		cfg.VREG = vreg
	}
	if flags.Changed("vdd") {
		cfg.VDD = vdd
		cfg.Clock.Level = vdd
	}
	if flags.Changed("tmax") {
		cfg.TMax = tmax
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("clock") {
		cfg.Clock.Kind = clock
	}
	if flags.Changed("low-high") {
		cfg.Params.LowHigh = lowHigh
	}
	if flags.Changed("high-low") {
		cfg.Params.HighLow = highLow
	}
	if flags.Changed("params") {
		cfg.Transfer.Params = transferParams
	}
	if flags.Changed("polar") {
		cfg.Transfer.Polar = polar
	}
	if flags.Changed("legacy-names") {
		cfg.Transfer.LegacyNames = legacyNames
	}
	if flags.Changed("fixtures") {
		cfg.Fixtures.Path = fixturePath
	}
	if flags.Changed("direction") {
		cfg.Fixtures.Direction = direction
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
