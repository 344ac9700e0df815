package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/latchsim/internal/dynamo"
	"github.com/san-kum/latchsim/internal/regress"
	"gopkg.in/yaml.v3"
)

const (
	DefaultVREF            = 1.6
	DefaultVREG            = 1.7
	DefaultVDD             = 3.3
	DefaultTMax            = 1e-8
	DefaultSamples         = 1000
	DefaultClockLow        = 250
	DefaultClockHigh       = 500
	DefaultClockLowAfter   = 250
	DefaultSettleTolerance = 1e-4
	DefaultDataDir         = ".latchsim"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Model           string         `yaml:"model"`
	Integrator      string         `yaml:"integrator"`
	VREF            float64        `yaml:"vref"`
	VREG            float64        `yaml:"vreg"`
	VDD             float64        `yaml:"vdd"`
	TMax            float64        `yaml:"tmax"`
	Samples         int            `yaml:"samples"`
	SettleTolerance float64        `yaml:"settle_tolerance"`
	Clock           ClockConfig    `yaml:"clock"`
	Params          ParamsConfig   `yaml:"params"`
	Transfer        TransferConfig `yaml:"transfer"`
	Fixtures        FixtureConfig  `yaml:"fixtures"`
	DataDir         string         `yaml:"data_dir"`
}

// ClockConfig selects the clock waveform. Kind is "pulse" (Low, High,
// LowAfter samples), "square" (Period, Duty, Cycles) or "hold" (constant
// Level).
type ClockConfig struct {
	Kind     string  `yaml:"kind"`
	Low      int     `yaml:"low"`
	High     int     `yaml:"high"`
	LowAfter int     `yaml:"low_after"`
	Level    float64 `yaml:"level"`
	Period   int     `yaml:"period"`
	Duty     float64 `yaml:"duty"`
	Cycles   int     `yaml:"cycles"`
}

// ParamsConfig points at the transition fit files.
type ParamsConfig struct {
	LowHigh string `yaml:"low_high"`
	HighLow string `yaml:"high_low"`
}

type TransferConfig struct {
	Params      string `yaml:"params"`
	Polar       bool   `yaml:"polar"`
	LegacyNames bool   `yaml:"legacy_names"`
}

type FixtureConfig struct {
	Path      string `yaml:"path"`
	Direction string `yaml:"direction"`
}

// Clone returns an independent copy. Config and its sections hold only
// value fields, so a struct copy is deep; a slice, map or pointer field
// added later has to be copied here too.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func DefaultConfig() *Config {
	return &Config{
		Model:           "latch",
		Integrator:      "euler",
		VREF:            DefaultVREF,
		VREG:            DefaultVREG,
		VDD:             DefaultVDD,
		TMax:            DefaultTMax,
		Samples:         DefaultSamples,
		SettleTolerance: DefaultSettleTolerance,
		Clock: ClockConfig{
			Kind:     "pulse",
			Low:      DefaultClockLow,
			High:     DefaultClockHigh,
			LowAfter: DefaultClockLowAfter,
			Level:    DefaultVDD,
			Period:   DefaultClockHigh,
			Duty:     0.5,
		},
		Params: ParamsConfig{
			LowHigh: "regression_results_zero_one.yaml",
			HighLow: "regression_results_one_zero.yaml",
		},
		Transfer: TransferConfig{
			Params: "regression_results.yaml",
		},
		Fixtures: FixtureConfig{
			Path:      "jsondatadump.json",
			Direction: "fall",
		},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case !(c.TMax > 0):
		return fmt.Errorf("%w: tmax must be positive, got %g", ErrInvalid, c.TMax)
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalid, c.Samples)
	case !(c.VDD > 0):
		return fmt.Errorf("%w: vdd must be positive, got %g", ErrInvalid, c.VDD)
	case !(c.SettleTolerance > 0):
		return fmt.Errorf("%w: settle_tolerance must be positive, got %g", ErrInvalid, c.SettleTolerance)
	}
	switch c.Clock.Kind {
	case "pulse", "square", "hold":
	default:
		return fmt.Errorf("%w: unknown clock kind %q", ErrInvalid, c.Clock.Kind)
	}
	return nil
}

// Dt is the fixed step: tmax split into samples steps.
func (c *Config) Dt() float64 {
	return c.TMax / float64(c.Samples)
}

func (c *Config) Bias() regress.Bias {
	return regress.Bias{VREF: c.VREF, VREG: c.VREG}
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt(),
		Duration:      c.TMax,
		Steps:         c.Samples,
		ValidateState: true,
	}
}

// GetInitState is the initial output: the latch starts precharged at VDD.
func (c *Config) GetInitState() dynamo.State {
	return dynamo.State{c.VDD}
}
