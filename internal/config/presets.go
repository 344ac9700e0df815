package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"latch": {
		"fall": preset(func(c *Config) {
			c.VREF, c.VREG = 1.6, 1.7
		}),
		"hold": preset(func(c *Config) {
			c.VREF, c.VREG = 1.7, 1.6
		}),
		"clocked": preset(func(c *Config) {
			c.TMax = 4e-8
			c.Samples = 4000
			c.Clock.Kind = "square"
			c.Clock.Period = 1000
			c.Clock.Duty = 0.5
			c.Clock.Cycles = 4
		}),
		"idle": preset(func(c *Config) {
			c.Clock.Kind = "hold"
			c.Clock.Level = 0
		}),
	},
	"transfer": {
		"real": preset(func(c *Config) {
			c.Model = "transfer"
			c.Integrator = "rk4"
		}),
		"polar": preset(func(c *Config) {
			c.Model = "transfer"
			c.Integrator = "rk4"
			c.Transfer.Polar = true
		}),
	},
}

func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
