package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk scenario configuration (YAML).
type Config struct {
	// Optional: load techno-economic parameters from a separate YAML
	// (e.g. examples/params/*.yaml). Fields present in the scenario's own
	// params section then override the preset, including explicit zeros.
	ParamsFile string         `yaml:"params_file"`
	Overrides  ParamsOverride `yaml:"params"`
	Solver     SolverConfig   `yaml:"solver"`
	// Params is the resolved parameter set: the preset, if any, with the
	// scenario overrides applied. Populated by LoadUnchecked.
	Params ParamsConfig `yaml:"-"`
	// CyclicSOC defaults to true: the battery schedule is periodic with the
	// year instead of starting from a free initial charge.
	CyclicSOC *bool `yaml:"cyclic_soc"`
}

type ParamsConfig struct {
	Name string `yaml:"name"`

	PVUnitCost            float64 `yaml:"pv_unit_cost"`
	BatteryEnergyUnitCost float64 `yaml:"battery_energy_unit_cost"`
	BatteryPowerUnitCost  float64 `yaml:"battery_power_unit_cost"`

	DiscountRate         float64 `yaml:"discount_rate"`
	PVLifetimeYears      float64 `yaml:"pv_lifetime_years"`
	BatteryLifetimeYears float64 `yaml:"battery_lifetime_years"`

	ChargeEfficiency    float64 `yaml:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency"`
	SelfDischargeHourly float64 `yaml:"self_discharge_hourly"`

	MaxRateFraction float64 `yaml:"max_rate_fraction"`
	MinSOC          float64 `yaml:"min_soc"`
	MaxSOC          float64 `yaml:"max_soc"`

	MaxBatteryCapacity float64 `yaml:"max_battery_capacity"`
	MaxPVCapacity      float64 `yaml:"max_pv_capacity"`
	MaxGridImport      float64 `yaml:"max_grid_import"`
}

type SolverConfig struct {
	TimeLimitSeconds float64 `yaml:"time_limit_seconds"`
	MaxNodes         int     `yaml:"max_nodes"`
	RelGap           float64 `yaml:"rel_gap"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	var base ParamsConfig
	if c.ParamsFile != "" {
		paramsPath := c.ParamsFile
		if !filepath.IsAbs(paramsPath) {
			// Prefer interpreting relative paths as relative to the config
			// file directory, falling back to cwd-relative if that is absent.
			cand := filepath.Join(filepath.Dir(path), paramsPath)
			if _, err := os.Stat(cand); err == nil {
				paramsPath = cand
			}
		}
		base, err = LoadParamsFile(paramsPath)
		if err != nil {
			return nil, err
		}
	}
	c.Params = c.Overrides.ApplyTo(base)
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Params.ToModelParams().Validate(); err != nil {
		return fmt.Errorf("params config invalid: %w", err)
	}
	if c.Solver.TimeLimitSeconds < 0 {
		return errors.New("solver.time_limit_seconds must be >= 0")
	}
	if c.Solver.MaxNodes < 0 {
		return errors.New("solver.max_nodes must be >= 0")
	}
	return nil
}

// Cyclic resolves the cyclic_soc toggle with its default.
func (c *Config) Cyclic() bool {
	if c.CyclicSOC == nil {
		return true
	}
	return *c.CyclicSOC
}

func (p ParamsConfig) ToModelParams() model.TechnoEconomicParams {
	return model.TechnoEconomicParams{
		PVUnitCost:            p.PVUnitCost,
		BatteryEnergyUnitCost: p.BatteryEnergyUnitCost,
		BatteryPowerUnitCost:  p.BatteryPowerUnitCost,
		DiscountRate:          p.DiscountRate,
		PVLifetimeYears:       p.PVLifetimeYears,
		BatteryLifetimeYears:  p.BatteryLifetimeYears,
		ChargeEfficiency:      p.ChargeEfficiency,
		DischargeEfficiency:   p.DischargeEfficiency,
		SelfDischargeHourly:   p.SelfDischargeHourly,
		MaxRateFraction:       p.MaxRateFraction,
		MinSOC:                p.MinSOC,
		MaxSOC:                p.MaxSOC,
		MaxBatteryCapacity:    p.MaxBatteryCapacity,
		MaxPVCapacity:         p.MaxPVCapacity,
		MaxGridImport:         p.MaxGridImport,
	}
}

func (s SolverConfig) ToOptions() milp.Options {
	return milp.Options{
		TimeLimit: time.Duration(s.TimeLimitSeconds * float64(time.Second)),
		MaxNodes:  s.MaxNodes,
		RelGap:    s.RelGap,
	}
}

type paramsFileWrapper struct {
	Params ParamsConfig `yaml:"params"`
}

// LoadParamsFile reads a standalone params preset YAML.
func LoadParamsFile(path string) (ParamsConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParamsConfig{}, err
	}
	var w paramsFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ParamsConfig{}, err
	}
	return w.Params, nil
}

// WriteParamsFile writes a params preset YAML, e.g. one fetched from the
// reference database.
func WriteParamsFile(path string, p ParamsConfig) error {
	raw, err := yaml.Marshal(paramsFileWrapper{Params: p})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ParamsOverride is a partial parameter set: nil fields keep the base value,
// set fields replace it, explicit zeros included. It is the shape of a
// scenario's params section and of API variation overrides.
type ParamsOverride struct {
	Name string `yaml:"name" json:"name,omitempty"`

	PVUnitCost            *float64 `yaml:"pv_unit_cost" json:"pv_unit_cost,omitempty"`
	BatteryEnergyUnitCost *float64 `yaml:"battery_energy_unit_cost" json:"battery_energy_unit_cost,omitempty"`
	BatteryPowerUnitCost  *float64 `yaml:"battery_power_unit_cost" json:"battery_power_unit_cost,omitempty"`

	DiscountRate         *float64 `yaml:"discount_rate" json:"discount_rate,omitempty"`
	PVLifetimeYears      *float64 `yaml:"pv_lifetime_years" json:"pv_lifetime_years,omitempty"`
	BatteryLifetimeYears *float64 `yaml:"battery_lifetime_years" json:"battery_lifetime_years,omitempty"`

	ChargeEfficiency    *float64 `yaml:"charge_efficiency" json:"charge_efficiency,omitempty"`
	DischargeEfficiency *float64 `yaml:"discharge_efficiency" json:"discharge_efficiency,omitempty"`
	SelfDischargeHourly *float64 `yaml:"self_discharge_hourly" json:"self_discharge_hourly,omitempty"`

	MaxRateFraction *float64 `yaml:"max_rate_fraction" json:"max_rate_fraction,omitempty"`
	MinSOC          *float64 `yaml:"min_soc" json:"min_soc,omitempty"`
	MaxSOC          *float64 `yaml:"max_soc" json:"max_soc,omitempty"`

	MaxBatteryCapacity *float64 `yaml:"max_battery_capacity" json:"max_battery_capacity,omitempty"`
	MaxPVCapacity      *float64 `yaml:"max_pv_capacity" json:"max_pv_capacity,omitempty"`
	MaxGridImport      *float64 `yaml:"max_grid_import" json:"max_grid_import,omitempty"`
}

func overlay(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// ApplyTo returns base with every set field of the override applied.
func (o ParamsOverride) ApplyTo(base ParamsConfig) ParamsConfig {
	out := base
	if o.Name != "" {
		out.Name = o.Name
	}
	overlay(&out.PVUnitCost, o.PVUnitCost)
	overlay(&out.BatteryEnergyUnitCost, o.BatteryEnergyUnitCost)
	overlay(&out.BatteryPowerUnitCost, o.BatteryPowerUnitCost)
	overlay(&out.DiscountRate, o.DiscountRate)
	overlay(&out.PVLifetimeYears, o.PVLifetimeYears)
	overlay(&out.BatteryLifetimeYears, o.BatteryLifetimeYears)
	overlay(&out.ChargeEfficiency, o.ChargeEfficiency)
	overlay(&out.DischargeEfficiency, o.DischargeEfficiency)
	overlay(&out.SelfDischargeHourly, o.SelfDischargeHourly)
	overlay(&out.MaxRateFraction, o.MaxRateFraction)
	overlay(&out.MinSOC, o.MinSOC)
	overlay(&out.MaxSOC, o.MaxSOC)
	overlay(&out.MaxBatteryCapacity, o.MaxBatteryCapacity)
	overlay(&out.MaxPVCapacity, o.MaxPVCapacity)
	overlay(&out.MaxGridImport, o.MaxGridImport)
	return out
}

// LoadParamsOverlay reads a params YAML as a partial override, so a preset
// file can adjust a handful of fields without zeroing the rest.
func LoadParamsOverlay(path string) (ParamsOverride, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParamsOverride{}, err
	}
	var w struct {
		Params ParamsOverride `yaml:"params"`
	}
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ParamsOverride{}, err
	}
	return w.Params, nil
}
