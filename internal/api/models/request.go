package models

import (
	"time"

	"pv-battery-sizing/internal/config"
	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/model"
)

// SizingRequest is the request body for running one sizing optimization.
// The series must cover a full year at hourly resolution.
type SizingRequest struct {
	Params ParamsPayload `json:"params" binding:"required"`
	Series SeriesPayload `json:"series" binding:"required"`
	Solver SolverPayload `json:"solver,omitempty"`

	// CyclicSOC defaults to true when omitted.
	CyclicSOC       *bool `json:"cyclic_soc,omitempty"`
	IncludeSchedule bool  `json:"include_schedule,omitempty"`
}

// SeriesPayload carries the hourly boundary conditions.
type SeriesPayload struct {
	Load             []float64 `json:"load" binding:"required"`
	PVCapacityFactor []float64 `json:"pv_capacity_factor" binding:"required"`
	GridImportPrice  []float64 `json:"grid_import_price" binding:"required"`
	GridExportPrice  []float64 `json:"grid_export_price,omitempty"`
}

// ParamsPayload mirrors config.ParamsConfig for JSON requests.
type ParamsPayload struct {
	Name string `json:"name,omitempty"`

	PVUnitCost            float64 `json:"pv_unit_cost"`
	BatteryEnergyUnitCost float64 `json:"battery_energy_unit_cost"`
	BatteryPowerUnitCost  float64 `json:"battery_power_unit_cost,omitempty"`

	DiscountRate         float64 `json:"discount_rate,omitempty"`
	PVLifetimeYears      float64 `json:"pv_lifetime_years"`
	BatteryLifetimeYears float64 `json:"battery_lifetime_years"`

	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	SelfDischargeHourly float64 `json:"self_discharge_hourly,omitempty"`

	MaxRateFraction float64 `json:"max_rate_fraction"`
	MinSOC          float64 `json:"min_soc"`
	MaxSOC          float64 `json:"max_soc"`

	MaxBatteryCapacity float64 `json:"max_battery_capacity"`
	MaxPVCapacity      float64 `json:"max_pv_capacity,omitempty"`
	MaxGridImport      float64 `json:"max_grid_import,omitempty"`
}

// SolverPayload carries the solver budget knobs.
type SolverPayload struct {
	TimeLimitSeconds float64 `json:"time_limit_seconds,omitempty"`
	MaxNodes         int     `json:"max_nodes,omitempty"`
	RelGap           float64 `json:"rel_gap,omitempty"`
}

// CompareRequest runs the base scenario plus named parameter variations.
type CompareRequest struct {
	Base       SizingRequest `json:"base" binding:"required"`
	Variations []Variation   `json:"variations" binding:"required"`
}

type Variation struct {
	Name string `json:"name" binding:"required"`
	// Params overlays the base parameters: absent fields keep the base
	// value, explicit zeros override it.
	Params config.ParamsOverride `json:"params"`
}

func (p ParamsPayload) ToConfig() config.ParamsConfig {
	return config.ParamsConfig{
		Name:                  p.Name,
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

// NewParamsPayload converts a config parameter set into the JSON shape.
func NewParamsPayload(p config.ParamsConfig) ParamsPayload {
	return ParamsPayload{
		Name:                  p.Name,
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

// ToInputContext assembles the core input record from the request, applying
// the given parameter set (base or merged variation).
func (r SizingRequest) ToInputContext(params config.ParamsConfig) *model.InputContext {
	return &model.InputContext{
		Load:             r.Series.Load,
		PVCapacityFactor: r.Series.PVCapacityFactor,
		GridImportPrice:  r.Series.GridImportPrice,
		GridExportPrice:  r.Series.GridExportPrice,
		Params:           params.ToModelParams(),
	}
}

func (r SizingRequest) SolverOptions() milp.Options {
	return milp.Options{
		TimeLimit: time.Duration(r.Solver.TimeLimitSeconds * float64(time.Second)),
		MaxNodes:  r.Solver.MaxNodes,
		RelGap:    r.Solver.RelGap,
	}
}

// Cyclic resolves the cyclic_soc toggle with its default.
func (r SizingRequest) Cyclic() bool {
	if r.CyclicSOC == nil {
		return true
	}
	return *r.CyclicSOC
}
