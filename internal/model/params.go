package model

import "math"

// TechnoEconomicParams defines the scalar techno-economic inputs of a sizing run.
// Units:
// - unit costs: currency per unit of capacity (energy or power)
// - DiscountRate: fraction per year
// - lifetimes: years
// - efficiencies: 0..1
// - MaxRateFraction: fraction of energy capacity per hour
// - SOC bounds: fraction 0..1
type TechnoEconomicParams struct {
	PVUnitCost            float64
	BatteryEnergyUnitCost float64
	BatteryPowerUnitCost  float64

	DiscountRate         float64
	PVLifetimeYears      float64
	BatteryLifetimeYears float64

	ChargeEfficiency    float64
	DischargeEfficiency float64
	// SelfDischargeHourly is the fraction of stored energy lost per hour.
	// Zero disables self-discharge.
	SelfDischargeHourly float64

	MaxRateFraction float64
	MinSOC          float64
	MaxSOC          float64

	// MaxBatteryCapacity bounds the battery search space. It must be positive:
	// the rate-limit linearization derives its big-M from it.
	MaxBatteryCapacity float64
	// MaxPVCapacity caps installable PV capacity. Zero means uncapped.
	MaxPVCapacity float64
	// MaxGridImport caps hourly grid import. Zero means uncapped.
	MaxGridImport float64
}

func (p TechnoEconomicParams) Validate() error {
	if p.PVUnitCost < 0 {
		return &ValidationError{Field: "PVUnitCost", Reason: "must be >= 0"}
	}
	if p.BatteryEnergyUnitCost < 0 {
		return &ValidationError{Field: "BatteryEnergyUnitCost", Reason: "must be >= 0"}
	}
	if p.BatteryPowerUnitCost < 0 {
		return &ValidationError{Field: "BatteryPowerUnitCost", Reason: "must be >= 0"}
	}
	if p.DiscountRate < 0 {
		return &ValidationError{Field: "DiscountRate", Reason: "must be >= 0"}
	}
	if p.PVLifetimeYears <= 0 {
		return &ValidationError{Field: "PVLifetimeYears", Reason: "must be > 0"}
	}
	if p.BatteryLifetimeYears <= 0 {
		return &ValidationError{Field: "BatteryLifetimeYears", Reason: "must be > 0"}
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return &ValidationError{Field: "ChargeEfficiency", Reason: "must be in (0, 1]"}
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return &ValidationError{Field: "DischargeEfficiency", Reason: "must be in (0, 1]"}
	}
	if p.SelfDischargeHourly < 0 || p.SelfDischargeHourly >= 1 {
		return &ValidationError{Field: "SelfDischargeHourly", Reason: "must be in [0, 1)"}
	}
	if p.MaxRateFraction <= 0 || p.MaxRateFraction > 1 {
		return &ValidationError{Field: "MaxRateFraction", Reason: "must be in (0, 1]"}
	}
	if p.MinSOC < 0 || p.MinSOC > 1 || p.MaxSOC < 0 || p.MaxSOC > 1 || p.MinSOC > p.MaxSOC {
		return &ValidationError{Field: "MinSOC/MaxSOC", Reason: "must satisfy 0<=MinSOC<=MaxSOC<=1"}
	}
	if p.MaxBatteryCapacity <= 0 {
		return &ValidationError{Field: "MaxBatteryCapacity", Reason: "must be > 0"}
	}
	if p.MaxPVCapacity < 0 {
		return &ValidationError{Field: "MaxPVCapacity", Reason: "must be >= 0"}
	}
	if p.MaxGridImport < 0 {
		return &ValidationError{Field: "MaxGridImport", Reason: "must be >= 0"}
	}
	return nil
}

// CRF is the capital recovery factor: it converts a lump-sum investment into
// an equivalent uniform annual payment over the asset lifetime. A zero
// discount rate degenerates to straight-line annualization 1/n.
func CRF(rate, lifetimeYears float64) float64 {
	if rate == 0 {
		return 1 / lifetimeYears
	}
	f := math.Pow(1+rate, lifetimeYears)
	return rate * f / (f - 1)
}

func (p TechnoEconomicParams) PVCRF() float64 {
	return CRF(p.DiscountRate, p.PVLifetimeYears)
}

func (p TechnoEconomicParams) BatteryCRF() float64 {
	return CRF(p.DiscountRate, p.BatteryLifetimeYears)
}

// PVAnnualUnitCost is the annualized cost per unit of PV capacity.
func (p TechnoEconomicParams) PVAnnualUnitCost() float64 {
	return p.PVCRF() * p.PVUnitCost
}

// BatteryAnnualUnitCost is the annualized cost per unit of battery energy
// capacity. The converter cost is folded in through the rated power implied by
// MaxRateFraction.
func (p TechnoEconomicParams) BatteryAnnualUnitCost() float64 {
	return p.BatteryCRF() * (p.BatteryEnergyUnitCost + p.BatteryPowerUnitCost*p.MaxRateFraction)
}
