package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() TechnoEconomicParams {
	return TechnoEconomicParams{
		PVUnitCost:            900,
		BatteryEnergyUnitCost: 350,
		BatteryPowerUnitCost:  80,
		DiscountRate:          0.05,
		PVLifetimeYears:       25,
		BatteryLifetimeYears:  12,
		ChargeEfficiency:      0.95,
		DischargeEfficiency:   0.95,
		MaxRateFraction:       0.5,
		MinSOC:                0.1,
		MaxSOC:                0.9,
		MaxBatteryCapacity:    100,
	}
}

func TestCRF(t *testing.T) {
	// Zero discount rate degenerates to straight-line 1/n.
	assert.InDelta(t, 0.04, CRF(0, 25), 1e-12)
	assert.InDelta(t, 0.1, CRF(0, 10), 1e-12)

	// r=0.05, n=25: 0.05*1.05^25 / (1.05^25 - 1) = 0.0709525...
	assert.InDelta(t, 0.0709525, CRF(0.05, 25), 1e-6)

	// One-year lifetime repays principal plus one year of interest.
	assert.InDelta(t, 1.05, CRF(0.05, 1), 1e-12)
}

func TestAnnualUnitCosts(t *testing.T) {
	p := validParams()

	assert.InDelta(t, CRF(0.05, 25)*900, p.PVAnnualUnitCost(), 1e-9)

	// Converter cost folds in through the rated power implied by the rate
	// fraction: 350 + 80*0.5 = 390 per unit of energy capacity.
	assert.InDelta(t, CRF(0.05, 12)*390, p.BatteryAnnualUnitCost(), 1e-9)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, validParams().Validate())

	tests := []struct {
		name   string
		mutate func(*TechnoEconomicParams)
		field  string
	}{
		{"negative pv cost", func(p *TechnoEconomicParams) { p.PVUnitCost = -1 }, "PVUnitCost"},
		{"negative discount rate", func(p *TechnoEconomicParams) { p.DiscountRate = -0.01 }, "DiscountRate"},
		{"zero pv lifetime", func(p *TechnoEconomicParams) { p.PVLifetimeYears = 0 }, "PVLifetimeYears"},
		{"charge efficiency above one", func(p *TechnoEconomicParams) { p.ChargeEfficiency = 1.1 }, "ChargeEfficiency"},
		{"zero discharge efficiency", func(p *TechnoEconomicParams) { p.DischargeEfficiency = 0 }, "DischargeEfficiency"},
		{"full self discharge", func(p *TechnoEconomicParams) { p.SelfDischargeHourly = 1 }, "SelfDischargeHourly"},
		{"zero rate fraction", func(p *TechnoEconomicParams) { p.MaxRateFraction = 0 }, "MaxRateFraction"},
		{"inverted soc window", func(p *TechnoEconomicParams) { p.MinSOC, p.MaxSOC = 0.9, 0.1 }, "MinSOC/MaxSOC"},
		{"zero battery cap", func(p *TechnoEconomicParams) { p.MaxBatteryCapacity = 0 }, "MaxBatteryCapacity"},
		{"negative pv cap", func(p *TechnoEconomicParams) { p.MaxPVCapacity = -5 }, "MaxPVCapacity"},
		{"negative import cap", func(p *TechnoEconomicParams) { p.MaxGridImport = -1 }, "MaxGridImport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
