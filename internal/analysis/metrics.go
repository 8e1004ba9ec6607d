package analysis

import (
	"pv-battery-sizing/internal/model"
)

// Metrics summarizes a sizing result against its inputs.
type Metrics struct {
	// LCOE is the total annualized cost divided by the yearly demand.
	LCOE float64
	// SelfSufficiency is the fraction of demand not covered by grid imports.
	SelfSufficiency float64

	// BaselineImportCost is the yearly cost of serving the whole load from
	// the grid with no PV and no battery.
	BaselineImportCost float64
	// Savings is the baseline cost minus the optimized total cost.
	Savings float64

	TotalLoad       float64
	TotalGridImport float64
	TotalGridExport float64
}

// Compute derives the reporting metrics from a solved run.
func Compute(in *model.InputContext, res *model.SizingResult) Metrics {
	m := Metrics{}

	for t, row := range res.Schedule {
		m.TotalLoad += row.Load
		m.TotalGridImport += row.GridImport
		m.TotalGridExport += row.GridExport
		m.BaselineImportCost += in.GridImportPrice[t] * row.Load
	}

	if m.TotalLoad > 0 {
		m.LCOE = res.TotalAnnualizedCost / m.TotalLoad
		m.SelfSufficiency = (m.TotalLoad - m.TotalGridImport) / m.TotalLoad
	}
	m.Savings = m.BaselineImportCost - res.TotalAnnualizedCost

	return m
}
