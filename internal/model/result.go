package model

import "time"

// CostBreakdown splits the annualized total cost into its objective terms.
type CostBreakdown struct {
	PVInvestment      float64
	BatteryInvestment float64
	GridImportCost    float64
	ExportRevenue     float64
}

// Total is the annualized system cost: investment plus net operating cost.
func (b CostBreakdown) Total() float64 {
	return b.PVInvestment + b.BatteryInvestment + b.GridImportCost - b.ExportRevenue
}

// HourRow is one hour of the optimal dispatch schedule.
type HourRow struct {
	Hour int

	Load         float64
	PVGeneration float64

	SOC        float64
	Charge     float64
	Discharge  float64
	GridImport float64
	GridExport float64

	Action Action
}

// SizingResult is the outcome of one sizing run: the optimal capacities, the
// cost breakdown recomputed term by term, and the full hourly schedule.
type SizingResult struct {
	PVCapacity      float64
	BatteryCapacity float64

	TotalAnnualizedCost float64
	Breakdown           CostBreakdown

	Schedule []HourRow

	// Suboptimal marks a best-incumbent result returned after the solver
	// budget ran out before proven optimality.
	Suboptimal bool
	// Gap is the relative optimality gap reported by the solver.
	Gap     float64
	Runtime time.Duration
}

// TotalGridImport sums imported energy over the horizon.
func (r *SizingResult) TotalGridImport() float64 {
	sum := 0.0
	for _, row := range r.Schedule {
		sum += row.GridImport
	}
	return sum
}

// TotalLoad sums demand over the horizon.
func (r *SizingResult) TotalLoad() float64 {
	sum := 0.0
	for _, row := range r.Schedule {
		sum += row.Load
	}
	return sum
}
