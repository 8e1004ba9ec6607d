package models

import (
	"time"

	"pv-battery-sizing/internal/analysis"
	"pv-battery-sizing/internal/model"
)

// SizingResponse is the response from one sizing run.
type SizingResponse struct {
	ID       string         `json:"id,omitempty"`
	Status   string         `json:"status"` // "optimal" or "suboptimal"
	Summary  SizingSummary  `json:"summary"`
	Metrics  MetricsPayload `json:"metrics"`
	Schedule []ScheduleRow  `json:"schedule,omitempty"`
}

// SizingSummary contains the headline result figures.
type SizingSummary struct {
	PVCapacity          float64          `json:"pv_capacity"`
	BatteryCapacity     float64          `json:"battery_capacity"`
	TotalAnnualizedCost float64          `json:"total_annualized_cost"`
	Breakdown           BreakdownPayload `json:"cost_breakdown"`
	Suboptimal          bool             `json:"suboptimal"`
	Gap                 float64          `json:"gap,omitempty"`
	RuntimeSeconds      float64          `json:"runtime_seconds"`
}

type BreakdownPayload struct {
	PVInvestment      float64 `json:"pv_investment"`
	BatteryInvestment float64 `json:"battery_investment"`
	GridImportCost    float64 `json:"grid_import_cost"`
	ExportRevenue     float64 `json:"export_revenue"`
}

type MetricsPayload struct {
	LCOE               float64 `json:"lcoe"`
	SelfSufficiency    float64 `json:"self_sufficiency"`
	BaselineImportCost float64 `json:"baseline_import_cost"`
	Savings            float64 `json:"savings"`
}

// ScheduleRow is one hour of the dispatch schedule.
type ScheduleRow struct {
	Hour         int     `json:"hour"`
	Load         float64 `json:"load"`
	PVGeneration float64 `json:"pv_generation"`
	SOC          float64 `json:"soc"`
	Charge       float64 `json:"charge"`
	Discharge    float64 `json:"discharge"`
	GridImport   float64 `json:"grid_import"`
	GridExport   float64 `json:"grid_export"`
	Action       string  `json:"action"`
}

// CompareResponse ranks the compared scenarios by savings.
type CompareResponse struct {
	Comparison []ComparisonEntry `json:"comparison"`
}

type ComparisonEntry struct {
	Name    string         `json:"name"`
	Summary SizingSummary  `json:"summary"`
	Metrics MetricsPayload `json:"metrics"`
}

// RunInfo summarizes a stored run for listings.
type RunInfo struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	PVCapacity          float64   `json:"pv_capacity"`
	BatteryCapacity     float64   `json:"battery_capacity"`
	TotalAnnualizedCost float64   `json:"total_annualized_cost"`
	Suboptimal          bool      `json:"suboptimal"`
}

// ParamsPresetInfo describes one parameter preset file.
type ParamsPresetInfo struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	File   string        `json:"file"`
	Params ParamsPayload `json:"params"`
}

// DatasetInfo describes one boundary-condition CSV.
type DatasetInfo struct {
	ID   string `json:"id"`
	File string `json:"file"`
	Size int64  `json:"size_bytes"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSummary converts a core result into the response shape.
func NewSummary(res *model.SizingResult) SizingSummary {
	return SizingSummary{
		PVCapacity:          res.PVCapacity,
		BatteryCapacity:     res.BatteryCapacity,
		TotalAnnualizedCost: res.TotalAnnualizedCost,
		Breakdown: BreakdownPayload{
			PVInvestment:      res.Breakdown.PVInvestment,
			BatteryInvestment: res.Breakdown.BatteryInvestment,
			GridImportCost:    res.Breakdown.GridImportCost,
			ExportRevenue:     res.Breakdown.ExportRevenue,
		},
		Suboptimal:     res.Suboptimal,
		Gap:            res.Gap,
		RuntimeSeconds: res.Runtime.Seconds(),
	}
}

// NewMetrics converts analysis metrics into the response shape.
func NewMetrics(m analysis.Metrics) MetricsPayload {
	return MetricsPayload{
		LCOE:               m.LCOE,
		SelfSufficiency:    m.SelfSufficiency,
		BaselineImportCost: m.BaselineImportCost,
		Savings:            m.Savings,
	}
}

// NewSchedule converts the core schedule into the response shape.
func NewSchedule(rows []model.HourRow) []ScheduleRow {
	out := make([]ScheduleRow, len(rows))
	for i, r := range rows {
		out[i] = ScheduleRow{
			Hour:         r.Hour,
			Load:         r.Load,
			PVGeneration: r.PVGeneration,
			SOC:          r.SOC,
			Charge:       r.Charge,
			Discharge:    r.Discharge,
			GridImport:   r.GridImport,
			GridExport:   r.GridExport,
			Action:       string(r.Action),
		}
	}
	return out
}
