package model

import "fmt"

// HoursPerYear is the optimization horizon: one year at hourly resolution.
const HoursPerYear = 8760

// ValidationError reports an input that cannot produce a well-formed model.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// InputContext is the immutable input bundle of one sizing run: the hourly
// boundary-condition series plus the scalar techno-economic parameters.
// It is assembled by an external loader; the optimization core only reads it.
type InputContext struct {
	// Load is the hourly demand in energy units per hour.
	Load []float64
	// PVCapacityFactor is the hourly ratio of PV output to rated capacity, 0..1.
	PVCapacityFactor []float64
	// GridImportPrice is the hourly cost per unit of imported energy.
	GridImportPrice []float64
	// GridExportPrice is the hourly revenue per unit of exported energy.
	// Nil means no export remuneration (treated as all zero).
	GridExportPrice []float64

	Params TechnoEconomicParams
}

// Hours is the horizon length of this context.
func (c *InputContext) Hours() int { return len(c.Load) }

// ExportPriceAt tolerates a nil export series.
func (c *InputContext) ExportPriceAt(t int) float64 {
	if c.GridExportPrice == nil {
		return 0
	}
	return c.GridExportPrice[t]
}

// Validate checks structural completeness: every required series present, all
// series equally sized, parameters in their physical domains. It does not pin
// the horizon to a year; see ValidateFullYear.
func (c *InputContext) Validate() error {
	if len(c.Load) == 0 {
		return &ValidationError{Field: "Load", Reason: "series is missing"}
	}
	h := len(c.Load)
	if len(c.PVCapacityFactor) != h {
		return &ValidationError{
			Field:  "PVCapacityFactor",
			Reason: fmt.Sprintf("has %d entries, want %d", len(c.PVCapacityFactor), h),
		}
	}
	if len(c.GridImportPrice) != h {
		return &ValidationError{
			Field:  "GridImportPrice",
			Reason: fmt.Sprintf("has %d entries, want %d", len(c.GridImportPrice), h),
		}
	}
	if c.GridExportPrice != nil && len(c.GridExportPrice) != h {
		return &ValidationError{
			Field:  "GridExportPrice",
			Reason: fmt.Sprintf("has %d entries, want %d", len(c.GridExportPrice), h),
		}
	}
	return c.Params.Validate()
}

// ValidateFullYear additionally requires the canonical 8760-hour horizon.
// Production loaders use this; Validate alone suffices for the core.
func (c *InputContext) ValidateFullYear() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Load) != HoursPerYear {
		return &ValidationError{
			Field:  "Load",
			Reason: fmt.Sprintf("has %d entries, want %d", len(c.Load), HoursPerYear),
		}
	}
	return nil
}
