package sizing

import (
	"fmt"
	"math"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/model"
)

// noiseTol clips solver noise: tiny negative flows become zero.
const noiseTol = 1e-9

// ExtractionError means extraction was attempted on a solve that carries no
// usable assignment.
type ExtractionError struct {
	Status milp.Status
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract result from %s solve", e.Status)
}

// Extract reads the solved variable values back out of the model, cleans
// floating-point noise, recomputes the cost breakdown term by term and
// assembles the SizingResult. Only optimal and time-limit-with-incumbent
// solves are accepted.
func Extract(b *Built, sol *milp.Solution) (*model.SizingResult, error) {
	if !sol.HasValues() {
		status := milp.StatusError
		if sol != nil {
			status = sol.Status
		}
		return nil, &ExtractionError{Status: status}
	}

	in := b.Input
	idx := b.Index
	p := in.Params
	h := in.Hours()

	val := func(v int) float64 {
		x := sol.Values[v]
		if x < 0 && x > -noiseTol {
			return 0
		}
		return x
	}

	res := &model.SizingResult{
		PVCapacity:      val(idx.PVCap),
		BatteryCapacity: val(idx.BattCap),
		Schedule:        make([]model.HourRow, h),
		Suboptimal:      sol.Status == milp.StatusTimeLimit,
		Gap:             sol.Gap,
		Runtime:         sol.Runtime,
	}

	importCost := 0.0
	exportRevenue := 0.0
	for t := 0; t < h; t++ {
		charge := val(idx.Charge[t])
		discharge := val(idx.Discharge[t])
		imp := val(idx.GridImport[t])
		exp := val(idx.GridExport[t])

		// The binary can come back as 0.9999...; round it and use it to strip
		// residual simultaneity noise from the opposing flow.
		if math.Round(sol.Values[idx.ChargeMode[t]]) == 1 {
			if discharge < noiseTol {
				discharge = 0
			}
		} else if charge < noiseTol {
			charge = 0
		}

		importCost += in.GridImportPrice[t] * imp
		exportRevenue += in.ExportPriceAt(t) * exp

		res.Schedule[t] = model.HourRow{
			Hour:         t,
			Load:         in.Load[t],
			PVGeneration: res.PVCapacity * in.PVCapacityFactor[t],
			SOC:          val(idx.SOC[t]),
			Charge:       charge,
			Discharge:    discharge,
			GridImport:   imp,
			GridExport:   exp,
			Action:       model.ActionFromFlows(charge, discharge),
		}
	}

	res.Breakdown = model.CostBreakdown{
		PVInvestment:      p.PVAnnualUnitCost() * res.PVCapacity,
		BatteryInvestment: p.BatteryAnnualUnitCost() * res.BatteryCapacity,
		GridImportCost:    importCost,
		ExportRevenue:     exportRevenue,
	}
	res.TotalAnnualizedCost = res.Breakdown.Total()

	return res, nil
}
