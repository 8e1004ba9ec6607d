package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"time"

	"pv-battery-sizing/internal/analysis"
	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/milp/bnb"
	"pv-battery-sizing/internal/model"
	"pv-battery-sizing/internal/sizing"
)

// Demo:
// - Build a synthetic hourly year (sinusoidal load, clear-sky PV profile, day/night tariff)
// - Size the PV and battery with the default solver budget
// - Print the resulting capacities, cost breakdown and dispatch metrics
func main() {
	timeLimit := flag.Duration("time-limit", 10*time.Minute, "Solver time limit (0 = unlimited)")
	outCSV := flag.String("out", "", "Optional path to write the schedule CSV")
	flag.Parse()

	in := syntheticYear()
	if err := in.ValidateFullYear(); err != nil {
		panic(err)
	}

	solver := bnb.New(milp.Options{TimeLimit: *timeLimit})
	res, err := sizing.Run(context.Background(), in, solver, sizing.DefaultBuildOptions())
	if err != nil {
		panic(err)
	}

	m := analysis.Compute(in, res)
	fmt.Printf("PV capacity:      %.2f kW\n", res.PVCapacity)
	fmt.Printf("Battery capacity: %.2f kWh\n", res.BatteryCapacity)
	fmt.Printf("Annualized cost:  %.2f\n", res.TotalAnnualizedCost)
	fmt.Printf("Self-sufficiency: %.1f%%\n", 100*m.SelfSufficiency)
	fmt.Printf("Savings vs grid:  %.2f\n", m.Savings)

	if *outCSV != "" {
		if err := sizing.WriteScheduleCSV(*outCSV, res.Schedule); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Schedule), *outCSV)
	}
}

// syntheticYear builds a plausible residential year: load peaking in the
// evening, PV capacity factor following daylight with a seasonal swing, and
// a two-rate tariff.
func syntheticYear() *model.InputContext {
	h := model.HoursPerYear
	load := make([]float64, h)
	cf := make([]float64, h)
	imp := make([]float64, h)

	for t := 0; t < h; t++ {
		hour := t % 24
		day := t / 24

		// Evening-peaked load with mild seasonal variation.
		base := 0.6 + 0.3*math.Cos(2*math.Pi*float64(day)/365)
		evening := 0.8 * math.Exp(-math.Pow(float64(hour)-19, 2)/8)
		morning := 0.3 * math.Exp(-math.Pow(float64(hour)-7, 2)/4)
		load[t] = base + evening + morning

		// Daylight bell centered at noon, scaled by season.
		season := 0.55 + 0.45*math.Cos(2*math.Pi*(float64(day)-172)/365)
		if hour >= 6 && hour <= 18 {
			cf[t] = season * math.Sin(math.Pi*float64(hour-6)/12)
		}

		// Two-rate tariff: expensive 07:00-21:00.
		if hour >= 7 && hour < 21 {
			imp[t] = 0.30
		} else {
			imp[t] = 0.18
		}
	}

	return &model.InputContext{
		Load:             load,
		PVCapacityFactor: cf,
		GridImportPrice:  imp,
		Params: model.TechnoEconomicParams{
			PVUnitCost:            900,
			BatteryEnergyUnitCost: 350,
			BatteryPowerUnitCost:  80,
			DiscountRate:          0.05,
			PVLifetimeYears:       25,
			BatteryLifetimeYears:  12,
			ChargeEfficiency:      0.95,
			DischargeEfficiency:   0.95,
			SelfDischargeHourly:   0.0001,
			MaxRateFraction:       0.5,
			MinSOC:                0.1,
			MaxSOC:                0.9,
			MaxBatteryCapacity:    50,
			MaxPVCapacity:         20,
		},
	}
}
