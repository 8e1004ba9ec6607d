package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pv-battery-sizing/internal/config"
	"pv-battery-sizing/internal/data"
)

// Fetches the published reference techno-economic parameters and writes
// them out as a params YAML usable by the CLI and API.
func main() {
	baseURL := flag.String("url", "", "Reference database base URL (default production)")
	version := flag.String("version", "latest", "Reference database release version")
	outPath := flag.String("out", "examples/params/reference.yaml", "Output params YAML path")
	flag.Parse()

	client := data.NewTechDBClient(*baseURL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ref, err := client.FetchParameters(ctx, *version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}

	params := config.ParamsConfig{
		Name:                  fmt.Sprintf("reference-%s", ref.Version),
		PVUnitCost:            ref.PV.UnitCost,
		PVLifetimeYears:       ref.PV.LifetimeYears,
		BatteryEnergyUnitCost: ref.Battery.EnergyUnitCost,
		BatteryPowerUnitCost:  ref.Battery.PowerUnitCost,
		BatteryLifetimeYears:  ref.Battery.LifetimeYears,
		ChargeEfficiency:      ref.Battery.ChargeEfficiency,
		DischargeEfficiency:   ref.Battery.DischargeEfficiency,
		SelfDischargeHourly:   ref.Battery.SelfDischargeHourly,
	}

	if err := config.WriteParamsFile(*outPath, params); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote reference parameters (version %s) to %s\n", ref.Version, *outPath)
}
