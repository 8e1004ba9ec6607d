package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"pv-battery-sizing/internal/analysis"
	"pv-battery-sizing/internal/config"
	"pv-battery-sizing/internal/data"
	"pv-battery-sizing/internal/milp/bnb"
	"pv-battery-sizing/internal/model"
	"pv-battery-sizing/internal/sizing"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "size":
		cmdSize(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli size --data year.csv --config examples/config.yaml --out results/schedule.csv")
	fmt.Println("  cli compare --data year.csv --config examples/config.yaml examples/params/*.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - size finds the cost-optimal PV and battery capacities for a full hourly year")
	fmt.Println("  - compare ranks parameter presets by annual savings against grid-only supply")
}

func cmdSize(args []string) {
	fs := flag.NewFlagSet("size", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to hourly boundary-condition CSV (8760 rows)")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "", "Optional output CSV path for the hourly schedule")
	_ = fs.Parse(args)

	if *dataPath == "" || *cfgPath == "" {
		fmt.Println("--data and --config are required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	series, err := data.LoadHourlyCSV(*dataPath)
	if err != nil {
		fatal(err)
	}

	in := series.ToInputContext(cfg.Params.ToModelParams())
	res, err := run(in, cfg)
	if err != nil {
		fatal(err)
	}

	printSummary(res, analysis.Compute(in, res))

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			fatal(err)
		}
		if err := sizing.WriteScheduleCSV(*outPath, res.Schedule); err != nil {
			fatal(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Schedule), *outPath)
	}
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to hourly boundary-condition CSV (8760 rows)")
	cfgPath := fs.String("config", "", "Path to YAML config with base parameters")
	_ = fs.Parse(args)

	if *dataPath == "" || *cfgPath == "" || fs.NArg() == 0 {
		fmt.Println("--data, --config and at least one params YAML are required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	series, err := data.LoadHourlyCSV(*dataPath)
	if err != nil {
		fatal(err)
	}

	scenarios := make([]analysis.ScenarioResult, 0, fs.NArg()+1)

	baseIn := series.ToInputContext(cfg.Params.ToModelParams())
	baseRes, err := run(baseIn, cfg)
	if err != nil {
		fatal(fmt.Errorf("base: %w", err))
	}
	scenarios = append(scenarios, analysis.ScenarioResult{
		Name:    "base",
		Result:  baseRes,
		Metrics: analysis.Compute(baseIn, baseRes),
	})

	for _, path := range fs.Args() {
		override, err := config.LoadParamsOverlay(path)
		if err != nil {
			fatal(err)
		}
		name := override.Name
		if name == "" {
			name = filepath.Base(path)
		}
		merged := override.ApplyTo(cfg.Params)
		in := series.ToInputContext(merged.ToModelParams())
		res, err := run(in, cfg)
		if err != nil {
			fatal(fmt.Errorf("%s: %w", name, err))
		}
		scenarios = append(scenarios, analysis.ScenarioResult{
			Name:    name,
			Result:  res,
			Metrics: analysis.Compute(in, res),
		})
	}

	fmt.Println("Scenarios ranked by annual savings:")
	for i, s := range analysis.RankBySavings(scenarios) {
		fmt.Printf("\n#%d %s\n", i+1, s.Name)
		printSummary(s.Result, s.Metrics)
	}
}

func run(in *model.InputContext, cfg *config.Config) (*model.SizingResult, error) {
	if err := in.ValidateFullYear(); err != nil {
		return nil, err
	}
	solver := bnb.New(cfg.Solver.ToOptions())
	return sizing.Run(context.Background(), in, solver, sizing.BuildOptions{CyclicSOC: cfg.Cyclic()})
}

func printSummary(res *model.SizingResult, m analysis.Metrics) {
	status := "optimal"
	if res.Suboptimal {
		status = fmt.Sprintf("suboptimal (gap %.4f)", res.Gap)
	}
	fmt.Printf("PV capacity:        %.3f kW\n", res.PVCapacity)
	fmt.Printf("Battery capacity:   %.3f kWh\n", res.BatteryCapacity)
	fmt.Printf("Annualized cost:    %.2f (%s, %.1fs)\n", res.TotalAnnualizedCost, status, res.Runtime.Seconds())
	fmt.Printf("  PV investment:    %.2f\n", res.Breakdown.PVInvestment)
	fmt.Printf("  Battery invest.:  %.2f\n", res.Breakdown.BatteryInvestment)
	fmt.Printf("  Grid import:      %.2f\n", res.Breakdown.GridImportCost)
	fmt.Printf("  Export revenue:   %.2f\n", res.Breakdown.ExportRevenue)
	fmt.Printf("LCOE:               %.4f\n", m.LCOE)
	fmt.Printf("Self-sufficiency:   %.1f%%\n", 100*m.SelfSufficiency)
	fmt.Printf("Savings vs grid:    %.2f\n", m.Savings)
}

func fatal(err error) {
	if errors.Is(err, sizing.ErrInfeasible) {
		fmt.Fprintf(os.Stderr, "infeasible: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
