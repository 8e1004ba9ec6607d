package sizing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/milp/bnb"
	"pv-battery-sizing/internal/model"
)

const physTol = 1e-6

// assertPhysics checks that a schedule satisfies the physical constraints the
// optimizer was given: hourly balance, SOC dynamics and window, and charge/
// discharge exclusivity.
func assertPhysics(t *testing.T, in *model.InputContext, res *model.SizingResult, cyclic bool) {
	t.Helper()
	p := in.Params
	h := in.Hours()
	retention := 1 - p.SelfDischargeHourly

	for tt := 0; tt < h; tt++ {
		row := res.Schedule[tt]

		balance := row.PVGeneration + row.Discharge - row.Charge + row.GridImport - row.GridExport - row.Load
		assert.InDelta(t, 0, balance, physTol, "balance violated at hour %d", tt)

		assert.LessOrEqual(t, math.Min(row.Charge, row.Discharge), physTol,
			"simultaneous charge and discharge at hour %d", tt)

		assert.GreaterOrEqual(t, row.SOC, p.MinSOC*res.BatteryCapacity-physTol, "soc below window at hour %d", tt)
		assert.LessOrEqual(t, row.SOC, p.MaxSOC*res.BatteryCapacity+physTol, "soc above window at hour %d", tt)

		var prevSOC float64
		switch {
		case tt > 0:
			prevSOC = res.Schedule[tt-1].SOC
		case cyclic:
			prevSOC = res.Schedule[h-1].SOC
		default:
			prevSOC = p.MinSOC * res.BatteryCapacity
		}
		dyn := row.SOC - retention*prevSOC - p.ChargeEfficiency*row.Charge + row.Discharge/p.DischargeEfficiency
		assert.InDelta(t, 0, dyn, physTol, "dynamics violated at hour %d", tt)
	}
}

// arbitrageContext is a 24-hour scenario with no PV resource and a strong
// price spread, so any cost reduction must come from the battery.
func arbitrageContext() *model.InputContext {
	in := &model.InputContext{
		Load:             make([]float64, 24),
		PVCapacityFactor: make([]float64, 24),
		GridImportPrice:  make([]float64, 24),
		Params: model.TechnoEconomicParams{
			PVUnitCost:            900,
			BatteryEnergyUnitCost: 1,
			BatteryPowerUnitCost:  0.5,
			DiscountRate:          0,
			PVLifetimeYears:       25,
			BatteryLifetimeYears:  10,
			ChargeEfficiency:      0.95,
			DischargeEfficiency:   0.95,
			MaxRateFraction:       0.5,
			MinSOC:                0.1,
			MaxSOC:                0.9,
			MaxBatteryCapacity:    50,
			MaxPVCapacity:         5,
		},
	}
	for t := 0; t < 24; t++ {
		in.Load[t] = 1
		switch {
		case t < 6:
			in.GridImportPrice[t] = 0.05
		case t >= 18:
			in.GridImportPrice[t] = 0.5
		default:
			in.GridImportPrice[t] = 0.2
		}
	}
	return in
}

func solveOpts() milp.Options {
	return milp.Options{MaxNodes: 5000}
}

func TestRunBatteryArbitrage(t *testing.T) {
	in := arbitrageContext()
	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)

	assertPhysics(t, in, res, true)

	// The spread comfortably pays for storage, so the battery must be used.
	assert.Greater(t, res.BatteryCapacity, 0.0)
	assert.InDelta(t, 0, res.PVCapacity, physTol)

	// Cheaper than serving everything from the grid at spot.
	gridOnly := 0.0
	for tt, load := range in.Load {
		gridOnly += load * in.GridImportPrice[tt]
	}
	assert.Less(t, res.TotalAnnualizedCost, gridOnly)
}

func TestRunZeroLoad(t *testing.T) {
	in := arbitrageContext()
	for tt := range in.Load {
		in.Load[tt] = 0
	}
	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)

	assert.InDelta(t, 0, res.PVCapacity, physTol)
	assert.InDelta(t, 0, res.BatteryCapacity, physTol)
	assert.InDelta(t, 0, res.TotalAnnualizedCost, physTol)
	for _, row := range res.Schedule {
		assert.Equal(t, model.ActionIdle, row.Action)
	}
}

func TestRunGridOnlyWhenAssetsTooExpensive(t *testing.T) {
	in := arbitrageContext()
	in.Params.PVUnitCost = 1e6
	in.Params.BatteryEnergyUnitCost = 1e6

	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)

	assert.InDelta(t, 0, res.PVCapacity, physTol)
	assert.InDelta(t, 0, res.BatteryCapacity, physTol)

	want := 0.0
	for tt, load := range in.Load {
		want += load * in.GridImportPrice[tt]
	}
	assert.InDelta(t, want, res.TotalAnnualizedCost, 1e-6)
	assert.InDelta(t, res.TotalLoad(), res.TotalGridImport(), 1e-6)
}

func TestRunBuildsPVWhenItPays(t *testing.T) {
	in := arbitrageContext()
	// Strong daytime sun against a flat expensive tariff.
	for tt := range in.PVCapacityFactor {
		if tt >= 8 && tt < 16 {
			in.PVCapacityFactor[tt] = 1
		}
		in.GridImportPrice[tt] = 0.5
	}
	// Annualized 2 per unit at r=0, n=25: strictly cheaper than the 4 per
	// unit of daytime imports it displaces.
	in.Params.PVUnitCost = 50
	in.Params.BatteryEnergyUnitCost = 1e6

	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)

	assertPhysics(t, in, res, true)
	assert.Greater(t, res.PVCapacity, 0.0)
	// Prohibitive storage cost drives the battery out while PV stays viable.
	assert.InDelta(t, 0, res.BatteryCapacity, physTol)

	// And raising the PV price can never lower the optimal cost.
	in2 := arbitrageContext()
	for tt := range in2.PVCapacityFactor {
		if tt >= 8 && tt < 16 {
			in2.PVCapacityFactor[tt] = 1
		}
		in2.GridImportPrice[tt] = 0.5
	}
	in2.Params.PVUnitCost = 500
	in2.Params.BatteryEnergyUnitCost = 1e6

	res2, err := Run(context.Background(), in2, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res2.TotalAnnualizedCost+physTol, res.TotalAnnualizedCost)
}

// twoDayContext is two days of constant load 10 with a daytime-only PV
// resource, a flat tariff, and asset prices low enough that solar plus
// storage beats importing around the clock.
func twoDayContext(minSOC, maxSOC float64) *model.InputContext {
	h := 48
	in := &model.InputContext{
		Load:             make([]float64, h),
		PVCapacityFactor: make([]float64, h),
		GridImportPrice:  make([]float64, h),
		Params: model.TechnoEconomicParams{
			PVUnitCost:            5,
			BatteryEnergyUnitCost: 1,
			DiscountRate:          0,
			PVLifetimeYears:       25,
			BatteryLifetimeYears:  10,
			ChargeEfficiency:      0.9487,
			DischargeEfficiency:   0.9487,
			MaxRateFraction:       0.5,
			MinSOC:                minSOC,
			MaxSOC:                maxSOC,
			MaxBatteryCapacity:    300,
			MaxPVCapacity:         100,
		},
	}
	for t2 := 0; t2 < h; t2++ {
		in.Load[t2] = 10
		in.GridImportPrice[t2] = 0.2
		if hour := t2 % 24; hour >= 6 && hour < 18 {
			in.PVCapacityFactor[t2] = 0.3
		}
	}
	return in
}

func TestRunSizesBothAssets(t *testing.T) {
	in := twoDayContext(0.1, 0.9)

	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)
	assertPhysics(t, in, res, true)

	assert.Greater(t, res.PVCapacity, 0.0)
	assert.Greater(t, res.BatteryCapacity, 0.0)

	// Grid import drops strictly below the no-asset baseline of 480 units,
	// and the total cost below the 96 the baseline would pay.
	assert.Less(t, res.TotalGridImport(), res.TotalLoad())
	assert.Less(t, res.TotalAnnualizedCost, 0.2*res.TotalLoad())
}

func TestRunSizesBothAssetsFullWindow(t *testing.T) {
	// The whole energy window usable: MinSOC 0 makes the SOC floor
	// coincide with the variable's own lower bound, and MaxSOC 1 makes the
	// ceiling the full capacity. Sizing must behave like the narrower
	// window, just with more usable storage per unit built.
	in := twoDayContext(0, 1)

	res, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)
	assertPhysics(t, in, res, true)

	assert.Greater(t, res.PVCapacity, 0.0)
	assert.Greater(t, res.BatteryCapacity, 0.0)
	assert.Less(t, res.TotalGridImport(), res.TotalLoad())
	assert.Less(t, res.TotalAnnualizedCost, 0.2*res.TotalLoad())
}

func TestRunNonCyclic(t *testing.T) {
	in := arbitrageContext()
	res, err := Run(context.Background(), in, bnb.New(solveOpts()), BuildOptions{CyclicSOC: false})
	require.NoError(t, err)
	assertPhysics(t, in, res, false)
}

func TestRunInfeasible(t *testing.T) {
	in := arbitrageContext()
	// No PV resource and almost no import headroom: demand cannot be served.
	in.Params.MaxGridImport = 0.001
	in.Params.MaxPVCapacity = 0.001

	_, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfeasible)
	assert.Contains(t, err.Error(), "hours=24")
}

func TestRunUnbounded(t *testing.T) {
	in := arbitrageContext()
	// Free PV with uncapped capacity and paid export: revenue grows without
	// limit.
	in.Params.PVUnitCost = 0
	in.Params.MaxPVCapacity = 0
	in.GridExportPrice = make([]float64, 24)
	for tt := range in.PVCapacityFactor {
		in.PVCapacityFactor[tt] = 1
		in.GridExportPrice[tt] = 1
	}

	_, err := Run(context.Background(), in, bnb.New(solveOpts()), DefaultBuildOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestRunIsIdempotent(t *testing.T) {
	a, err := Run(context.Background(), arbitrageContext(), bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)
	b, err := Run(context.Background(), arbitrageContext(), bnb.New(solveOpts()), DefaultBuildOptions())
	require.NoError(t, err)

	assert.Equal(t, a.PVCapacity, b.PVCapacity)
	assert.Equal(t, a.BatteryCapacity, b.BatteryCapacity)
	assert.Equal(t, a.TotalAnnualizedCost, b.TotalAnnualizedCost)
}

// fakeSolver returns a canned solution or error.
type fakeSolver struct {
	sol *milp.Solution
	err error
}

func (f *fakeSolver) Solve(_ context.Context, _ *milp.Model) (*milp.Solution, error) {
	return f.sol, f.err
}

func TestRunErrorMapping(t *testing.T) {
	in := arbitrageContext()

	t.Run("backend failure wraps as SolverError", func(t *testing.T) {
		_, err := Run(context.Background(), in, &fakeSolver{err: errors.New("boom")}, DefaultBuildOptions())
		require.Error(t, err)
		var serr *SolverError
		require.ErrorAs(t, err, &serr)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("error status wraps as SolverError", func(t *testing.T) {
		_, err := Run(context.Background(), in, &fakeSolver{sol: &milp.Solution{Status: milp.StatusError}}, DefaultBuildOptions())
		var serr *SolverError
		require.ErrorAs(t, err, &serr)
	})

	t.Run("budget exhausted without incumbent is fatal", func(t *testing.T) {
		_, err := Run(context.Background(), in, &fakeSolver{sol: &milp.Solution{Status: milp.StatusTimeLimit}}, DefaultBuildOptions())
		var serr *SolverError
		require.ErrorAs(t, err, &serr)
		assert.Contains(t, err.Error(), "no incumbent")
	})

	t.Run("unbounded status maps to sentinel", func(t *testing.T) {
		_, err := Run(context.Background(), in, &fakeSolver{sol: &milp.Solution{Status: milp.StatusUnbounded}}, DefaultBuildOptions())
		assert.ErrorIs(t, err, ErrUnbounded)
	})
}
