package sizing

import (
	"fmt"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/model"
)

// BuildOptions holds the model-shape toggles.
type BuildOptions struct {
	// CyclicSOC ties hour 0 to the last hour of the horizon so the schedule is
	// periodic with the year. When false, hour 0 starts from the minimum SOC
	// so the optimizer gets no free initial inventory.
	CyclicSOC bool
}

// DefaultBuildOptions enables the cyclic closure.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{CyclicSOC: true}
}

// VarIndex maps the sizing decision variables to model columns.
type VarIndex struct {
	PVCap   int
	BattCap int

	SOC        []int
	Charge     []int
	Discharge  []int
	GridImport []int
	GridExport []int
	ChargeMode []int
}

// Built bundles the assembled MILP with the index needed to read it back.
type Built struct {
	Model *milp.Model
	Input *model.InputContext
	Index VarIndex
	Opts  BuildOptions
}

// Build translates a validated InputContext into the sizing MILP. It is a pure
// function of its input: same context, same model.
//
// Decision variables: the two capacities, and per hour the state of charge,
// charge/discharge flows, grid import/export, and a binary charge mode that
// forbids charging and discharging in the same hour. The rate limit
// charge <= rate*capacity*mode is bilinear (capacity is itself a variable), so
// it is linearized with big-M rows; M = rate*MaxBatteryCapacity.
func Build(in *model.InputContext, opts BuildOptions) (*Built, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	h := in.Hours()
	p := in.Params
	m := milp.NewModel()

	maxPV := milp.Inf
	if p.MaxPVCapacity > 0 {
		maxPV = p.MaxPVCapacity
	}
	maxImport := milp.Inf
	if p.MaxGridImport > 0 {
		maxImport = p.MaxGridImport
	}
	bigM := p.MaxRateFraction * p.MaxBatteryCapacity

	idx := VarIndex{
		PVCap:      m.AddVariable("pv_capacity", 0, maxPV),
		BattCap:    m.AddVariable("battery_capacity", 0, p.MaxBatteryCapacity),
		SOC:        make([]int, h),
		Charge:     make([]int, h),
		Discharge:  make([]int, h),
		GridImport: make([]int, h),
		GridExport: make([]int, h),
		ChargeMode: make([]int, h),
	}
	for t := 0; t < h; t++ {
		idx.SOC[t] = m.AddVariable(fmt.Sprintf("soc[%d]", t), 0, milp.Inf)
		idx.Charge[t] = m.AddVariable(fmt.Sprintf("charge[%d]", t), 0, milp.Inf)
		idx.Discharge[t] = m.AddVariable(fmt.Sprintf("discharge[%d]", t), 0, milp.Inf)
		idx.GridImport[t] = m.AddVariable(fmt.Sprintf("grid_import[%d]", t), 0, maxImport)
		idx.GridExport[t] = m.AddVariable(fmt.Sprintf("grid_export[%d]", t), 0, milp.Inf)
		idx.ChargeMode[t] = m.AddBinary(fmt.Sprintf("charge_mode[%d]", t))
	}

	retention := 1 - p.SelfDischargeHourly

	for t := 0; t < h; t++ {
		// load = pv + discharge - charge + import - export
		m.AddConstraint(fmt.Sprintf("balance[%d]", t), []milp.Term{
			{Var: idx.PVCap, Coef: in.PVCapacityFactor[t]},
			{Var: idx.Discharge[t], Coef: 1},
			{Var: idx.Charge[t], Coef: -1},
			{Var: idx.GridImport[t], Coef: 1},
			{Var: idx.GridExport[t], Coef: -1},
		}, milp.EQ, in.Load[t])

		// soc[t] = retention*soc[prev] + eff_ch*charge[t] - discharge[t]/eff_dis
		if t == 0 && !opts.CyclicSOC {
			m.AddConstraint("dynamics[0]", []milp.Term{
				{Var: idx.SOC[0], Coef: 1},
				{Var: idx.BattCap, Coef: -retention * p.MinSOC},
				{Var: idx.Charge[0], Coef: -p.ChargeEfficiency},
				{Var: idx.Discharge[0], Coef: 1 / p.DischargeEfficiency},
			}, milp.EQ, 0)
		} else {
			prev := (t + h - 1) % h
			m.AddConstraint(fmt.Sprintf("dynamics[%d]", t), []milp.Term{
				{Var: idx.SOC[t], Coef: 1},
				{Var: idx.SOC[prev], Coef: -retention},
				{Var: idx.Charge[t], Coef: -p.ChargeEfficiency},
				{Var: idx.Discharge[t], Coef: 1 / p.DischargeEfficiency},
			}, milp.EQ, 0)
		}

		// min_soc*cap <= soc[t] <= max_soc*cap
		m.AddConstraint(fmt.Sprintf("soc_max[%d]", t), []milp.Term{
			{Var: idx.SOC[t], Coef: 1},
			{Var: idx.BattCap, Coef: -p.MaxSOC},
		}, milp.LE, 0)
		m.AddConstraint(fmt.Sprintf("soc_min[%d]", t), []milp.Term{
			{Var: idx.SOC[t], Coef: 1},
			{Var: idx.BattCap, Coef: -p.MinSOC},
		}, milp.GE, 0)

		// Rate limits; the binary mode forbids simultaneous charge/discharge.
		m.AddConstraint(fmt.Sprintf("charge_rate[%d]", t), []milp.Term{
			{Var: idx.Charge[t], Coef: 1},
			{Var: idx.BattCap, Coef: -p.MaxRateFraction},
		}, milp.LE, 0)
		m.AddConstraint(fmt.Sprintf("charge_mode[%d]", t), []milp.Term{
			{Var: idx.Charge[t], Coef: 1},
			{Var: idx.ChargeMode[t], Coef: -bigM},
		}, milp.LE, 0)
		m.AddConstraint(fmt.Sprintf("discharge_rate[%d]", t), []milp.Term{
			{Var: idx.Discharge[t], Coef: 1},
			{Var: idx.BattCap, Coef: -p.MaxRateFraction},
		}, milp.LE, 0)
		m.AddConstraint(fmt.Sprintf("discharge_mode[%d]", t), []milp.Term{
			{Var: idx.Discharge[t], Coef: 1},
			{Var: idx.ChargeMode[t], Coef: bigM},
		}, milp.LE, bigM)
	}

	// Annualized investment plus net yearly operating cost.
	m.SetObjective(idx.PVCap, p.PVAnnualUnitCost())
	m.SetObjective(idx.BattCap, p.BatteryAnnualUnitCost())
	for t := 0; t < h; t++ {
		m.SetObjective(idx.GridImport[t], in.GridImportPrice[t])
		m.SetObjective(idx.GridExport[t], -in.ExportPriceAt(t))
	}

	return &Built{Model: m, Input: in, Index: idx, Opts: opts}, nil
}
