package sizing

import (
	"context"
	"errors"
	"fmt"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/model"
)

var (
	// ErrInfeasible is returned when no dispatch satisfies the constraints.
	// No constraint relaxation is attempted; the caller decides what to adjust.
	ErrInfeasible = errors.New("sizing model is infeasible")
	// ErrUnbounded is returned when the objective can decrease without limit,
	// which indicates a missing cost term or cap in the inputs.
	ErrUnbounded = errors.New("sizing model is unbounded")
)

// SolverError wraps a backend failure. It is fatal to the run.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string { return fmt.Sprintf("solver: %v", e.Err) }
func (e *SolverError) Unwrap() error { return e.Err }

// Run executes the whole pipeline: validate, build, solve, extract. It is a
// pure function of its inputs; nothing is retained between runs and no retries
// happen here. A time-limited solve that still found an incumbent returns a
// result tagged Suboptimal rather than an error.
func Run(ctx context.Context, in *model.InputContext, solver milp.Solver, opts BuildOptions) (*model.SizingResult, error) {
	built, err := Build(in, opts)
	if err != nil {
		return nil, err
	}

	sol, err := solver.Solve(ctx, built.Model)
	if err != nil {
		return nil, &SolverError{Err: err}
	}

	switch sol.Status {
	case milp.StatusInfeasible:
		return nil, fmt.Errorf("%w (hours=%d, max_battery=%g, max_pv=%g, max_import=%g)",
			ErrInfeasible, in.Hours(), in.Params.MaxBatteryCapacity, in.Params.MaxPVCapacity, in.Params.MaxGridImport)
	case milp.StatusUnbounded:
		return nil, ErrUnbounded
	case milp.StatusError:
		return nil, &SolverError{Err: fmt.Errorf("backend reported failure after %d nodes", sol.Nodes)}
	case milp.StatusTimeLimit:
		if !sol.HasValues() {
			return nil, &SolverError{Err: errors.New("solve budget exhausted with no incumbent")}
		}
	}

	return Extract(built, sol)
}
