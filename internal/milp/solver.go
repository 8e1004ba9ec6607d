package milp

import (
	"context"
	"fmt"
	"time"
)

// Status classifies the outcome of a solve.
type Status int

const (
	// StatusOptimal means the returned assignment is proven optimal within the
	// configured gap.
	StatusOptimal Status = iota
	// StatusTimeLimit means the search budget ran out; the best incumbent
	// found so far, if any, is returned.
	StatusTimeLimit
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective can decrease without limit.
	StatusUnbounded
	// StatusError means the backend failed; details travel as a Go error.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Options are the solver tuning knobs. The zero value means defaults: no time
// limit, no node limit, and the package default tolerances.
type Options struct {
	// TimeLimit bounds wall-clock search time. Zero disables the limit.
	TimeLimit time.Duration
	// MaxNodes bounds the number of branch-and-bound nodes. Zero disables it.
	MaxNodes int
	// RelGap is the relative optimality gap at which search stops.
	RelGap float64
	// IntTol is the tolerance within which a value counts as integral.
	IntTol float64
}

const (
	DefaultRelGap = 1e-6
	DefaultIntTol = 1e-6
)

// WithDefaults fills unset tolerances.
func (o Options) WithDefaults() Options {
	if o.RelGap <= 0 {
		o.RelGap = DefaultRelGap
	}
	if o.IntTol <= 0 {
		o.IntTol = DefaultIntTol
	}
	return o
}

// Solution is the normalized result of a solve. Values is nil unless the
// status carries an assignment (optimal, or time limit with an incumbent).
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	// Bound is the best proven lower bound on the objective.
	Bound float64
	// Gap is the relative gap between Objective and Bound.
	Gap     float64
	Nodes   int
	Runtime time.Duration
}

// HasValues reports whether the solution carries a usable assignment.
func (s *Solution) HasValues() bool {
	return s != nil && s.Values != nil &&
		(s.Status == StatusOptimal || s.Status == StatusTimeLimit)
}

// Solver is the single capability the sizing core needs from a MILP backend.
// Infeasible and unbounded outcomes are tagged results, not errors; an error
// return means the backend itself failed.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
