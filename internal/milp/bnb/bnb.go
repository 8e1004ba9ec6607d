// Package bnb implements a branch-and-bound MILP backend on the bounded
// simplex in internal/milp/simplex. The search is best-first on the LP
// relaxation bound. Branching tightens variable bounds rather than adding
// rows, so the presolved row set is built once and shared by every node, and
// a rounding heuristic at the root means a budget-bounded run still carries
// an incumbent.
package bnb

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/milp/simplex"
)

const boundTol = 1e-9

// Solver solves MILPs by branch and bound. The zero options value means
// unlimited search with default tolerances.
type Solver struct {
	opts milp.Options
}

func New(opts milp.Options) *Solver {
	return &Solver{opts: opts.WithDefaults()}
}

type node struct {
	chain  []boundChange
	bound  float64
	values []float64
	seq    int
}

type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*node)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	nd := old[n-1]
	*q = old[:n-1]
	return nd
}

// Solve runs the branch-and-bound search. Infeasible and unbounded models are
// tagged results; only backend failures return a Go error.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	start := time.Now()
	var deadline time.Time
	if s.opts.TimeLimit > 0 {
		deadline = start.Add(s.opts.TimeLimit)
	}
	timeUp := func() bool {
		return ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline))
	}

	base := prep(m)
	if base.infeasible {
		return &milp.Solution{Status: milp.StatusInfeasible, Runtime: time.Since(start)}, nil
	}

	n := m.NumVariables()
	lpSolves := 0
	solveRelax := func(chain []boundChange) (simplex.Result, error) {
		lo := make([]float64, n)
		up := make([]float64, n)
		if !nodeBounds(&base, chain, lo, up) {
			return simplex.Result{Outcome: simplex.Infeasible}, nil
		}
		lpSolves++
		return simplex.Solve(ctx, &simplex.Problem{
			Cost:  m.Obj,
			Lower: lo,
			Upper: up,
			Rows:  base.rows,
		}, deadline)
	}

	root, err := solveRelax(nil)
	if err != nil {
		return nil, fmt.Errorf("root relaxation: %w", err)
	}
	switch root.Outcome {
	case simplex.Infeasible:
		return &milp.Solution{Status: milp.StatusInfeasible, Nodes: lpSolves, Runtime: time.Since(start)}, nil
	case simplex.Unbounded:
		return &milp.Solution{Status: milp.StatusUnbounded, Nodes: lpSolves, Runtime: time.Since(start)}, nil
	case simplex.Interrupted:
		return &milp.Solution{Status: milp.StatusTimeLimit, Nodes: lpSolves, Runtime: time.Since(start)}, nil
	}
	rootObj, rootX := root.Obj, root.X

	intVars := m.IntegerVariables()
	if fractionalVar(rootX, intVars, s.opts.IntTol) < 0 {
		return &milp.Solution{
			Status:    milp.StatusOptimal,
			Values:    rootX,
			Objective: rootObj,
			Bound:     rootObj,
			Nodes:     lpSolves,
			Runtime:   time.Since(start),
		}, nil
	}

	var (
		haveInc bool
		incObj  float64
		incX    []float64
	)
	if obj, x, ok := s.searchIncumbent(solveRelax, timeUp, rootX, intVars); ok {
		haveInc, incObj, incX = true, obj, x
	}

	open := &nodeQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{bound: rootObj, values: rootX, seq: seq})

	status := milp.StatusOptimal
	bestBound := rootObj

search:
	for open.Len() > 0 {
		if timeUp() || (s.opts.MaxNodes > 0 && lpSolves >= s.opts.MaxNodes) {
			status = milp.StatusTimeLimit
			break
		}

		nd := heap.Pop(open).(*node)
		// Best-first: this bound is valid for every remaining node.
		bestBound = nd.bound

		if haveInc && withinGap(incObj, nd.bound, s.opts.RelGap) {
			break
		}

		j := fractionalVar(nd.values, intVars, s.opts.IntTol)
		if j < 0 {
			if !haveInc || nd.bound < incObj {
				haveInc, incObj, incX = true, nd.bound, nd.values
			}
			continue
		}

		v := nd.values[j]
		down := boundChange{v: j, upper: true, val: math.Floor(v)}
		up := boundChange{v: j, upper: false, val: math.Ceil(v)}
		for _, bc := range []boundChange{down, up} {
			chain := append(append([]boundChange{}, nd.chain...), bc)
			res, err := solveRelax(chain)
			if err != nil {
				return nil, fmt.Errorf("node relaxation: %w", err)
			}
			switch res.Outcome {
			case simplex.Infeasible, simplex.Unbounded:
				// A restriction of a bounded parent cannot be unbounded;
				// either way the subtree holds nothing useful.
				continue
			case simplex.Interrupted:
				status = milp.StatusTimeLimit
				break search
			}
			if haveInc && res.Obj >= incObj-boundTol {
				continue
			}
			seq++
			heap.Push(open, &node{chain: chain, bound: res.Obj, values: res.X, seq: seq})
		}
	}

	if status == milp.StatusOptimal {
		if !haveInc {
			// Every subtree was pruned infeasible: no integer assignment exists.
			return &milp.Solution{Status: milp.StatusInfeasible, Nodes: lpSolves, Runtime: time.Since(start)}, nil
		}
		if open.Len() == 0 {
			bestBound = incObj
		}
	}

	sol := &milp.Solution{
		Status:  status,
		Bound:   bestBound,
		Nodes:   lpSolves,
		Runtime: time.Since(start),
	}
	if haveInc {
		sol.Values = incX
		sol.Objective = incObj
		sol.Gap = relGap(incObj, bestBound)
	}
	return sol, nil
}

// searchIncumbent looks for an early integer-feasible point: first by rounding
// every integer variable of the root relaxation and re-solving with them
// fixed, then, if that fix is infeasible, by fixing fractional variables one
// at a time, nearest bound first. The node budget deliberately does not apply
// here, only the clock, so a budget-bounded run still reports a solution.
func (s *Solver) searchIncumbent(
	solveRelax func([]boundChange) (simplex.Result, error),
	timeUp func() bool,
	rootX []float64,
	intVars []int,
) (float64, []float64, bool) {
	if timeUp() {
		return 0, nil, false
	}
	chain := make([]boundChange, 0, 2*len(intVars))
	for _, j := range intVars {
		r := math.Round(rootX[j])
		chain = append(chain,
			boundChange{v: j, upper: false, val: r},
			boundChange{v: j, upper: true, val: r},
		)
	}
	if res, err := solveRelax(chain); err == nil && res.Outcome == simplex.Optimal {
		return res.Obj, res.X, true
	}
	return s.dive(solveRelax, timeUp, rootX, intVars)
}

// dive fixes fractional integer variables one at a time, re-solving the
// relaxation after each fix. It returns the first integral assignment found.
func (s *Solver) dive(
	solveRelax func([]boundChange) (simplex.Result, error),
	timeUp func() bool,
	rootX []float64,
	intVars []int,
) (float64, []float64, bool) {
	var chain []boundChange
	x := rootX
	obj := 0.0
	for iter := 0; iter <= len(intVars); iter++ {
		j := fractionalVar(x, intVars, s.opts.IntTol)
		if j < 0 {
			if len(chain) == 0 {
				return 0, nil, false
			}
			return obj, x, true
		}
		v := x[j]
		cands := []float64{math.Floor(v), math.Ceil(v)}
		if v-cands[0] > cands[1]-v {
			cands[0], cands[1] = cands[1], cands[0]
		}
		fixed := false
		for _, cand := range cands {
			if timeUp() {
				return 0, nil, false
			}
			next := append(append([]boundChange{}, chain...),
				boundChange{v: j, upper: false, val: cand},
				boundChange{v: j, upper: true, val: cand},
			)
			res, err := solveRelax(next)
			if err != nil || res.Outcome != simplex.Optimal {
				continue
			}
			chain = next
			obj, x = res.Obj, res.X
			fixed = true
			break
		}
		if !fixed {
			return 0, nil, false
		}
	}
	return 0, nil, false
}

// fractionalVar returns the most fractional integer variable, or -1 when the
// assignment is integral within tol.
func fractionalVar(x []float64, intVars []int, tol float64) int {
	best, bestDist := -1, tol
	for _, j := range intVars {
		if d := math.Abs(x[j] - math.Round(x[j])); d > bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func withinGap(incumbent, bound, relTol float64) bool {
	return incumbent-bound <= relTol*math.Max(1, math.Abs(incumbent))+boundTol
}

func relGap(incumbent, bound float64) float64 {
	g := (incumbent - bound) / math.Max(1, math.Abs(incumbent))
	if g < 0 {
		return 0
	}
	return g
}
