// Package simplex implements a primal simplex method for linear programs with
// two-sided variable bounds, stored column-sparse. It is the LP engine behind
// the branch-and-bound backend: branching tightens bounds instead of adding
// rows, so every relaxation shares one row set and working memory stays
// proportional to the nonzero count.
package simplex

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"pv-battery-sizing/internal/milp"
)

// Entry is one nonzero of a sparse row or column.
type Entry struct {
	Index int
	Value float64
}

// Row is one linear constraint.
type Row struct {
	Entries []Entry
	Sense   milp.Sense
	RHS     float64
}

// Problem is a bounded-variable LP: minimize Cost·x subject to the rows and
// Lower <= x <= Upper. Bounds may be infinite on either side. The problem is
// not mutated by Solve, so one row set can back many solves.
type Problem struct {
	Cost  []float64
	Lower []float64
	Upper []float64
	Rows  []Row
}

// Outcome classifies a solve.
type Outcome int

const (
	Optimal Outcome = iota
	Infeasible
	Unbounded
	// Interrupted means the context or deadline cut the solve short.
	Interrupted
)

// Result carries the solve outcome. X holds one value per problem variable
// and is only meaningful for Optimal.
type Result struct {
	Outcome Outcome
	X       []float64
	Obj     float64
	Iters   int
}

// ErrNumerical is returned when the method breaks down even after the
// conservative retry.
var ErrNumerical = errors.New("simplex: numerical breakdown")

const (
	feasTol    = 1e-7
	costTol    = 1e-7
	alphaTol   = 1e-11
	tieTol     = 1e-12
	checkEvery = 128
	stallLimit = 500
)

type settings struct {
	refactorEvery int
	pivotTol      float64
	bland         bool
}

// Solve runs a two-phase bounded-variable simplex. On numerical breakdown it
// retries once from scratch with Bland's rule and per-pivot refactorization
// before giving up.
func Solve(ctx context.Context, p *Problem, deadline time.Time) (Result, error) {
	res, err := run(ctx, p, deadline, settings{refactorEvery: 64, pivotTol: 1e-9})
	if errors.Is(err, ErrNumerical) {
		res, err = run(ctx, p, deadline, settings{refactorEvery: 1, pivotTol: 1e-11, bland: true})
	}
	return res, err
}

func run(ctx context.Context, p *Problem, deadline time.Time, set settings) (Result, error) {
	s, err := newSolver(p, set)
	if err != nil {
		return Result{}, err
	}
	return s.solve(ctx, deadline)
}

// Nonbasic variables rest at a bound; free ones rest at zero.
const (
	atLower int8 = iota
	atUpper
	nbFree
	inBasis
)

type eta struct {
	slot int
	diag float64
	ents []entry // alpha entries by basis slot, excluding the pivot slot
}

type solver struct {
	n, m, total int

	cols   [][]Entry // column-major, rows plus one unit slack column per row
	cost   []float64
	lo, up []float64
	rhs    []float64

	x     []float64
	state []int8
	basis []int

	lu   *factor
	etas []eta

	alpha  []float64 // ftran result, by slot
	rowbuf []float64 // scatter buffer, by row
	dwork  []float64 // btran input, by slot
	ybuf   []float64 // duals, by row
	bcols  [][]Entry

	set  settings
	ftol float64
}

func newSolver(p *Problem, set settings) (*solver, error) {
	n, m := len(p.Cost), len(p.Rows)
	total := n + m
	s := &solver{
		n: n, m: m, total: total,
		cols:   make([][]Entry, total),
		cost:   make([]float64, total),
		lo:     make([]float64, total),
		up:     make([]float64, total),
		rhs:    make([]float64, m),
		x:      make([]float64, total),
		state:  make([]int8, total),
		basis:  make([]int, m),
		alpha:  make([]float64, m),
		rowbuf: make([]float64, m),
		dwork:  make([]float64, m),
		ybuf:   make([]float64, m),
		bcols:  make([][]Entry, m),
		set:    set,
	}
	copy(s.cost, p.Cost)
	copy(s.lo, p.Lower)
	copy(s.up, p.Upper)

	for i, r := range p.Rows {
		s.rhs[i] = r.RHS
		for _, e := range r.Entries {
			s.cols[e.Index] = append(s.cols[e.Index], Entry{Index: i, Value: e.Value})
		}
		slack := n + i
		s.cols[slack] = []Entry{{Index: i, Value: 1}}
		switch r.Sense {
		case milp.LE:
			s.lo[slack], s.up[slack] = 0, math.Inf(1)
		case milp.GE:
			s.lo[slack], s.up[slack] = math.Inf(-1), 0
		default: // EQ
			s.lo[slack], s.up[slack] = 0, 0
		}
	}

	s.ftol = feasTol * (1 + floats.Norm(s.rhs, math.Inf(1)))

	for j := 0; j < n; j++ {
		switch {
		case !math.IsInf(s.lo[j], -1):
			s.x[j], s.state[j] = s.lo[j], atLower
		case !math.IsInf(s.up[j], 1):
			s.x[j], s.state[j] = s.up[j], atUpper
		default:
			s.x[j], s.state[j] = 0, nbFree
		}
	}
	for i := 0; i < m; i++ {
		s.basis[i] = n + i
		s.state[n+i] = inBasis
	}
	if err := s.refactorize(); err != nil {
		return nil, err
	}
	return s, nil
}

// refactorize rebuilds the LU from the current basis, drops the eta file, and
// recomputes the basic values from the nonbasic ones.
func (s *solver) refactorize() error {
	for i, j := range s.basis {
		s.bcols[i] = s.cols[j]
	}
	lu, err := factorize(s.m, s.bcols)
	if err != nil {
		return err
	}
	s.lu = lu
	s.etas = s.etas[:0]

	res := s.rowbuf
	copy(res, s.rhs)
	for j := 0; j < s.total; j++ {
		if s.state[j] == inBasis || s.x[j] == 0 {
			continue
		}
		for _, e := range s.cols[j] {
			res[e.Index] -= e.Value * s.x[j]
		}
	}
	s.lu.solve(res, s.alpha)
	for i, j := range s.basis {
		s.x[j] = s.alpha[i]
	}
	return nil
}

func (s *solver) solve(ctx context.Context, deadline time.Time) (Result, error) {
	maxIter := 50*s.total + 10000
	bland := s.set.bland
	stall := 0
	justRefactored := false

	for iters := 0; ; iters++ {
		if iters%checkEvery == 0 {
			if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
				return Result{Outcome: Interrupted, Iters: iters}, nil
			}
		}
		if iters > maxIter {
			return Result{}, ErrNumerical
		}

		phase1 := s.infeasibility() > 0

		q, dir := s.price(phase1, bland)
		if q < 0 {
			if phase1 {
				// Phase-one optimum with residual infeasibility: no point
				// satisfies the constraints.
				return Result{Outcome: Infeasible, Iters: iters}, nil
			}
			return s.finish(iters)
		}

		s.ftranColumn(q)
		t, leave, leaveAtUpper, flip, unbounded := s.ratio(q, dir, phase1)
		if unbounded {
			if phase1 {
				return Result{}, ErrNumerical
			}
			return Result{Outcome: Unbounded, Iters: iters}, nil
		}

		if t <= tieTol {
			stall++
			if stall >= stallLimit {
				bland = true
			}
		} else {
			stall = 0
		}

		if flip {
			s.applyStep(dir, t)
			if dir > 0 {
				s.x[q], s.state[q] = s.up[q], atUpper
			} else {
				s.x[q], s.state[q] = s.lo[q], atLower
			}
			justRefactored = false
			continue
		}

		if math.Abs(s.alpha[leave]) < s.set.pivotTol {
			// Unreliable pivot: refactorize once and re-price before
			// declaring a breakdown.
			if justRefactored {
				return Result{}, ErrNumerical
			}
			if err := s.refactorize(); err != nil {
				return Result{}, err
			}
			justRefactored = true
			continue
		}

		s.applyStep(dir, t)
		s.x[q] += float64(dir) * t
		leaveCol := s.basis[leave]
		if leaveAtUpper {
			s.x[leaveCol], s.state[leaveCol] = s.up[leaveCol], atUpper
		} else {
			s.x[leaveCol], s.state[leaveCol] = s.lo[leaveCol], atLower
		}
		s.pushEta(leave)
		s.basis[leave] = q
		s.state[q] = inBasis
		justRefactored = false

		if len(s.etas) >= s.set.refactorEvery {
			if err := s.refactorize(); err != nil {
				return Result{}, err
			}
		}
	}
}

// infeasibility sums how far basic variables sit outside their bounds,
// ignoring violations inside the feasibility tolerance.
func (s *solver) infeasibility() float64 {
	sum := 0.0
	for _, j := range s.basis {
		if d := s.lo[j] - s.x[j]; d > s.ftol {
			sum += d
		} else if d := s.x[j] - s.up[j]; d > s.ftol {
			sum += d
		}
	}
	return sum
}

// price picks the entering column and its direction, or -1 when the current
// point is optimal for the active phase objective.
func (s *solver) price(phase1, bland bool) (int, int) {
	d := s.dwork
	for i, j := range s.basis {
		switch {
		case !phase1:
			d[i] = s.cost[j]
		case s.x[j] < s.lo[j]-s.ftol:
			d[i] = -1
		case s.x[j] > s.up[j]+s.ftol:
			d[i] = 1
		default:
			d[i] = 0
		}
	}
	s.applyEtasBtran(d)
	s.lu.solveT(d, s.ybuf)
	y := s.ybuf

	bestQ, bestDir := -1, 0
	bestScore := 0.0
	for j := 0; j < s.total; j++ {
		if s.state[j] == inBasis || s.lo[j] == s.up[j] {
			continue
		}
		r := 0.0
		if !phase1 {
			r = s.cost[j]
		}
		for _, e := range s.cols[j] {
			r -= y[e.Index] * e.Value
		}

		dir := 0
		switch s.state[j] {
		case atLower:
			if r < -costTol {
				dir = 1
			}
		case atUpper:
			if r > costTol {
				dir = -1
			}
		case nbFree:
			if r < -costTol {
				dir = 1
			} else if r > costTol {
				dir = -1
			}
		}
		if dir == 0 {
			continue
		}
		if bland {
			return j, dir
		}
		if score := math.Abs(r); score > bestScore {
			bestQ, bestDir, bestScore = j, dir, score
		}
	}
	return bestQ, bestDir
}

// ftranColumn computes alpha = B⁻¹ * column q.
func (s *solver) ftranColumn(q int) {
	v := s.rowbuf
	for i := range v {
		v[i] = 0
	}
	for _, e := range s.cols[q] {
		v[e.Index] = e.Value
	}
	s.lu.solve(v, s.alpha)
	for _, e := range s.etas {
		t := s.alpha[e.slot] / e.diag
		if t != 0 {
			for _, en := range e.ents {
				s.alpha[en.idx] -= en.val * t
			}
		}
		s.alpha[e.slot] = t
	}
}

func (s *solver) applyEtasBtran(d []float64) {
	for k := len(s.etas) - 1; k >= 0; k-- {
		e := s.etas[k]
		sum := d[e.slot]
		for _, en := range e.ents {
			sum -= en.val * d[en.idx]
		}
		d[e.slot] = sum / e.diag
	}
}

// ratio finds the largest step t for the entering column q moving in dir.
// In phase one, basic variables outside their bounds block only when the step
// carries them onto the violated bound, so every step reduces infeasibility.
func (s *solver) ratio(q, dir int, phase1 bool) (t float64, leave int, leaveAtUpper, flip, unbounded bool) {
	tmin := math.Inf(1)
	for i := 0; i < s.m; i++ {
		ti, _, ok := s.blockAt(i, dir, phase1)
		if ok && ti < tmin {
			tmin = ti
		}
	}

	tBound := s.up[q] - s.lo[q]
	if tBound <= tmin {
		if math.IsInf(tBound, 1) {
			return 0, -1, false, false, true
		}
		return tBound, -1, false, true, false
	}

	leave = -1
	bestA := 0.0
	for i := 0; i < s.m; i++ {
		ti, hitUpper, ok := s.blockAt(i, dir, phase1)
		if !ok || ti > tmin+tieTol {
			continue
		}
		if a := math.Abs(s.alpha[i]); a > bestA {
			leave, leaveAtUpper, bestA = i, hitUpper, a
		}
	}
	if leave < 0 {
		return 0, -1, false, false, true
	}
	return tmin, leave, leaveAtUpper, false, false
}

// blockAt reports the step at which the basic variable in slot i blocks the
// entering direction, and which of its bounds it lands on.
func (s *solver) blockAt(i, dir int, phase1 bool) (float64, bool, bool) {
	a := s.alpha[i]
	if math.Abs(a) <= alphaTol {
		return 0, false, false
	}
	delta := float64(dir) * a
	j := s.basis[i]
	xj, lo, up := s.x[j], s.lo[j], s.up[j]

	var ti float64
	var hitUpper bool
	switch {
	case phase1 && xj < lo-s.ftol:
		if delta >= 0 {
			return 0, false, false
		}
		ti, hitUpper = (xj-lo)/delta, false
	case phase1 && xj > up+s.ftol:
		if delta <= 0 {
			return 0, false, false
		}
		ti, hitUpper = (xj-up)/delta, true
	case delta > 0:
		if math.IsInf(lo, -1) {
			return 0, false, false
		}
		ti, hitUpper = (xj-lo)/delta, false
	default:
		if math.IsInf(up, 1) {
			return 0, false, false
		}
		ti, hitUpper = (xj-up)/delta, true
	}
	if ti < 0 {
		ti = 0
	}
	return ti, hitUpper, true
}

// applyStep moves the basic variables for a step of size t along the entering
// direction.
func (s *solver) applyStep(dir int, t float64) {
	if t == 0 {
		return
	}
	step := float64(dir) * t
	for i, j := range s.basis {
		if s.alpha[i] != 0 {
			s.x[j] -= step * s.alpha[i]
		}
	}
}

func (s *solver) pushEta(slot int) {
	ents := make([]entry, 0, 8)
	for i, a := range s.alpha {
		if i != slot && a != 0 {
			ents = append(ents, entry{i, a})
		}
	}
	s.etas = append(s.etas, eta{slot: slot, diag: s.alpha[slot], ents: ents})
}

// finish refactorizes for a clean basic solution, snaps residual noise onto
// the bounds, and reports the optimum.
func (s *solver) finish(iters int) (Result, error) {
	if err := s.refactorize(); err != nil {
		return Result{}, err
	}
	x := make([]float64, s.n)
	copy(x, s.x[:s.n])
	for j := 0; j < s.n; j++ {
		if d := s.lo[j] - x[j]; d > 0 && d <= 1e-6 {
			x[j] = s.lo[j]
		} else if d := x[j] - s.up[j]; d > 0 && d <= 1e-6 {
			x[j] = s.up[j]
		}
	}
	return Result{
		Outcome: Optimal,
		X:       x,
		Obj:     floats.Dot(s.cost, s.x),
		Iters:   iters,
	}, nil
}
