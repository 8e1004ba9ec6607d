package bnb

import (
	"math"
	"sort"

	"pv-battery-sizing/internal/milp"
	"pv-battery-sizing/internal/milp/simplex"
)

const prepTol = 1e-9

// prepped is the model after presolve: merged rows with singletons folded into
// the variable bounds. The row set is shared read-only by every node; nodes
// differ only in bounds.
type prepped struct {
	rows       []simplex.Row
	lo, up     []float64
	infeasible bool
}

// prep normalizes the model for the LP engine. Duplicate terms are merged,
// zero coefficients dropped, empty rows checked against their right-hand side,
// and singleton rows turned into bound tightenings. Redundant rows that would
// otherwise degenerate the basis (a bound restated as a row) disappear here.
func prep(m *milp.Model) prepped {
	n := m.NumVariables()
	p := prepped{
		lo: make([]float64, n),
		up: make([]float64, n),
	}
	for i, v := range m.Vars {
		p.lo[i], p.up[i] = v.Lower, v.Upper
	}

	for _, c := range m.Cons {
		ents := mergeTerms(c.Terms)
		switch len(ents) {
		case 0:
			if !constantSatisfied(c.Sense, c.RHS) {
				p.infeasible = true
				return p
			}
		case 1:
			if !p.tighten(ents[0], c.Sense, c.RHS) {
				p.infeasible = true
				return p
			}
		default:
			p.rows = append(p.rows, simplex.Row{Entries: ents, Sense: c.Sense, RHS: c.RHS})
		}
	}

	for j := 0; j < n; j++ {
		if p.lo[j] > p.up[j]+prepTol {
			p.infeasible = true
			return p
		}
	}
	return p
}

// mergeTerms sums duplicate variables and drops zero coefficients.
func mergeTerms(terms []milp.Term) []simplex.Entry {
	byVar := make(map[int]float64, len(terms))
	for _, t := range terms {
		byVar[t.Var] += t.Coef
	}
	ents := make([]simplex.Entry, 0, len(byVar))
	for v, coef := range byVar {
		if coef != 0 {
			ents = append(ents, simplex.Entry{Index: v, Value: coef})
		}
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i].Index < ents[j].Index })
	return ents
}

// tighten folds a single-variable row into that variable's bounds. Reports
// false when the implied interval is empty.
func (p *prepped) tighten(e simplex.Entry, sense milp.Sense, rhs float64) bool {
	v, bound := e.Index, rhs/e.Value
	upperSide := (sense == milp.LE) == (e.Value > 0)
	switch {
	case sense == milp.EQ:
		p.lo[v] = math.Max(p.lo[v], bound)
		p.up[v] = math.Min(p.up[v], bound)
	case upperSide:
		p.up[v] = math.Min(p.up[v], bound)
	default:
		p.lo[v] = math.Max(p.lo[v], bound)
	}
	return p.lo[v] <= p.up[v]+prepTol
}

func constantSatisfied(sense milp.Sense, rhs float64) bool {
	switch sense {
	case milp.LE:
		return rhs >= -prepTol
	case milp.GE:
		return rhs <= prepTol
	default:
		return math.Abs(rhs) <= prepTol
	}
}

// boundChange is one branching decision: a new lower or upper bound on a
// variable. A node's bounds are the base bounds plus its chain of changes.
type boundChange struct {
	v     int
	upper bool
	val   float64
}

// nodeBounds applies a change chain to copies of the base bounds. Reports
// false when the chain pins a variable into an empty interval.
func nodeBounds(base *prepped, chain []boundChange, lo, up []float64) bool {
	copy(lo, base.lo)
	copy(up, base.up)
	for _, bc := range chain {
		if bc.upper {
			if bc.val < up[bc.v] {
				up[bc.v] = bc.val
			}
		} else {
			if bc.val > lo[bc.v] {
				lo[bc.v] = bc.val
			}
		}
		if lo[bc.v] > up[bc.v]+prepTol {
			return false
		}
	}
	return true
}
