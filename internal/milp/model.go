// Package milp defines a minimal mixed-integer linear program container and
// the solver capability the sizing core needs: submit a model, get back a
// status and a variable assignment. Backends live in subpackages.
package milp

import (
	"fmt"
	"math"
)

// Inf marks an unbounded variable limit.
var Inf = math.Inf(1)

// Sense is the relation of a linear constraint to its right-hand side.
type Sense int

const (
	LE Sense = iota // <=
	GE              // >=
	EQ              // ==
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Variable is one column of the model.
type Variable struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Term is one coefficient of a linear expression.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is one row of the model.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a sparse MILP: minimize Obj·x subject to the constraint rows and
// the per-variable bounds. It is a plain container with no solve logic.
type Model struct {
	Vars []Variable
	Cons []Constraint
	// Obj holds one objective coefficient per variable.
	Obj []float64
}

func NewModel() *Model { return &Model{} }

// AddVariable appends a continuous variable and returns its column index.
// Either bound may be infinite.
func (m *Model) AddVariable(name string, lower, upper float64) int {
	m.Vars = append(m.Vars, Variable{Name: name, Lower: lower, Upper: upper})
	m.Obj = append(m.Obj, 0)
	return len(m.Vars) - 1
}

// AddBinary appends a 0/1 integer variable and returns its column index.
func (m *Model) AddBinary(name string) int {
	m.Vars = append(m.Vars, Variable{Name: name, Lower: 0, Upper: 1, Integer: true})
	m.Obj = append(m.Obj, 0)
	return len(m.Vars) - 1
}

// SetObjective sets the objective coefficient of one variable.
func (m *Model) SetObjective(v int, coef float64) {
	m.Obj[v] = coef
}

// AddConstraint appends a row and returns its index.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) int {
	m.Cons = append(m.Cons, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return len(m.Cons) - 1
}

func (m *Model) NumVariables() int   { return len(m.Vars) }
func (m *Model) NumConstraints() int { return len(m.Cons) }

// IntegerVariables lists the column indices of integer variables.
func (m *Model) IntegerVariables() []int {
	var out []int
	for i, v := range m.Vars {
		if v.Integer {
			out = append(out, i)
		}
	}
	return out
}
