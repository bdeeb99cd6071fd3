// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptySolverIsSat(t *testing.T) {
	s := NewToyConstraintSolver()
	assert.Equal(t, Sat, s.CheckSat())
}

func TestSingleConstraintSat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 0))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestSatisfiableRange(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 0))
	s.AssertConstraint(IntComparison("x", Lt, 10))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestUnsatisfiableRange(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 10))
	s.AssertConstraint(IntComparison("x", Lt, 5))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestBoundarySatisfiable(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", GtEq, 5))
	s.AssertConstraint(IntComparison("x", LtEq, 5))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestBoundaryUnsatisfiable(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 5))
	s.AssertConstraint(IntComparison("x", Lt, 6))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestEqualityInRange(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Eq, 5))
	s.AssertConstraint(IntComparison("x", Gt, 0))
	s.AssertConstraint(IntComparison("x", Lt, 10))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestEqualityOutOfRange(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Eq, 15))
	s.AssertConstraint(IntComparison("x", Lt, 10))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestNeqEliminatesOnlyOption(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", GtEq, 5))
	s.AssertConstraint(IntComparison("x", LtEq, 5))
	s.AssertConstraint(IntComparison("x", NotEq, 5))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestBoolFalseIsUnsat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(BoolConst(false))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestBoolTrueIsSat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(BoolConst(true))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestPushPopRestoresState(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 0))
	s.Push()
	s.AssertConstraint(IntComparison("x", Lt, 0))
	assert.Equal(t, Unsat, s.CheckSat())
	s.Pop()
	assert.Equal(t, Sat, s.CheckSat())
}

func TestResetClearsAll(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(BoolConst(false))
	assert.Equal(t, Unsat, s.CheckSat())
	s.Reset()
	assert.Equal(t, Sat, s.CheckSat())
}

func TestMultipleVariables(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(IntComparison("x", Gt, 0))
	s.AssertConstraint(IntComparison("x", Lt, 10))
	s.AssertConstraint(IntComparison("y", Gt, 100))
	s.AssertConstraint(IntComparison("y", Lt, 50))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestOrOneBranchSat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Or(IntComparison("x", Gt, 100), IntComparison("x", Lt, 5)))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestOrAllUnsat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Or(BoolConst(false), BoolConst(false)))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestNotFalseIsSat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Not(BoolConst(false)))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestNotTrueIsUnsat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Not(BoolConst(true)))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestBoolVarIsUnknown(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(BoolVar("flag"))
	assert.Equal(t, Unknown, s.CheckSat())
}

func TestImplicationXGt5ImpliesXGt0(t *testing.T) {
	s := NewToyConstraintSolver()
	result := CheckImplication(s, IntComparison("x", Gt, 5), IntComparison("x", Gt, 0))
	assert.Equal(t, Unsat, result) // Unsat means the implication is valid
}

func TestImplicationXGt0DoesNotImplyXGt5(t *testing.T) {
	s := NewToyConstraintSolver()
	result := CheckImplication(s, IntComparison("x", Gt, 0), IntComparison("x", Gt, 5))
	assert.Equal(t, Sat, result) // Sat means a counterexample exists
}

func TestImplicationConjunctionImpliesWeaker(t *testing.T) {
	s := NewToyConstraintSolver()
	premise := And(IntComparison("x", Gt, 0), IntComparison("x", Lt, 10))
	result := CheckImplication(s, premise, IntComparison("x", GtEq, 0))
	assert.Equal(t, Unsat, result)
}

func TestVarComparisonSameVarEq(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(VarComparison("x", Eq, "x"))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestVarComparisonSameVarLt(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(VarComparison("x", Lt, "x"))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestVarComparisonTransitivityContradiction(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(VarComparison("x", Gt, "y"))
	s.AssertConstraint(IntComparison("x", Lt, 5))
	s.AssertConstraint(IntComparison("y", Gt, 10))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestArithmeticAddSatisfiable(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Arithmetic("x", Add, 1, Gt, 0))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestArithmeticAddWithBoundsUnsat(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(Arithmetic("x", Add, 1, Gt, 5))
	s.AssertConstraint(IntComparison("x", Lt, 3))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestEffectBudgetWithinLimit(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(EffectBudget("network", 3, 2))
	assert.Equal(t, Sat, s.CheckSat())
}

func TestEffectBudgetExceeded(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(EffectBudget("network", 3, 4))
	assert.Equal(t, Unsat, s.CheckSat())
}

func TestEffectBudgetExactLimit(t *testing.T) {
	s := NewToyConstraintSolver()
	s.AssertConstraint(EffectBudget("network", 3, 3))
	assert.Equal(t, Sat, s.CheckSat())
}
