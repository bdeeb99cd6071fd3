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

// Package verify provides a pluggable constraint solver used to check
// verification obligations the analyzer emits: integer interval facts,
// effect-call budgets, and boolean combinations of both. ToyConstraintSolver
// decides what it can without an external SMT engine and reports Unknown
// for the rest; a Solver satisfying the same interface can later front an
// actual backend.
package verify

// CmpOp is a comparison operator between a variable and a constant, or
// between two variables.
type CmpOp uint8

const (
	Gt CmpOp = iota
	GtEq
	Lt
	LtEq
	Eq
	NotEq
)

func (op CmpOp) negate() CmpOp {
	switch op {
	case Gt:
		return LtEq
	case GtEq:
		return Lt
	case Lt:
		return GtEq
	case LtEq:
		return Gt
	case Eq:
		return NotEq
	default: // NotEq
		return Eq
	}
}

// ArithOp is the operator in an Arithmetic constraint's var <op> const term.
type ArithOp uint8

const (
	Add ArithOp = iota
	Sub
	Mul
)

// ConstraintKind discriminates the Constraint variants. Constraint is a
// closed sum type emulated with a kind tag plus the fields each variant
// uses, mirroring the shape an AST-matched Rust enum takes once flattened
// into a single Go struct.
type ConstraintKind uint8

const (
	KindBoolConst ConstraintKind = iota
	KindBoolVar
	KindVar
	KindIntComparison
	KindFloatComparison
	KindVarComparison
	KindArithmetic
	KindEffectBudget
	KindNot
	KindAnd
	KindOr
)

// Constraint is one node of a constraint tree asserted to a Solver.
// Only the fields relevant to Kind are populated; use the constructor
// functions below rather than building a Constraint by hand.
type Constraint struct {
	Kind ConstraintKind

	BoolValue bool   // KindBoolConst
	Name      string // KindBoolVar, KindVar

	Var   string // KindIntComparison, KindFloatComparison, KindArithmetic
	Op    CmpOp
	Value int64
	FloatValue float64 // KindFloatComparison

	Left  string // KindVarComparison
	Right string

	ArithOp    ArithOp // KindArithmetic
	ArithConst int64

	EffectName  string // KindEffectBudget
	MaxCalls    int64
	ActualCalls int64

	Inner *Constraint   // KindNot
	Parts []*Constraint // KindAnd, KindOr
}

func BoolConst(v bool) *Constraint { return &Constraint{Kind: KindBoolConst, BoolValue: v} }
func BoolVar(name string) *Constraint { return &Constraint{Kind: KindBoolVar, Name: name} }
func Var(name string) *Constraint     { return &Constraint{Kind: KindVar, Name: name} }

func IntComparison(v string, op CmpOp, value int64) *Constraint {
	return &Constraint{Kind: KindIntComparison, Var: v, Op: op, Value: value}
}

func FloatComparison(v string, op CmpOp, value float64) *Constraint {
	return &Constraint{Kind: KindFloatComparison, Var: v, Op: op, FloatValue: value}
}

func VarComparison(left string, op CmpOp, right string) *Constraint {
	return &Constraint{Kind: KindVarComparison, Left: left, Op: op, Right: right}
}

func Arithmetic(v string, arithOp ArithOp, arithConst int64, cmpOp CmpOp, cmpValue int64) *Constraint {
	return &Constraint{Kind: KindArithmetic, Var: v, ArithOp: arithOp, ArithConst: arithConst, Op: cmpOp, Value: cmpValue}
}

func EffectBudget(effectName string, maxCalls, actualCalls int64) *Constraint {
	return &Constraint{Kind: KindEffectBudget, EffectName: effectName, MaxCalls: maxCalls, ActualCalls: actualCalls}
}

func Not(inner *Constraint) *Constraint { return &Constraint{Kind: KindNot, Inner: inner} }
func And(parts ...*Constraint) *Constraint { return &Constraint{Kind: KindAnd, Parts: parts} }
func Or(parts ...*Constraint) *Constraint  { return &Constraint{Kind: KindOr, Parts: parts} }

func (c *Constraint) clone() *Constraint {
	cp := *c
	if c.Inner != nil {
		cp.Inner = c.Inner.clone()
	}
	if c.Parts != nil {
		cp.Parts = make([]*Constraint, len(c.Parts))
		for i, p := range c.Parts {
			cp.Parts[i] = p.clone()
		}
	}
	return &cp
}
