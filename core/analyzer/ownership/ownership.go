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

// Package ownership implements the affine ownership and borrow checker
// run over a cell body: every variable is either Copy (usable any
// number of times) or Owned (usable at most once), and borrows gate
// moves the way a single-writer-or-many-readers lock would.
//
// There is no original-language source to adapt this from; it is
// built directly from the category/state/borrow rules a cell body must
// obey, in the same snapshot-and-restore-at-branches shape the
// typestate checker uses for its own branch merging.
package ownership

import (
	"fmt"

	"github.com/lumen-run/lumen/core/analyzer/ir"
)

// Category classifies how many times a variable may be used.
type Category uint8

const (
	Copy Category = iota
	Owned
)

// State is a variable's lifecycle position.
type State uint8

const (
	Alive State = iota
	Moved
	Dropped
)

// copyTypes names the builtin scalar types that are Copy; everything
// else (records, enums, containers, strings) is Owned.
var copyTypes = map[string]bool{
	"Int": true, "Float": true, "Bool": true, "Null": true,
}

// CategoryOf derives a variable's category from its declared type.
// Untyped variables (t == nil) default to Owned, the conservative
// choice: an analysis that can't prove a value is freely reusable must
// treat it as consumed by its first use.
func CategoryOf(t *ir.Type) Category {
	if t != nil && copyTypes[t.Name] {
		return Copy
	}
	return Owned
}

// ErrorKind distinguishes the ways a cell body can violate ownership
// rules. NotConsumed is the sole warning-level kind; everything else is
// a hard error.
type ErrorKind uint8

const (
	UseAfterMove ErrorKind = iota
	MoveWhileBorrowed
	BorrowConflict
	NotConsumed
)

// Error is one ownership violation.
type Error struct {
	Kind ErrorKind
	Var  string
	Line int
}

func (e *Error) Error() string {
	switch e.Kind {
	case UseAfterMove:
		return fmt.Sprintf("use after move: '%s' was already moved (line %d)", e.Var, e.Line)
	case MoveWhileBorrowed:
		return fmt.Sprintf("cannot move '%s' while it is borrowed (line %d)", e.Var, e.Line)
	case BorrowConflict:
		return fmt.Sprintf("borrow conflict on '%s' (line %d)", e.Var, e.Line)
	case NotConsumed:
		return fmt.Sprintf("'%s' is never consumed before scope exit (line %d)", e.Var, e.Line)
	default:
		return "ownership: unknown error"
	}
}

type varState struct {
	category    Category
	state       State
	borrows     int
	mutBorrowed bool
}

// Checker walks a cell body tracking the ownership state of every
// local variable it declares or receives as a parameter.
type Checker struct {
	vars   map[string]*varState
	errors []*Error
}

// New returns an empty checker.
func New() *Checker {
	return &Checker{vars: make(map[string]*varState)}
}

// Declare introduces a new tracked variable in the Alive state,
// overwriting any prior binding of the same name (a shadowing let or a
// reassignment both start the variable fresh).
func (c *Checker) Declare(name string, category Category) {
	c.vars[name] = &varState{category: category, state: Alive}
}

// Use consumes a variable at a "by value" position: a call argument, a
// return value, a literal's element, or an assignment's right-hand
// side. Copy variables are unaffected; an Owned variable must be Alive
// and unborrowed, after which it transitions to Moved.
func (c *Checker) Use(name string, line int) {
	v, ok := c.vars[name]
	if !ok {
		return // not a tracked local (e.g. a global or a cell name)
	}
	if v.category == Copy {
		return
	}
	switch v.state {
	case Moved, Dropped:
		c.errors = append(c.errors, &Error{Kind: UseAfterMove, Var: name, Line: line})
		return
	}
	if v.borrows > 0 || v.mutBorrowed {
		c.errors = append(c.errors, &Error{Kind: MoveWhileBorrowed, Var: name, Line: line})
		return
	}
	v.state = Moved
}

// Borrow takes an immutable (mutable=false) or mutable (mutable=true)
// borrow of name. An immutable borrow is permitted unless the variable
// is already mutably borrowed; a mutable borrow requires no borrows of
// either kind be outstanding.
func (c *Checker) Borrow(name string, mutable bool, line int) {
	v, ok := c.vars[name]
	if !ok {
		return
	}
	if v.state != Alive {
		c.errors = append(c.errors, &Error{Kind: UseAfterMove, Var: name, Line: line})
		return
	}
	if mutable {
		if v.borrows > 0 || v.mutBorrowed {
			c.errors = append(c.errors, &Error{Kind: BorrowConflict, Var: name, Line: line})
			return
		}
		v.mutBorrowed = true
		return
	}
	if v.mutBorrowed {
		c.errors = append(c.errors, &Error{Kind: BorrowConflict, Var: name, Line: line})
		return
	}
	v.borrows++
}

// Errors returns every violation accumulated so far.
func (c *Checker) Errors() []*Error { return c.errors }

// snapshot copies the current variable table for branch analysis.
func (c *Checker) snapshot() map[string]varState {
	out := make(map[string]varState, len(c.vars))
	for k, v := range c.vars {
		out[k] = *v
	}
	return out
}

func (c *Checker) restore(snap map[string]varState) {
	c.vars = make(map[string]*varState, len(snap))
	for k, v := range snap {
		vv := v
		c.vars[k] = &vv
	}
}

// mergeBranches checks that every branch snapshot agrees on each
// variable's resulting Moved-ness and borrow counts, recording an
// error per disagreement, then leaves the checker in the first
// branch's resulting state (the branches should agree; if they didn't,
// an error was already recorded).
func (c *Checker) mergeBranches(branches []map[string]varState, line int) {
	if len(branches) == 0 {
		return
	}
	first := branches[0]
	for name, firstState := range first {
		for _, other := range branches[1:] {
			otherState, ok := other[name]
			if !ok {
				continue
			}
			if (firstState.state == Moved) != (otherState.state == Moved) {
				c.errors = append(c.errors, &Error{Kind: BorrowConflict, Var: name, Line: line})
			} else if firstState.borrows != otherState.borrows || firstState.mutBorrowed != otherState.mutBorrowed {
				c.errors = append(c.errors, &Error{Kind: BorrowConflict, Var: name, Line: line})
			}
		}
	}
	c.restore(first)
}

// CheckScopeExit drops every Alive Owned variable and warns (via a
// NotConsumed error) for each one that was never moved.
func (c *Checker) CheckScopeExit(line int) {
	for name, v := range c.vars {
		if v.category == Owned && v.state == Alive {
			c.errors = append(c.errors, &Error{Kind: NotConsumed, Var: name, Line: line})
		}
		if v.state == Alive {
			v.state = Dropped
		}
	}
}

// CheckCell declares every parameter, walks the cell's body, and
// checks scope exit at the end. It returns every accumulated Error
// (ownership violations and NotConsumed warnings are not
// distinguished in the returned slice; callers filter on Kind).
func CheckCell(cell *ir.CellDef) []*Error {
	c := New()
	for _, p := range cell.Params {
		c.Declare(p.Name, CategoryOf(p.Type))
	}
	for _, s := range cell.Body {
		c.checkStmt(s)
	}
	c.CheckScopeExit(cell.Span.Line)
	return c.errors
}

func (c *Checker) checkStmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.LetStmt:
		c.checkExpr(s.Value)
		c.Declare(s.Name, CategoryOf(s.Type))
	case *ir.AssignStmt:
		c.checkExpr(s.Value)
		if v, ok := c.vars[s.Target]; ok {
			v.state = Alive
			v.borrows = 0
			v.mutBorrowed = false
		}
	case *ir.CompoundAssignStmt:
		c.Use(s.Target, s.Span.Line)
		c.checkExpr(s.Value)
		if v, ok := c.vars[s.Target]; ok {
			v.state = Alive
		}
	case *ir.ExprStmt:
		c.checkExpr(s.Expr)
	case *ir.IfStmt:
		c.checkExpr(s.Condition)
		pre := c.snapshot()
		for _, st := range s.Then {
			c.checkStmt(st)
		}
		thenSnap := c.snapshot()
		if s.Else != nil {
			c.restore(pre)
			for _, st := range s.Else {
				c.checkStmt(st)
			}
			elseSnap := c.snapshot()
			c.mergeBranches([]map[string]varState{thenSnap, elseSnap}, s.Span.Line)
		} else {
			c.mergeBranches([]map[string]varState{thenSnap, pre}, s.Span.Line)
		}
	case *ir.ReturnStmt:
		c.checkExpr(s.Value)
	case *ir.HaltStmt:
		c.checkExpr(s.Message)
	case *ir.ForStmt:
		c.checkExpr(s.Iter)
		if s.Filter != nil {
			c.checkExpr(s.Filter)
		}
		for _, st := range s.Body {
			c.checkStmt(st)
		}
	case *ir.WhileStmt:
		c.checkExpr(s.Condition)
		for _, st := range s.Body {
			c.checkStmt(st)
		}
	case *ir.LoopStmt:
		for _, st := range s.Body {
			c.checkStmt(st)
		}
	case *ir.MatchStmt:
		c.checkExpr(s.Subject)
		pre := c.snapshot()
		var arms []map[string]varState
		for _, arm := range s.Arms {
			c.restore(pre)
			if arm.Guard != nil {
				c.checkExpr(arm.Guard)
			}
			for _, st := range arm.Body {
				c.checkStmt(st)
			}
			arms = append(arms, c.snapshot())
		}
		c.mergeBranches(arms, s.Span.Line)
	case *ir.EmitStmt:
		c.checkExpr(s.Value)
	case *ir.DeferStmt:
		for _, st := range s.Body {
			c.checkStmt(st)
		}
	case *ir.YieldStmt:
		c.checkExpr(s.Value)
	case *ir.BreakStmt, *ir.ContinueStmt:
		// no-op
	}
}

// checkExpr recurses through an expression, treating a bare identifier
// in a "by value" position (call argument, literal element, record
// field, borrow target) as a use, while comparisons, field access, and
// indexing read through to their base without consuming it.
func (c *Checker) checkExpr(e ir.Expr) {
	switch e := e.(type) {
	case *ir.IdentExpr:
		c.Use(e.Name, e.Span.Line)
	case *ir.RefExpr:
		if ident, ok := e.Inner.(*ir.IdentExpr); ok {
			c.Borrow(ident.Name, e.Mutable, e.Span.Line)
			return
		}
		c.checkExpr(e.Inner)
	case *ir.CallExpr:
		c.checkExprBorrowed(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a.Value)
		}
	case *ir.ToolCallExpr:
		c.checkExprBorrowed(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a.Value)
		}
	case *ir.DotAccessExpr:
		c.checkExprBorrowed(e.Base)
	case *ir.IndexAccessExpr:
		c.checkExprBorrowed(e.Base)
		c.checkExprBorrowed(e.Index)
	case *ir.BinOpExpr:
		c.checkExprBorrowed(e.Left)
		c.checkExprBorrowed(e.Right)
	case *ir.UnaryOpExpr:
		c.checkExprBorrowed(e.Operand)
	case *ir.ListLitExpr:
		for _, el := range e.Elems {
			c.checkExpr(el)
		}
	case *ir.SetLitExpr:
		for _, el := range e.Elems {
			c.checkExpr(el)
		}
	case *ir.TupleLitExpr:
		for _, el := range e.Elems {
			c.checkExpr(el)
		}
	case *ir.MapLitExpr:
		for _, entry := range e.Entries {
			c.checkExpr(entry.Key)
			c.checkExpr(entry.Value)
		}
	case *ir.RecordLitExpr:
		for _, f := range e.Fields {
			c.checkExpr(f.Value)
		}
	case *ir.IfExprExpr:
		c.checkExprBorrowed(e.Cond)
		c.checkExpr(e.Then)
		c.checkExpr(e.Else)
	case *ir.LambdaExpr:
		for _, st := range e.Body {
			c.checkStmt(st)
		}
	case *ir.BlockExpr:
		for _, st := range e.Body {
			c.checkStmt(st)
		}
	case *ir.PipeExpr:
		c.checkExprBorrowed(e.Left)
		c.checkExpr(e.Right)
	case *ir.StringInterpExpr:
		for _, seg := range e.Segments {
			if seg.Interpolation != nil {
				c.checkExprBorrowed(seg.Interpolation)
			}
		}
	case *ir.AwaitExpr:
		c.checkExpr(e.Inner)
	case *ir.TryExpr:
		c.checkExpr(e.Inner)
	case *ir.ResumeExpr:
		c.checkExpr(e.Inner)
	case *ir.PerformExpr:
		for _, a := range e.Args {
			c.checkExpr(a)
		}
	case *ir.HandleExpr:
		for _, st := range e.Body {
			c.checkStmt(st)
		}
		for _, h := range e.Handlers {
			for _, st := range h.Body {
				c.checkStmt(st)
			}
		}
	case *ir.MatchExprExpr:
		c.checkExprBorrowed(e.Subject)
		for _, arm := range e.Arms {
			for _, st := range arm.Body {
				c.checkStmt(st)
			}
		}
	}
}

// checkExprBorrowed recurses without treating a bare identifier as a
// consuming use — the position is a read (comparison operand, call
// receiver, index base) rather than a by-value handoff.
func (c *Checker) checkExprBorrowed(e ir.Expr) {
	if _, ok := e.(*ir.IdentExpr); ok {
		return
	}
	c.checkExpr(e)
}
