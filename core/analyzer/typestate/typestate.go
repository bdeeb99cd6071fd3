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

// Package typestate checks that operations on a typestate-tracked
// variable are valid transitions from its current state: a finite
// state machine layered on top of a type, e.g. a File that must be
// Open before read/write and moves to Closed only via close().
//
// Like the original this pass is opt-in — nothing in core/analyzer
// wires it automatically into resolve's output. A caller registers the
// Decl set a program declares and calls CheckCell per cell body.
package typestate

import (
	"fmt"

	"github.com/lumen-run/lumen/core/analyzer/ir"
)

// Transition is one valid state-to-state move, triggered by calling
// ViaMethod on a variable currently in FromState.
type Transition struct {
	FromState string
	ToState   string
	ViaMethod string
}

// Decl declares a typestate: the states a type can be in, which state
// a freshly constructed value starts in, and its valid transitions.
type Decl struct {
	TypeName     string
	States       []string
	InitialState string
	Transitions  []Transition
}

// ErrorKind distinguishes the ways a cell body can violate a typestate.
type ErrorKind uint8

const (
	InvalidTransition ErrorKind = iota
	UninitializedTypestate
	UndeclaredTypestate
	BranchStateMismatch
)

// Error is one typestate violation.
type Error struct {
	Kind             ErrorKind
	Var              string
	TypeName         string
	CurrentState     string
	AttemptedMethod  string
	ThenState        string
	ElseState        string
	Line             int
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidTransition:
		return fmt.Sprintf("invalid transition: '%s' is in state '%s', method '%s' is not valid (line %d)",
			e.Var, e.CurrentState, e.AttemptedMethod, e.Line)
	case UninitializedTypestate:
		return fmt.Sprintf("typestate '%s' variable '%s' used before initialization (line %d)", e.TypeName, e.Var, e.Line)
	case UndeclaredTypestate:
		return fmt.Sprintf("undeclared typestate '%s' (line %d)", e.TypeName, e.Line)
	case BranchStateMismatch:
		return fmt.Sprintf("typestate mismatch at branch join: '%s' is '%s' in then-branch but '%s' in else-branch (line %d)",
			e.Var, e.ThenState, e.ElseState, e.Line)
	default:
		return "typestate: unknown error"
	}
}

// Checker tracks the current typestate of each variable during a walk
// of a cell body.
type Checker struct {
	declarations map[string]Decl
	varStates    map[string]string
	varTypes     map[string]string
	errors       []*Error
}

// New returns an empty checker.
func New() *Checker {
	return &Checker{
		declarations: make(map[string]Decl),
		varStates:    make(map[string]string),
		varTypes:     make(map[string]string),
	}
}

// Declare registers a typestate declaration.
func (c *Checker) Declare(decl Decl) {
	c.declarations[decl.TypeName] = decl
}

// InitVar initializes a variable to the initial state of its
// typestate. It records an UndeclaredTypestate error if typeName has
// no Decl.
func (c *Checker) InitVar(varName, typeName string, line int) {
	decl, ok := c.declarations[typeName]
	if !ok {
		c.errors = append(c.errors, &Error{Kind: UndeclaredTypestate, TypeName: typeName, Line: line})
		return
	}
	c.varStates[varName] = decl.InitialState
	c.varTypes[varName] = typeName
}

// CheckMethodCall verifies that method is a valid transition from the
// current state of varName. On success it updates the variable's state
// and returns the new state; otherwise it records an Error and leaves
// the variable's state unchanged.
func (c *Checker) CheckMethodCall(varName, method string, line int) (newState string, ok bool) {
	currentState, tracked := c.varStates[varName]
	if !tracked {
		if typeName, hasType := c.varTypes[varName]; hasType {
			c.errors = append(c.errors, &Error{Kind: UninitializedTypestate, Var: varName, TypeName: typeName, Line: line})
			return "", false
		}
		return "", true // not typestate-tracked at all: no-op
	}

	typeName := c.varTypes[varName]
	decl, ok := c.declarations[typeName]
	if !ok {
		c.errors = append(c.errors, &Error{Kind: UndeclaredTypestate, TypeName: typeName, Line: line})
		return "", false
	}

	for _, tr := range decl.Transitions {
		if tr.FromState == currentState && tr.ViaMethod == method {
			c.varStates[varName] = tr.ToState
			return tr.ToState, true
		}
	}

	c.errors = append(c.errors, &Error{
		Kind: InvalidTransition, Var: varName, CurrentState: currentState, AttemptedMethod: method, Line: line,
	})
	return "", false
}

// CurrentState returns the current state of varName, if tracked.
func (c *Checker) CurrentState(varName string) (string, bool) {
	s, ok := c.varStates[varName]
	return s, ok
}

// IsTracked reports whether varName is governed by a typestate.
func (c *Checker) IsTracked(varName string) bool {
	_, ok := c.varTypes[varName]
	return ok
}

// MergeStates checks that two branch-end states for the same variable
// agree, recording a BranchStateMismatch error if they don't.
func (c *Checker) MergeStates(varName, thenState, elseState string, line int) (string, bool) {
	if thenState == elseState {
		return thenState, true
	}
	c.errors = append(c.errors, &Error{
		Kind: BranchStateMismatch, Var: varName, ThenState: thenState, ElseState: elseState, Line: line,
	})
	return "", false
}

// Errors returns every violation accumulated so far.
func (c *Checker) Errors() []*Error { return c.errors }

type snapshot struct {
	states map[string]string
	types  map[string]string
}

func (c *Checker) snapshot() snapshot {
	s := snapshot{states: make(map[string]string, len(c.varStates)), types: make(map[string]string, len(c.varTypes))}
	for k, v := range c.varStates {
		s.states[k] = v
	}
	for k, v := range c.varTypes {
		s.types[k] = v
	}
	return s
}

func (c *Checker) restore(s snapshot) {
	c.varStates = make(map[string]string, len(s.states))
	for k, v := range s.states {
		c.varStates[k] = v
	}
	c.varTypes = make(map[string]string, len(s.types))
	for k, v := range s.types {
		c.varTypes[k] = v
	}
}

// CheckCell registers every Decl in typeEnv, then walks cell's body
// checking every method call on a typestate-tracked variable. It
// returns the accumulated errors.
func (c *Checker) CheckCell(cell *ir.CellDef, typeEnv map[string]Decl) []*Error {
	for name, decl := range typeEnv {
		c.declarations[name] = decl
	}
	for _, s := range cell.Body {
		c.checkStmt(s)
	}
	return c.errors
}

func (c *Checker) checkStmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.LetStmt:
		c.checkExpr(s.Value)
		if typeName, ok := c.extractConstructorType(s.Value); ok {
			c.InitVar(s.Name, typeName, s.Span.Line)
		}
	case *ir.AssignStmt:
		c.checkExpr(s.Value)
		if typeName, ok := c.extractConstructorType(s.Value); ok {
			c.InitVar(s.Target, typeName, s.Span.Line)
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

			for varName, thenState := range thenSnap.states {
				if elseState, ok := elseSnap.states[varName]; ok && thenState != elseState {
					c.errors = append(c.errors, &Error{
						Kind: BranchStateMismatch, Var: varName, ThenState: thenState, ElseState: elseState, Line: s.Span.Line,
					})
				}
			}
			c.restore(thenSnap)
		} else {
			for varName, thenState := range thenSnap.states {
				if origState, ok := pre.states[varName]; ok && thenState != origState {
					c.errors = append(c.errors, &Error{
						Kind: BranchStateMismatch, Var: varName, ThenState: thenState, ElseState: origState, Line: s.Span.Line,
					})
				}
			}
			c.restore(pre)
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
		var armStates []map[string]string
		for _, arm := range s.Arms {
			c.restore(pre)
			for _, st := range arm.Body {
				c.checkStmt(st)
			}
			snap := make(map[string]string, len(c.varStates))
			for k, v := range c.varStates {
				snap[k] = v
			}
			armStates = append(armStates, snap)
		}
		if len(armStates) > 0 {
			first := armStates[0]
			for varName, firstState := range first {
				for i := 1; i < len(armStates); i++ {
					if otherState, ok := armStates[i][varName]; ok && firstState != otherState {
						c.errors = append(c.errors, &Error{
							Kind: BranchStateMismatch, Var: varName, ThenState: firstState, ElseState: otherState, Line: s.Span.Line,
						})
					}
				}
			}
			c.varStates = make(map[string]string, len(first))
			for k, v := range first {
				c.varStates[k] = v
			}
		}
	case *ir.CompoundAssignStmt:
		c.checkExpr(s.Value)
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

func (c *Checker) checkExpr(e ir.Expr) {
	switch e := e.(type) {
	case *ir.CallExpr:
		for _, a := range e.Args {
			c.checkExpr(a.Value)
		}
		if dot, ok := e.Callee.(*ir.DotAccessExpr); ok {
			if base, ok := dot.Base.(*ir.IdentExpr); ok && c.IsTracked(base.Name) {
				c.CheckMethodCall(base.Name, dot.Member, e.Span.Line)
				return
			}
		}
		c.checkExpr(e.Callee)
	case *ir.DotAccessExpr:
		c.checkExpr(e.Base)
	case *ir.BinOpExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ir.UnaryOpExpr:
		c.checkExpr(e.Operand)
	case *ir.ToolCallExpr:
		c.checkExpr(e.Callee)
		for _, a := range e.Args {
			c.checkExpr(a.Value)
		}
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
	case *ir.IndexAccessExpr:
		c.checkExpr(e.Base)
		c.checkExpr(e.Index)
	case *ir.IfExprExpr:
		c.checkExpr(e.Cond)
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
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
	case *ir.StringInterpExpr:
		for _, seg := range e.Segments {
			if seg.Interpolation != nil {
				c.checkExpr(seg.Interpolation)
			}
		}
	case *ir.AwaitExpr:
		c.checkExpr(e.Inner)
	case *ir.TryExpr:
		c.checkExpr(e.Inner)
	case *ir.ResumeExpr:
		c.checkExpr(e.Inner)
	case *ir.RefExpr:
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
		c.checkExpr(e.Subject)
		for _, arm := range e.Arms {
			for _, st := range arm.Body {
				c.checkStmt(st)
			}
		}
	}
}

// extractConstructorType recognizes TypeName.method(...) and a
// TypeName record literal as constructors of a declared typestate.
func (c *Checker) extractConstructorType(e ir.Expr) (string, bool) {
	switch e := e.(type) {
	case *ir.CallExpr:
		switch callee := e.Callee.(type) {
		case *ir.DotAccessExpr:
			if base, ok := callee.Base.(*ir.IdentExpr); ok {
				if _, declared := c.declarations[base.Name]; declared {
					return base.Name, true
				}
			}
		case *ir.IdentExpr:
			if _, declared := c.declarations[callee.Name]; declared {
				return callee.Name, true
			}
		}
	case *ir.RecordLitExpr:
		if _, declared := c.declarations[e.TypeName]; declared {
			return e.TypeName, true
		}
	}
	return "", false
}
