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

package typestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/core/analyzer/ir"
)

func connectionDecl() Decl {
	return Decl{
		TypeName:     "Connection",
		States:       []string{"Closed", "Open"},
		InitialState: "Closed",
		Transitions: []Transition{
			{FromState: "Closed", ToState: "Open", ViaMethod: "open"},
			{FromState: "Open", ToState: "Closed", ViaMethod: "close"},
			{FromState: "Open", ToState: "Open", ViaMethod: "write"},
		},
	}
}

func hasKind(errs []*Error, kind ErrorKind) bool {
	for _, e := range errs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestInitVarSetsInitialState(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	c.InitVar("conn", "Connection", 1)
	state, ok := c.CurrentState("conn")
	require.True(t, ok)
	assert.Equal(t, "Closed", state)
}

func TestInitVarUndeclaredTypeErrors(t *testing.T) {
	c := New()
	c.InitVar("conn", "Connection", 1)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, UndeclaredTypestate, c.Errors()[0].Kind)
}

func TestValidTransitionUpdatesState(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	c.InitVar("conn", "Connection", 1)
	newState, ok := c.CheckMethodCall("conn", "open", 2)
	require.True(t, ok)
	assert.Equal(t, "Open", newState)
	assert.Empty(t, c.Errors())
}

func TestInvalidTransitionErrors(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	c.InitVar("conn", "Connection", 1)
	_, ok := c.CheckMethodCall("conn", "write", 2) // still Closed
	assert.False(t, ok)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, InvalidTransition, c.Errors()[0].Kind)
}

func TestUninitializedTypestateUseErrors(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	c.varTypes["conn"] = "Connection" // typed but never InitVar'd
	_, ok := c.CheckMethodCall("conn", "open", 2)
	assert.False(t, ok)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, UninitializedTypestate, c.Errors()[0].Kind)
}

func TestUntrackedVariableIsNoOp(t *testing.T) {
	c := New()
	_, ok := c.CheckMethodCall("whatever", "foo", 1)
	assert.True(t, ok)
	assert.Empty(t, c.Errors())
}

func TestMergeStatesAgreeingIsFine(t *testing.T) {
	c := New()
	state, ok := c.MergeStates("conn", "Open", "Open", 1)
	assert.True(t, ok)
	assert.Equal(t, "Open", state)
	assert.Empty(t, c.Errors())
}

func TestMergeStatesDisagreeingErrors(t *testing.T) {
	c := New()
	_, ok := c.MergeStates("conn", "Open", "Closed", 1)
	assert.False(t, ok)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, BranchStateMismatch, c.Errors()[0].Kind)
}

func TestCheckCellConstructorThenValidTransition(t *testing.T) {
	cell := &ir.CellDef{
		Name: "use_conn",
		Body: []ir.Stmt{
			&ir.LetStmt{Name: "conn", Value: &ir.RecordLitExpr{TypeName: "Connection"}},
			&ir.ExprStmt{Expr: &ir.CallExpr{
				Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "open"},
			}},
			&ir.ExprStmt{Expr: &ir.CallExpr{
				Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "close"},
			}},
		},
	}
	c := New()
	errs := c.CheckCell(cell, map[string]Decl{"Connection": connectionDecl()})
	assert.Empty(t, errs)
}

func TestCheckCellInvalidTransitionDetected(t *testing.T) {
	cell := &ir.CellDef{
		Name: "double_close",
		Body: []ir.Stmt{
			&ir.LetStmt{Name: "conn", Value: &ir.RecordLitExpr{TypeName: "Connection"}},
			&ir.ExprStmt{Expr: &ir.CallExpr{
				Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "close"},
			}},
		},
	}
	c := New()
	errs := c.CheckCell(cell, map[string]Decl{"Connection": connectionDecl()})
	require.True(t, hasKind(errs, InvalidTransition))
}

func TestCheckCellBranchJoinAgreementIsFine(t *testing.T) {
	cell := &ir.CellDef{
		Name: "conditional_open",
		Body: []ir.Stmt{
			&ir.LetStmt{Name: "conn", Value: &ir.RecordLitExpr{TypeName: "Connection"}},
			&ir.IfStmt{
				Condition: &ir.BoolLitExpr{Value: true},
				Then: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "open"},
					}},
				},
				Else: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "open"},
					}},
				},
			},
		},
	}
	c := New()
	errs := c.CheckCell(cell, map[string]Decl{"Connection": connectionDecl()})
	assert.False(t, hasKind(errs, BranchStateMismatch))
}

func TestCheckCellBranchJoinMismatchDetected(t *testing.T) {
	cell := &ir.CellDef{
		Name: "conditional_open_only_then",
		Body: []ir.Stmt{
			&ir.LetStmt{Name: "conn", Value: &ir.RecordLitExpr{TypeName: "Connection"}},
			&ir.IfStmt{
				Condition: &ir.BoolLitExpr{Value: true},
				Then: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "conn"}, Member: "open"},
					}},
				},
				Else: []ir.Stmt{},
			},
		},
	}
	c := New()
	errs := c.CheckCell(cell, map[string]Decl{"Connection": connectionDecl()})
	require.True(t, hasKind(errs, BranchStateMismatch))
}

func TestExtractConstructorTypeFromStaticMethod(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	typeName, ok := c.extractConstructorType(&ir.CallExpr{
		Callee: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "Connection"}, Member: "new"},
	})
	require.True(t, ok)
	assert.Equal(t, "Connection", typeName)
}

func TestExtractConstructorTypeIgnoresUnrelatedCall(t *testing.T) {
	c := New()
	c.Declare(connectionDecl())
	_, ok := c.extractConstructorType(&ir.CallExpr{
		Callee: &ir.IdentExpr{Name: "do_something"},
	})
	assert.False(t, ok)
}
