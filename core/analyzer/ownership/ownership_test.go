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

package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/core/analyzer/ir"
)

func hasKind(errs []*Error, kind ErrorKind) bool {
	for _, e := range errs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestCopyVariableUsedTwiceIsFine(t *testing.T) {
	c := New()
	c.Declare("n", Copy)
	c.Use("n", 1)
	c.Use("n", 2)
	assert.Empty(t, c.Errors())
}

func TestOwnedVariableSecondUseIsError(t *testing.T) {
	c := New()
	c.Declare("buf", Owned)
	c.Use("buf", 1)
	c.Use("buf", 2)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, UseAfterMove, c.Errors()[0].Kind)
}

func TestImmutableBorrowThenMutableBorrowConflicts(t *testing.T) {
	c := New()
	c.Declare("buf", Owned)
	c.Borrow("buf", false, 1)
	c.Borrow("buf", true, 2)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, BorrowConflict, c.Errors()[0].Kind)
}

func TestMultipleImmutableBorrowsAreFine(t *testing.T) {
	c := New()
	c.Declare("buf", Owned)
	c.Borrow("buf", false, 1)
	c.Borrow("buf", false, 2)
	assert.Empty(t, c.Errors())
}

func TestMoveWhileBorrowedIsError(t *testing.T) {
	c := New()
	c.Declare("buf", Owned)
	c.Borrow("buf", false, 1)
	c.Use("buf", 2)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, MoveWhileBorrowed, c.Errors()[0].Kind)
}

func TestCategoryOfBuiltinScalarIsCopy(t *testing.T) {
	assert.Equal(t, Copy, CategoryOf(&ir.Type{Name: "Int"}))
	assert.Equal(t, Copy, CategoryOf(&ir.Type{Name: "Bool"}))
	assert.Equal(t, Owned, CategoryOf(&ir.Type{Name: "String"}))
	assert.Equal(t, Owned, CategoryOf(&ir.Type{Name: "Widget"}))
	assert.Equal(t, Owned, CategoryOf(nil))
}

func TestCheckCellMovesOwnedParamOnReturn(t *testing.T) {
	cell := &ir.CellDef{
		Name: "consume",
		Params: []ir.ParamDef{
			{Name: "buf", Type: &ir.Type{Name: "String"}},
		},
		Body: []ir.Stmt{
			&ir.ReturnStmt{Value: &ir.IdentExpr{Name: "buf"}},
		},
	}
	errs := CheckCell(cell)
	assert.Empty(t, errs)
}

func TestCheckCellUseAfterMoveDetected(t *testing.T) {
	cell := &ir.CellDef{
		Name: "double_consume",
		Params: []ir.ParamDef{
			{Name: "buf", Type: &ir.Type{Name: "String"}},
		},
		Body: []ir.Stmt{
			&ir.ExprStmt{Expr: &ir.CallExpr{
				Callee: &ir.IdentExpr{Name: "consume"},
				Args:   []ir.CallArg{{Kind: ir.ArgPositional, Value: &ir.IdentExpr{Name: "buf"}}},
			}},
			&ir.ReturnStmt{Value: &ir.IdentExpr{Name: "buf"}},
		},
	}
	errs := CheckCell(cell)
	require.True(t, hasKind(errs, UseAfterMove))
}

func TestCheckCellNotConsumedWarning(t *testing.T) {
	cell := &ir.CellDef{
		Name: "unused_owned",
		Body: []ir.Stmt{
			&ir.LetStmt{Name: "buf", Type: &ir.Type{Name: "String"}, Value: &ir.StringLitExpr{Value: "hi"}},
			&ir.ReturnStmt{Value: &ir.IntLitExpr{Value: 0}},
		},
	}
	errs := CheckCell(cell)
	require.True(t, hasKind(errs, NotConsumed))
}

func TestFieldAccessDoesNotConsume(t *testing.T) {
	cell := &ir.CellDef{
		Name: "read_field",
		Params: []ir.ParamDef{
			{Name: "rec", Type: &ir.Type{Name: "Point"}},
		},
		Body: []ir.Stmt{
			&ir.ExprStmt{Expr: &ir.DotAccessExpr{Base: &ir.IdentExpr{Name: "rec"}, Member: "x"}},
			&ir.ReturnStmt{Value: &ir.IdentExpr{Name: "rec"}},
		},
	}
	errs := CheckCell(cell)
	assert.Empty(t, errs)
}

func TestBranchMergeDisagreementOnMoveIsError(t *testing.T) {
	cell := &ir.CellDef{
		Name: "branch_move",
		Params: []ir.ParamDef{
			{Name: "buf", Type: &ir.Type{Name: "String"}},
		},
		Body: []ir.Stmt{
			&ir.IfStmt{
				Condition: &ir.BoolLitExpr{Value: true},
				Then: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.IdentExpr{Name: "consume"},
						Args:   []ir.CallArg{{Kind: ir.ArgPositional, Value: &ir.IdentExpr{Name: "buf"}}},
					}},
				},
				Else: []ir.Stmt{},
			},
		},
	}
	errs := CheckCell(cell)
	require.True(t, hasKind(errs, BorrowConflict))
}

func TestBranchMergeAgreementOnMoveIsFine(t *testing.T) {
	cell := &ir.CellDef{
		Name: "branch_consistent",
		Params: []ir.ParamDef{
			{Name: "buf", Type: &ir.Type{Name: "String"}},
		},
		Body: []ir.Stmt{
			&ir.IfStmt{
				Condition: &ir.BoolLitExpr{Value: true},
				Then: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.IdentExpr{Name: "consume"},
						Args:   []ir.CallArg{{Kind: ir.ArgPositional, Value: &ir.IdentExpr{Name: "buf"}}},
					}},
				},
				Else: []ir.Stmt{
					&ir.ExprStmt{Expr: &ir.CallExpr{
						Callee: &ir.IdentExpr{Name: "consume"},
						Args:   []ir.CallArg{{Kind: ir.ArgPositional, Value: &ir.IdentExpr{Name: "buf"}}},
					}},
				},
			},
		},
	}
	errs := CheckCell(cell)
	assert.False(t, hasKind(errs, BorrowConflict))
	assert.False(t, hasKind(errs, NotConsumed))
}
