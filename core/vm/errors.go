// Copyright 2014 by the Authors
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

package vm

import (
	"errors"
	"fmt"
)

// Runtime error taxonomy (spec.md §7 "VM runtime"). FuelExhausted is
// deliberately NOT one of these: it is a non-fatal suspension result
// returned alongside a nil error, never something that unwinds the VM.
var (
	ErrUnhandledPerform = errors.New("vm: unhandled perform")
	ErrResumeTwice      = errors.New("vm: resumption token already consumed")
	ErrStackOverflowVM  = errors.New("vm: call stack overflow")
	ErrNullDereference  = errors.New("vm: null dereference")
	ErrOutOfMemory      = errors.New("vm: out of memory")
)

// ErrInvalidOpCode reports an opcode byte with no jump-table entry.
type ErrInvalidOpCode struct{ opcode OpCode }

func (e *ErrInvalidOpCode) Error() string { return fmt.Sprintf("vm: invalid opcode 0x%02x", uint8(e.opcode)) }

// ErrStackUnderflow/ErrStackOverflow mirror the teacher's own
// core/vm stack-depth errors, generalized from the value stack to the
// register file's operand-count checks performed per opcode.
type ErrStackUnderflow struct {
	stackLen int
	required int
}

func (e *ErrStackUnderflow) Error() string {
	return fmt.Sprintf("vm: stack underflow (%d elements, %d required)", e.stackLen, e.required)
}

type ErrStackOverflow struct {
	stackLen int
	limit    int
}

func (e *ErrStackOverflow) Error() string {
	return fmt.Sprintf("vm: stack overflow (%d elements, limit %d)", e.stackLen, e.limit)
}

// ArithmeticOverflow is raised by Div/Mod on a zero divisor; Add/Sub/Mul
// overflow of Int operands promotes to BigInt instead of raising it.
type ArithmeticOverflow struct{ Op string }

func (e *ArithmeticOverflow) Error() string { return fmt.Sprintf("vm: arithmetic overflow in %s", e.Op) }

// IndexOutOfBounds is raised by GetIndex/SetIndex.
type IndexOutOfBounds struct {
	Index int
	Len   int
}

func (e *IndexOutOfBounds) Error() string {
	return fmt.Sprintf("vm: index %d out of bounds (len %d)", e.Index, e.Len)
}

// TypeMismatch is raised whenever an opcode receives an operand Kind it
// does not accept.
type TypeMismatch struct {
	Op       string
	Expected string
	Got      string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("vm: %s expected %s, got %s", e.Op, e.Expected, e.Got)
}

// ToolErrorWrap surfaces a tool dispatcher failure as a VM runtime error.
type ToolErrorWrap struct{ Err error }

func (e *ToolErrorWrap) Error() string { return fmt.Sprintf("vm: tool error: %v", e.Err) }
func (e *ToolErrorWrap) Unwrap() error { return e.Err }
