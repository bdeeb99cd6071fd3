// Copyright 2015 The go-core Authors
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

// executionFunc runs one instruction; it returns a control signal and
// an error. The *int ip lets jump-class opcodes set the next program
// counter directly instead of the default pc++ (mirrors the teacher's
// own interpreter.go convention of an execute func taking *pc).
type executionFunc func(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error)

type ctrl uint8

const (
	ctrlNext ctrl = iota // pc++ (default)
	ctrlJumped           // execute func already updated *pc
	ctrlReturn
	ctrlTailCall // frame/register stack already replaced in place
	ctrlCall     // a new frame was pushed; caller's continuation IP was set before pushing
	ctrlHalt
	ctrlPerform
	ctrlToolCall
	ctrlAwait
	ctrlSpawn
)

// operation is one jump-table entry: the execute function plus the
// static fuel cost of the instruction (spec.md §4.2 "Fuel: callers set
// a budget in instruction count").
type operation struct {
	execute  executionFunc
	fuelCost uint64
	valid    bool
}

// JumpTable maps every OpCode to its operation.
type JumpTable [numOpcodes]*operation

var defaultJumpTable = newDefaultJumpTable()

func newDefaultJumpTable() JumpTable {
	var jt JumpTable
	set := func(op OpCode, fn executionFunc, cost uint64) {
		jt[op] = &operation{execute: fn, fuelCost: cost, valid: true}
	}

	set(LoadK, opLoadK, 1)
	set(LoadNull, opLoadNull, 1)
	set(LoadBool, opLoadBool, 1)
	set(Move, opMove, 1)

	set(NewList, opNewList, 2)
	set(NewMap, opNewMap, 2)
	set(NewTuple, opNewTuple, 2)
	set(NewSet, opNewSet, 2)
	set(NewRecord, opNewRecord, 3)
	set(NewUnion, opNewUnion, 2)

	set(GetIndex, opGetIndex, 2)
	set(SetIndex, opSetIndex, 2)
	set(GetField, opGetField, 2)
	set(SetField, opSetField, 2)

	set(Add, opArith, 1)
	set(Sub, opArith, 1)
	set(Mul, opArith, 1)
	set(Div, opArith, 1)
	set(Mod, opArith, 1)
	set(Neg, opArith, 1)
	set(BAnd, opArith, 1)
	set(BOr, opArith, 1)
	set(BXor, opArith, 1)
	set(BNot, opArith, 1)
	set(Shl, opArith, 1)
	set(Shr, opArith, 1)
	set(Eq, opCompare, 1)
	set(Lt, opCompare, 1)
	set(Le, opCompare, 1)

	set(Jmp, opJmp, 1)
	set(Call, opCall, 2)
	set(TailCall, opTailCall, 2)
	set(Return, opReturn, 1)
	set(ForPrep, opForPrep, 1)
	set(ForLoop, opForLoop, 1)
	set(ForIn, opForIn, 2)
	set(Break, opJmp, 1)
	set(Continue, opJmp, 1)

	set(ToolCall, opToolCall, 4)
	set(Perform, opPerform, 3)
	set(HandlePush, opHandlePush, 2)
	set(HandlePop, opHandlePop, 1)
	set(Resume, opResume, 2)
	set(Await, opAwait, 2)
	set(Spawn, opSpawn, 4)
	set(Schema, opSchema, 3)
	set(Emit, opEmit, 2)
	set(TraceRef, opTraceRef, 1)

	set(MakeClosure, opMakeClosure, 3)
	set(GetUpval, opGetUpval, 1)
	set(SetUpval, opSetUpval, 1)

	set(IsVariant, opIsVariant, 2)
	set(Unbox, opUnbox, 1)

	set(Intrinsic, opIntrinsic, 3)

	set(Halt, opHalt, 0)

	return jt
}
