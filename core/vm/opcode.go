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

// Package vm implements the register-based bytecode executor (C2):
// instruction decode, the opcode jump table, call frames, the effect
// handler stack, fuel-bounded stepping, and the debug callback hook.
package vm

// OpCode identifies one of the fixed-width instruction forms described
// in spec.md §4.2.
type OpCode uint8

const (
	// Load/move.
	LoadK   OpCode = iota // ABx:  R(A) = K(Bx)
	LoadNull              // ABC:  R(A)..R(A+B) = Null
	LoadBool              // ABC:  R(A) = bool(B); if C, skip next
	Move                  // ABC:  R(A) = R(B)

	// Data construction.
	NewList
	NewMap
	NewTuple
	NewSet
	NewRecord
	NewUnion

	// Field / index access.
	GetIndex // ABC: R(A) = R(B)[R(C)]
	SetIndex // ABC: R(A)[R(B)] = R(C)
	GetField // ABx: R(A) = R(A).field(Bx) (field name is a constant string id)
	SetField // ABC: R(A).field(B) = R(C)

	// Arithmetic / bitwise / comparison.
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	BAnd
	BOr
	BXor
	BNot
	Shl
	Shr
	Eq  // ABC: skip next instruction if (R(B)==R(C)) != (A!=0)
	Lt
	Le

	// Control flow.
	Jmp      // sAx
	Call     // ABC: call R(A) with B args, expect C results
	TailCall // ABC
	Return   // AB
	ForPrep  // AsBx
	ForLoop  // AsBx
	ForIn    // ABC
	Break    // sAx, pre-resolved jump
	Continue // sAx, pre-resolved jump

	// Effects.
	ToolCall   // ABx
	Perform    // ABC
	HandlePush // ABx: A = effect index, Bx (signed) = relative body offset
	HandlePop
	Resume   // A
	Await    // AB
	Spawn    // ABx
	Schema   // AB
	Emit     // A
	TraceRef // A

	// Closures.
	MakeClosure // ABx
	GetUpval    // AB
	SetUpval    // AB

	// Type checks.
	IsVariant // ABx: skip next instruction on tag mismatch
	Unbox     // AB

	// Builtins.
	Intrinsic // ABC

	Halt // A: terminate with R(A) as error payload

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	LoadK: "LOADK", LoadNull: "LOADNULL", LoadBool: "LOADBOOL", Move: "MOVE",
	NewList: "NEWLIST", NewMap: "NEWMAP", NewTuple: "NEWTUPLE", NewSet: "NEWSET",
	NewRecord: "NEWRECORD", NewUnion: "NEWUNION",
	GetIndex: "GETINDEX", SetIndex: "SETINDEX", GetField: "GETFIELD", SetField: "SETFIELD",
	Add: "ADD", Sub: "SUB", Mul: "MUL", Div: "DIV", Mod: "MOD", Neg: "NEG",
	BAnd: "BAND", BOr: "BOR", BXor: "BXOR", BNot: "BNOT", Shl: "SHL", Shr: "SHR",
	Eq: "EQ", Lt: "LT", Le: "LE",
	Jmp: "JMP", Call: "CALL", TailCall: "TAILCALL", Return: "RETURN",
	ForPrep: "FORPREP", ForLoop: "FORLOOP", ForIn: "FORIN", Break: "BREAK", Continue: "CONTINUE",
	ToolCall: "TOOLCALL", Perform: "PERFORM", HandlePush: "HANDLEPUSH", HandlePop: "HANDLEPOP",
	Resume: "RESUME", Await: "AWAIT", Spawn: "SPAWN", Schema: "SCHEMA", Emit: "EMIT", TraceRef: "TRACEREF",
	MakeClosure: "CLOSURE", GetUpval: "GETUPVAL", SetUpval: "SETUPVAL",
	IsVariant: "ISVARIANT", Unbox: "UNBOX",
	Intrinsic: "INTRINSIC",
	Halt:      "HALT",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}
