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

package vm

import "github.com/lumen-run/lumen/core/value"

// bindArgs places up to b positional arguments, read from the caller's
// registers starting at argBase, into the callee's register window
// according to each declared Param's register slot. Register 0 always
// holds the active closure so GetUpval/SetUpval can find it.
func bindArgs(cell *Cell, closure value.Value, callerRegs *Registers, argBase, b int) *Registers {
	regs := newRegisters(int(cell.Registers))
	regs.Set(0, closure)
	for i, p := range cell.Params {
		if i >= b {
			break
		}
		regs.Set(int(p.Register), callerRegs.Get(argBase+i))
	}
	return regs
}

// opCall implements `Call A B C`: R(A) holds the closure, arguments are
// R(A+1)..R(A+B), and C results are expected back starting at R(A) once
// the callee returns (spec.md §4.2 call-frame semantics).
func opCall(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b, c := int(ins.A()), int(ins.B()), int(ins.C())
	callee := regs.Get(a)
	clos, ok := callee.AsClosure()
	if !ok {
		return 0, &TypeMismatch{Op: "Call", Expected: "closure", Got: callee.Kind().String()}
	}
	if clos.ProtoIndex < 0 || clos.ProtoIndex >= len(ex.module.Cells) {
		return 0, &IndexOutOfBounds{Index: clos.ProtoIndex, Len: len(ex.module.Cells)}
	}
	if len(ex.frames) >= ex.cfg.MaxCallDepth {
		return 0, ErrStackOverflowVM
	}
	cell := ex.module.Cells[clos.ProtoIndex]
	newRegs := bindArgs(cell, callee, regs, a+1, b)

	// fr is still a valid pointer into the live ex.frames backing array;
	// set the caller's continuation point before the append below, which
	// may reallocate that array and invalidate fr.
	fr.IP = *pc + 1

	ex.frames = append(ex.frames, Frame{
		CellIdx:             clos.ProtoIndex,
		IP:                  0,
		BaseRegister:        a,
		ReturnRegister:      a,
		HandlerDepthOnEntry: ex.handler.Depth(),
		ExpectedResults:     c,
	})
	ex.regs = append(ex.regs, newRegs)
	ex.cfg.Debug.CallEnter(cell.Name)
	return ctrlCall, nil
}

// opTailCall implements `TailCall A B`: replaces the current frame in
// place rather than growing the call stack, so a self-recursive or
// mutually-recursive tail position never trips ErrStackOverflowVM.
func opTailCall(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b := int(ins.A()), int(ins.B())
	callee := regs.Get(a)
	clos, ok := callee.AsClosure()
	if !ok {
		return 0, &TypeMismatch{Op: "TailCall", Expected: "closure", Got: callee.Kind().String()}
	}
	if clos.ProtoIndex < 0 || clos.ProtoIndex >= len(ex.module.Cells) {
		return 0, &IndexOutOfBounds{Index: clos.ProtoIndex, Len: len(ex.module.Cells)}
	}
	cell := ex.module.Cells[clos.ProtoIndex]
	newRegs := bindArgs(cell, callee, regs, a+1, b)

	ex.cfg.Debug.CallExit(ex.module.Cells[fr.CellIdx].Name)
	fr.CellIdx = clos.ProtoIndex
	fr.IP = 0
	fr.BaseRegister = a
	fr.TailCalled = true
	ex.regs[len(ex.regs)-1] = newRegs
	ex.cfg.Debug.CallEnter(cell.Name)
	return ctrlTailCall, nil
}

// opReturn implements `Return A B`: R(A)..R(A+B-1) become the callee's
// results, picked up by popFrame once this frame is discarded.
func opReturn(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b := int(ins.A()), int(ins.B())
	results := make([]value.Value, b)
	for i := 0; i < b; i++ {
		results[i] = regs.Get(a + i)
	}
	ex.lastResults = results
	return ctrlReturn, nil
}

// opForPrep implements the Lua-style numeric for-loop preamble: R(A) is
// the counter, R(A+1) the limit, R(A+2) the step, already loaded by the
// instructions preceding ForPrep. It biases the counter back by one step
// and jumps to the loop's ForLoop test, so the increment/test happens
// exactly once per iteration including the first.
func opForPrep(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a := int(ins.A())
	if si, ok := regs.Get(a).AsInt(); ok {
		if st, ok := regs.Get(a + 2).AsInt(); ok {
			regs.Set(a, value.Int(si-st))
			*pc += int(ins.SBx())
			return ctrlJumped, nil
		}
	}
	start, ok1 := asFloat(regs.Get(a))
	step, ok2 := asFloat(regs.Get(a + 2))
	if !ok1 || !ok2 {
		return 0, &TypeMismatch{Op: "ForPrep", Expected: "number", Got: regs.Get(a).Kind().String()}
	}
	regs.Set(a, value.Float(start-step))
	*pc += int(ins.SBx())
	return ctrlJumped, nil
}

// opForLoop advances the counter by the step and, while still within the
// limit, copies it into R(A+3) (the loop variable the body reads) and
// jumps back to the top of the body; otherwise falls through.
func opForLoop(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a := int(ins.A())
	if si, ok := regs.Get(a).AsInt(); ok {
		limit, _ := regs.Get(a + 1).AsInt()
		step, _ := regs.Get(a + 2).AsInt()
		cur := si + step
		if (step > 0 && cur <= limit) || (step < 0 && cur >= limit) {
			regs.Set(a, value.Int(cur))
			regs.Set(a+3, value.Int(cur))
			*pc += int(ins.SBx())
			return ctrlJumped, nil
		}
		return ctrlNext, nil
	}
	cur, _ := asFloat(regs.Get(a))
	limit, _ := asFloat(regs.Get(a + 1))
	step, _ := asFloat(regs.Get(a + 2))
	cur += step
	if (step > 0 && cur <= limit) || (step < 0 && cur >= limit) {
		regs.Set(a, value.Float(cur))
		regs.Set(a+3, value.Float(cur))
		*pc += int(ins.SBx())
		return ctrlJumped, nil
	}
	return ctrlNext, nil
}

// nthElement fetches the element at ordinal position idx from a List,
// Set, or Map, in the container's deterministic iteration order.
func nthElement(container value.Value, idx int64) (key, val value.Value, ok bool) {
	switch container.Kind() {
	case value.KindList:
		l, _ := container.AsList()
		v, ok := l.Get(int(idx))
		return value.Int(idx), v, ok
	case value.KindSet:
		s, _ := container.AsSet()
		var found value.Value
		var i, okAny int64
		s.Each(func(v value.Value) bool {
			if i == idx {
				found, okAny = v, 1
				return false
			}
			i++
			return true
		})
		return value.Int(idx), found, okAny == 1
	case value.KindMap:
		m, _ := container.AsMap()
		var fk, fv value.Value
		var i, okAny int64
		m.Each(func(k, v value.Value) bool {
			if i == idx {
				fk, fv, okAny = k, v, 1
				return false
			}
			i++
			return true
		})
		return fk, fv, okAny == 1
	default:
		return value.Null, value.Null, false
	}
}

// opForIn implements `ForIn A B C`: R(A) is the iterable, R(B) is the
// private cursor register, R(C) receives the next value (and, for a
// Map, R(C+1) receives the key). Exhaustion skips the following
// instruction, so that instruction, run only while elements remain, is
// the jump into the loop body — the same "skip on mismatch" convention
// used by IsVariant.
func opForIn(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b, c := int(ins.A()), int(ins.B()), int(ins.C())
	container := regs.Get(a)
	idx, _ := regs.Get(b).AsInt()
	key, val, ok := nthElement(container, idx)
	if !ok {
		*pc++
		return ctrlNext, nil
	}
	regs.Set(b, value.Int(idx+1))
	regs.Set(c, val)
	if container.Kind() == value.KindMap {
		regs.Set(c+1, key)
	}
	return ctrlNext, nil
}
