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

// opToolCall implements `ToolCall A Bx`: Bx names a tool import
// (ex.module.Imports[Bx]), R(A+1) carries the request payload, and the
// call always crosses out to the host (spec.md §4.2 "Tool calls are
// never satisfied in-VM"). The result lands at R(A) via
// Executor.ResumeWithValue once the host driver replies.
func opToolCall(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, bx := int(ins.A()), int(ins.Bx())
	if bx >= len(ex.module.Imports) {
		return 0, &IndexOutOfBounds{Index: bx, Len: len(ex.module.Imports)}
	}
	fr.PendingDest = a
	ex.lastToolCall = &PendingToolCall{
		ToolID: ex.module.Imports[bx],
		Args:   regs.Get(a + 1),
		Dest:   a,
	}
	return ctrlToolCall, nil
}

// opPerform implements `Perform A B C`: B names the effect (an interned
// string id), C holds the payload, A is where a resumption value will
// eventually land. If a handler installed by HandlePush covers this
// effect, control jumps in-place to its body and a ResumptionToken is
// captured so the matching `Resume` opcode inside that body can rewind
// to this exact continuation. Effects with no local handler suspend out
// to the host, mirroring ToolCall, since they are presumed host-level
// capabilities (spec.md §4.2 "Effect handler protocol").
func opPerform(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b, c := int(ins.A()), int(ins.B()), int(ins.C())
	if b >= len(ex.module.Interned) {
		return 0, &IndexOutOfBounds{Index: b, Len: len(ex.module.Interned)}
	}
	effect := ex.module.Interned[b]
	payload := regs.Get(c)

	idx, found := ex.handler.FindHandler(effect)
	if !found {
		fr.PendingDest = a
		ex.lastPerform = &PendingPerform{Effect: effect, Value: payload}
		return ctrlPerform, nil
	}

	// Record the continuation as it stands right now: the current frame
	// resumes at the instruction after Perform, every other frame resumes
	// exactly where it is. Must happen before jumping into the handler
	// body, which reuses this same frame/register window.
	fr.IP = *pc + 1
	tok := &ResumptionToken{
		frames:       append([]Frame{}, ex.frames...),
		registers:    append([]*Registers{}, ex.regs...),
		handlerDepth: idx,
		destReg:      a,
	}
	ex.pendingToken = tok
	hf := ex.handler.frames[idx]
	*pc = hf.BodyStart
	regs.Set(c, payload)
	return ctrlJumped, nil
}

// opHandlePush implements `HandlePush A SBx`: A indexes the module's
// declared effect signatures, SBx is the handler body's offset relative
// to the instruction following HandlePush. The body is placed out of the
// sequential path (after the protected region's HandlePop/Return) and is
// only ever reached by Perform's explicit jump, never by fallthrough.
func opHandlePush(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	effIdx := int(ins.A())
	if effIdx < 0 || effIdx >= len(ex.module.Effects) {
		return 0, &IndexOutOfBounds{Index: effIdx, Len: len(ex.module.Effects)}
	}
	ex.handler.Push(HandlerFrame{
		HandledEffects: []string{ex.module.Effects[effIdx].Name},
		BodyStart:      *pc + 1 + int(ins.SBx()),
		CapturedState:  len(ex.frames),
	})
	return ctrlNext, nil
}

// opHandlePop implements `HandlePop`: uninstalls the innermost handler.
func opHandlePop(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	ex.handler.Pop()
	return ctrlNext, nil
}

// opResume implements `Resume A`, issued from inside a handler body: R(A)
// is the value delivered to the captured continuation. It restores the
// call/register stack exactly as it stood at the matching Perform and
// truncates the handler stack back to that point, then continues
// executing there — a one-shot resumption (spec.md §4.2); a second
// Resume against the same token is ErrResumeTwice.
func opResume(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	v := regs.Get(int(ins.A()))
	tok := ex.pendingToken
	if tok == nil {
		return 0, ErrUnhandledPerform
	}
	if tok.consumed {
		return 0, ErrResumeTwice
	}
	tok.consumed = true
	ex.frames = tok.frames
	ex.regs = tok.registers
	ex.handler.Truncate(tok.handlerDepth)
	if len(ex.regs) > 0 {
		ex.regs[len(ex.regs)-1].Set(tok.destReg, v)
	}
	ex.pendingToken = nil
	return ctrlTailCall, nil
}

// opAwait implements `Await A B`: R(B) must hold a Future. An already
// settled future resolves synchronously; a pending one suspends with the
// destination register remembered on the frame for ResumeWithValue.
func opAwait(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, b := int(ins.A()), int(ins.B())
	v := regs.Get(b)
	fut, ok := v.AsFuture()
	if !ok {
		return 0, &TypeMismatch{Op: "Await", Expected: "future", Got: v.Kind().String()}
	}
	switch fut.State {
	case value.FutureResolved:
		regs.Set(a, fut.Result)
		return ctrlNext, nil
	case value.FutureRejected:
		return 0, fut.Err
	default:
		fr.PendingDest = a
		return ctrlAwait, nil
	}
}

// opSpawn implements `Spawn A Bx`: Bx names the cell to run concurrently;
// arguments are taken the same way Call takes them, from R(A+1).. up to
// the callee's declared parameter count. A Future is written to R(A)
// immediately so the current cell can pass it around before awaiting it;
// the VM has no scheduler of its own (spec.md §5), so the actual
// execution and eventual Future settlement is the host driver's job.
func opSpawn(pc *int, ex *Executor, fr *Frame, regs *Registers, ins Instruction) (ctrl, error) {
	a, bx := int(ins.A()), int(ins.Bx())
	if bx >= len(ex.module.Cells) {
		return 0, &IndexOutOfBounds{Index: bx, Len: len(ex.module.Cells)}
	}
	cell := ex.module.Cells[bx]
	args := make([]value.Value, 0, len(cell.Params))
	for i := range cell.Params {
		args = append(args, regs.Get(a+1+i))
	}
	regs.Set(a, value.NewFuture())
	ex.lastSpawn = &PendingSpawn{CellIdx: bx, Args: args, Dest: a}
	return ctrlSpawn, nil
}
