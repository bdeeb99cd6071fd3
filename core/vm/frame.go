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

import "github.com/lumen-run/lumen/core/value"

// MaxCallDepth is the call-frame stack bound from spec.md §4.2/§5 and
// Design Note (b); exposed on Config for embedders who need a different
// bound (Open Question b is resolved by making this overridable rather
// than hardcoded).
const MaxCallDepth = 256

// Frame is a single call-frame entry (spec.md §3 "Call frame").
type Frame struct {
	CellIdx            int
	IP                 int
	BaseRegister       int
	ReturnRegister     int
	HandlerDepthOnEntry int
	ExpectedResults    int
	TailCalled         bool

	// PendingDest is the destination register for a suspended ToolCall,
	// Await, or unhandled Perform result, consulted by
	// Executor.ResumeWithValue when no ResumptionToken is in play (a
	// Perform caught by a local handler uses destReg on the token instead,
	// since that continuation may belong to an outer frame). Spawn does not
	// set it; it writes its Future into R(A) directly.
	PendingDest int
}

// Registers is the VM's contiguous register file; each frame owns the
// window [BaseRegister, BaseRegister+cell.Registers).
type Registers struct {
	slots []value.Value
}

func newRegisters(cap int) *Registers {
	return &Registers{slots: make([]value.Value, 0, cap)}
}

func (r *Registers) ensure(n int) {
	for len(r.slots) < n {
		r.slots = append(r.slots, value.Null)
	}
}

func (r *Registers) Get(idx int) value.Value {
	if idx < 0 || idx >= len(r.slots) {
		return value.Null
	}
	return r.slots[idx]
}

func (r *Registers) Set(idx int, v value.Value) {
	r.ensure(idx + 1)
	r.slots[idx] = v
}

// Snapshot copies the live register window for debug/inspection/durability.
func (r *Registers) Snapshot() []value.Value {
	out := make([]value.Value, len(r.slots))
	copy(out, r.slots)
	return out
}
