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

package value

// Upvalue is a single closure capture. Copy-category values are copied
// by value at Closure-construction time; Owned values are captured as a
// shared reference so mutation through the closure and through the
// original owner (if still reachable) observe each other, matching
// spec.md §4.2 "Captures are by copy for Copy-category values and by
// shared reference otherwise."
type Upvalue struct {
	Shared bool
	val    Value
	cell   *Value // present when Shared
}

func CopyUpvalue(v Value) Upvalue  { return Upvalue{val: v} }
func SharedUpvalue(cell *Value) Upvalue { return Upvalue{Shared: true, cell: cell} }

func (u Upvalue) Get() Value {
	if u.Shared {
		return *u.cell
	}
	return u.val
}

func (u *Upvalue) Set(v Value) {
	if u.Shared {
		*u.cell = v
		return
	}
	u.val = v
}

// Closure is a Cell (compiled function) bound to its captured upvalues.
// ProtoIndex indexes into the owning LIR module's cells table; the VM
// package is the only consumer that needs to resolve it back to code.
type Closure struct {
	h          *Handle
	ProtoIndex int
	Upvalues   []Upvalue
}

func NewClosure(protoIndex int, upvalues []Upvalue) Value {
	c := &Closure{h: newHandle(), ProtoIndex: protoIndex, Upvalues: upvalues}
	return Value{kind: KindClosure, payload: c}
}

func (v Value) AsClosure() (*Closure, bool) {
	if v.kind != KindClosure {
		return nil, false
	}
	return v.payload.(*Closure), true
}

// FutureState is the resolution state of a Future value.
type FutureState uint8

const (
	FuturePending FutureState = iota
	FutureResolved
	FutureRejected
)

// Future models an in-flight Await/Spawn result slot (spec.md §3).
type Future struct {
	h      *Handle
	State  FutureState
	Result Value
	Err    error
}

func NewFuture() Value {
	return Value{kind: KindFuture, payload: &Future{h: newHandle(), State: FuturePending}}
}

func (v Value) AsFuture() (*Future, bool) {
	if v.kind != KindFuture {
		return nil, false
	}
	return v.payload.(*Future), true
}

func (f *Future) Resolve(v Value) {
	f.State = FutureResolved
	f.Result = v
}

func (f *Future) Reject(err error) {
	f.State = FutureRejected
	f.Err = err
}
