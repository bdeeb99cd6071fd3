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

// Package heap implements the Immix-style GC-managed heap named in
// spec.md §4.1: 32KiB blocks divided into 128-byte lines, a bump-pointer
// TLAB fast path, tri-color marking, and block-class sweeping (free /
// recyclable / occupied), with optional pinning and compaction.
package heap

const (
	BlockSize = 32 * 1024
	LineSize  = 128
	LinesPerBlock = BlockSize / LineSize
)

// Color is the tri-color marking state carried in every object header.
type Color uint8

const (
	White Color = iota
	Gray
	Black
)

// Header is the fixed prefix of every heap-managed object.
type Header struct {
	Color     Color
	Pinned    bool
	Forwarded bool
	TypeTag   uint16
	Forward   uint32 // valid iff Forwarded; index of the relocated copy
}

// Object is a heap-managed allocation: a header plus an opaque payload.
// The VM/value packages store domain data (closures, large containers,
// cyclic structures) here instead of inline in a Value when spec.md's
// V1 invariant requires breaking a cycle through the heap.
type Object struct {
	Header  Header
	Payload interface{}
	Refs    []uint32 // outgoing heap object indices, used by the tracer
}

// block is one 32KiB Immix block, tracked at line granularity.
type block struct {
	objects   []*Object      // indices double as this block's object slots
	lineMarks [LinesPerBlock]bool
	class     blockClass
}

type blockClass uint8

const (
	classFree blockClass = iota
	classRecyclable
	classOccupied
)

func newBlock() *block {
	return &block{class: classFree}
}

// occupiedLines counts marked lines, used to decide free/recyclable/occupied
// after a sweep.
func (b *block) occupiedLines() int {
	n := 0
	for _, m := range b.lineMarks {
		if m {
			n++
		}
	}
	return n
}
