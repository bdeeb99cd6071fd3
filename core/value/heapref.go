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

// HeapRef is the explicit payload spec.md's Invariant V1 requires for
// any value that needs to participate in a cycle: refcounted containers
// never point through a cycle directly, they instead hold a HeapRef
// into the GC-managed heap (core/heap), which can break cycles via
// tracing collection instead of relying on reference counts reaching
// zero.
type HeapRef struct {
	Index uint32 // slot into the heap's object table
	Gen    uint32 // generation counter, guards against stale refs after compaction
}

func NewHeapRef(index, gen uint32) Value {
	return Value{kind: KindHeapRef, payload: HeapRef{Index: index, Gen: gen}}
}

func (v Value) AsHeapRef() (HeapRef, bool) {
	if v.kind != KindHeapRef {
		return HeapRef{}, false
	}
	return v.payload.(HeapRef), true
}
