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

package heap

import (
	"errors"

	"github.com/lumen-run/lumen/internal/metrics"
	"github.com/lumen-run/lumen/log"
)

// ErrOutOfMemory is returned when an allocation cannot be satisfied even
// after a full collection attempt (spec.md §4.1 "Failure model").
var ErrOutOfMemory = errors.New("heap: out of memory")

// RootProvider supplies the root set a collection traces from: the VM
// register file, call-frame operands, the handler stack, and the
// interned-string table (spec.md §4.1). Returning heap object indices
// that are out of range is a caller bug, not a recoverable heap error.
type RootProvider func() []uint32

// Heap is a single VM's Immix-style object space. One Heap belongs to
// exactly one VM; it is not shared across goroutines, matching spec.md
// §5 ("the heap and register file are single-owner per VM and require
// no locking").
type Heap struct {
	log log.Logger

	blocks []*block
	// tlabBlock/tlabNext implement the bump-pointer fast path: the TLAB
	// is simply "the current block being bump-allocated into" since our
	// Object slots aren't raw bytes but a typed table.
	tlabBlock int
	tlabNext  int

	objects []*Object // flat object table; index == HeapRef.Index
	free    []uint32  // free object-table slots available for reuse

	roots RootProvider

	compactionEnabled bool
	generation        uint32

	gcCycles    *metrics.Counter
	liveObjects *metrics.Gauge
}

// Config tunes a Heap at construction.
type Config struct {
	EnableCompaction bool
	Logger           log.Logger

	// Metrics, when non-nil, receives this Heap's gc-cycle counter and
	// live-object-count gauge under "heap/gc_cycles" and
	// "heap/live_objects" (SPEC_FULL.md §10 internal/metrics). Left
	// nil, a Heap runs with no metrics overhead beyond the two pointer
	// checks below.
	Metrics *metrics.Registry
}

func New(roots RootProvider, cfg Config) *Heap {
	l := cfg.Logger
	if l == nil {
		l = log.New("heap")
	}
	h := &Heap{
		log:               l,
		roots:             roots,
		compactionEnabled: cfg.EnableCompaction,
	}
	if cfg.Metrics != nil {
		h.gcCycles = cfg.Metrics.GetOrRegisterCounter("heap/gc_cycles")
		h.liveObjects = cfg.Metrics.GetOrRegisterGauge("heap/live_objects")
	}
	h.blocks = append(h.blocks, newBlock())
	return h
}

// Alloc places a new object on the heap and returns its stable index.
// The bump-pointer fast path appends into the current TLAB block; once
// a block fills, another free block is claimed, or a new block is
// appended if none is free.
func (h *Heap) Alloc(tag uint16, payload interface{}, refs []uint32) (uint32, error) {
	blk := h.blocks[h.tlabBlock]
	if h.tlabNext >= LinesPerBlock*8 { // coarse per-block object cap
		if !h.claimBlock() {
			if !h.Collect() {
				return 0, ErrOutOfMemory
			}
			if !h.claimBlock() {
				return 0, ErrOutOfMemory
			}
		}
		blk = h.blocks[h.tlabBlock]
	}

	obj := &Object{Header: Header{TypeTag: tag}, Payload: payload, Refs: refs}
	var idx uint32
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
		h.objects[idx] = obj
	} else {
		idx = uint32(len(h.objects))
		h.objects = append(h.objects, obj)
	}
	blk.objects = append(blk.objects, obj)
	h.tlabNext++
	return idx, nil
}

func (h *Heap) claimBlock() bool {
	for i, b := range h.blocks {
		if b.class == classFree && i != h.tlabBlock {
			h.tlabBlock = i
			h.tlabNext = 0
			return true
		}
	}
	h.blocks = append(h.blocks, newBlock())
	h.tlabBlock = len(h.blocks) - 1
	h.tlabNext = 0
	return true
}

// Get resolves a stable object index to its Object, or false if it has
// been collected (a dangling HeapRef — a VM bug if observed).
func (h *Heap) Get(idx uint32) (*Object, bool) {
	if int(idx) >= len(h.objects) || h.objects[idx] == nil {
		return nil, false
	}
	return h.objects[idx], true
}

// Pin marks an object so a future compaction will never relocate it.
func (h *Heap) Pin(idx uint32) {
	if o, ok := h.Get(idx); ok {
		o.Header.Pinned = true
	}
}

// Collect runs one full tri-color mark/sweep cycle and reports whether
// any memory was reclaimed (used by Alloc to decide whether retrying is
// worthwhile before surfacing ErrOutOfMemory).
func (h *Heap) Collect() bool {
	h.markFromRoots()
	reclaimed := h.sweep()
	if h.compactionEnabled {
		h.compact()
	}
	h.generation++
	if h.gcCycles != nil {
		h.gcCycles.Inc(1)
	}
	if h.liveObjects != nil {
		live := 0
		for _, o := range h.objects {
			if o != nil {
				live++
			}
		}
		h.liveObjects.Update(int64(live))
	}
	return reclaimed
}

func (h *Heap) markFromRoots() {
	for i := range h.objects {
		if h.objects[i] != nil {
			h.objects[i].Header.Color = White
		}
	}
	var gray []uint32
	for _, r := range h.roots() {
		gray = append(gray, r)
	}
	for len(gray) > 0 {
		idx := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		o, ok := h.Get(idx)
		if !ok || o.Header.Color == Black {
			continue
		}
		o.Header.Color = Black
		for _, ref := range o.Refs {
			if ro, ok := h.Get(ref); ok && ro.Header.Color == White {
				ro.Header.Color = Gray
				gray = append(gray, ref)
			}
		}
	}
}

// sweep reclaims every White object and reclassifies each block into
// free/recyclable/occupied per spec.md §4.1.
func (h *Heap) sweep() bool {
	reclaimedAny := false
	for _, b := range h.blocks {
		kept := b.objects[:0]
		for i := range b.lineMarks {
			b.lineMarks[i] = false
		}
		for _, o := range b.objects {
			if o.Header.Color == White {
				reclaimedAny = true
				idx := h.indexOf(o)
				if idx >= 0 {
					h.objects[idx] = nil
					h.free = append(h.free, uint32(idx))
				}
				continue
			}
			kept = append(kept, o)
		}
		b.objects = kept
		if len(b.objects) == 0 {
			b.class = classFree
		} else if len(b.objects) < LinesPerBlock {
			b.class = classRecyclable
		} else {
			b.class = classOccupied
		}
	}
	return reclaimedAny
}

func (h *Heap) indexOf(o *Object) int {
	for i, existing := range h.objects {
		if existing == o {
			return i
		}
	}
	return -1
}

// compact forwards live objects out of recyclable blocks, honoring
// pinning (spec.md §4.1 "Pinning: ... may be marked but never
// relocated"). Forwarding here is a logical move within the object
// table plus a Forwarded marker; callers following a HeapRef must check
// Header.Forwarded and redirect to Header.Forward.
func (h *Heap) compact() {
	for _, b := range h.blocks {
		if b.class != classRecyclable {
			continue
		}
		for _, o := range b.objects {
			if o.Header.Pinned || o.Header.Forwarded {
				continue
			}
			newIdx, err := h.Alloc(o.Header.TypeTag, o.Payload, o.Refs)
			if err != nil {
				continue
			}
			o.Header.Forwarded = true
			o.Header.Forward = newIdx
		}
	}
}

// Resolve follows forwarding pointers until reaching a non-forwarded
// object, so mutators see a stable view across a compacting collection.
func (h *Heap) Resolve(idx uint32) (uint32, *Object, bool) {
	seen := map[uint32]bool{}
	for {
		o, ok := h.Get(idx)
		if !ok {
			return idx, nil, false
		}
		if !o.Header.Forwarded {
			return idx, o, true
		}
		if seen[idx] {
			return idx, nil, false // forwarding cycle: corrupt heap state
		}
		seen[idx] = true
		idx = o.Header.Forward
	}
}

// Each visits every live object with its stable index, in table order.
// Used by the durability layer to flatten a heap into a Snapshot.
func (h *Heap) Each(f func(idx uint32, o *Object)) {
	for i, o := range h.objects {
		if o != nil {
			f(uint32(i), o)
		}
	}
}
