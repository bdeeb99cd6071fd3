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

import "sync/atomic"

// refcount is shared by every CoW container (V2 in spec.md §3): a
// container may be mutated in place only while it is uniquely owned
// (refcount == 1); otherwise a clone is made first. Cloning a handle
// increments the clone's own fresh counter to 1 and does not touch the
// original — the two backing stores diverge from that point on.
type refcount struct {
	n int32
}

func (r *refcount) unique() bool { return atomic.LoadInt32(&r.n) == 1 }
func (r *refcount) retain()      { atomic.AddInt32(&r.n, 1) }
func (r *refcount) release() int32 { return atomic.AddInt32(&r.n, -1) }

// Handle is the shared-ownership wrapper every container Value payload
// embeds; each container's own mutable method applies the CoW contract.
type Handle struct {
	rc refcount
}

func newHandle() *Handle {
	h := &Handle{}
	h.rc.n = 1
	return h
}

// List is a CoW, refcounted, insertion-ordered sequence.
type List struct {
	h    *Handle
	data []Value
}

func NewList(items ...Value) Value {
	l := &List{h: newHandle(), data: append([]Value{}, items...)}
	return Value{kind: KindList, payload: l}
}

func (l *List) Len() int { return len(l.data) }
func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.data) {
		return Null, false
	}
	return l.data[i], true
}

// Retain/Release implement shared ownership for a handle obtained from
// a register or closure upvalue; mutable is the "make_unique"
// primitive spec.md's Design Notes calls for in CoW-less host languages.
func (l *List) Retain() { l.h.rc.retain() }
func (l *List) Release() bool { return l.h.rc.release() <= 0 }

// mutable returns a List safe to mutate in place: l itself if uniquely
// owned, otherwise a fresh deep-ish clone (Values are shallow-copied;
// nested containers retain their own CoW semantics).
func (l *List) mutable() *List {
	if l.h.rc.unique() {
		return l
	}
	return &List{h: newHandle(), data: append([]Value{}, l.data...)}
}

// Append returns the (possibly cloned) List with item appended, per the
// container contract in spec.md §4.1.
func (l *List) Append(item Value) *List {
	m := l.mutable()
	m.data = append(m.data, item)
	return m
}

func (l *List) Set(i int, item Value) (*List, bool) {
	if i < 0 || i >= len(l.data) {
		return l, false
	}
	m := l.mutable()
	m.data[i] = item
	return m, true
}

func (l *List) Each(f func(int, Value) bool) {
	for i, v := range l.data {
		if !f(i, v) {
			return
		}
	}
}

func listsEqual(a, b *List) bool {
	if len(a.data) != len(b.data) {
		return false
	}
	for i := range a.data {
		if !Equal(a.data[i], b.data[i]) {
			return false
		}
	}
	return true
}

// Tuple is a fixed-arity, immutable-by-construction product (no mutating
// operations exist in the opcode set; it is still CoW-handle-shaped so
// it shares storage cheaply when copied into registers).
type Tuple struct {
	h    *Handle
	data []Value
}

func NewTuple(items ...Value) Value {
	t := &Tuple{h: newHandle(), data: append([]Value{}, items...)}
	return Value{kind: KindTuple, payload: t}
}

func (t *Tuple) Len() int { return len(t.data) }
func (t *Tuple) Get(i int) (Value, bool) {
	if i < 0 || i >= len(t.data) {
		return Null, false
	}
	return t.data[i], true
}

func tuplesEqual(a, b *Tuple) bool {
	if len(a.data) != len(b.data) {
		return false
	}
	for i := range a.data {
		if !Equal(a.data[i], b.data[i]) {
			return false
		}
	}
	return true
}

// mapEntry keeps Map insertion-ordered (spec.md Design Notes: map/set
// iteration order must be deterministic for replay).
type mapEntry struct {
	key Value
	val Value
}

// Map is an insertion-ordered, CoW, refcounted key->value container.
type Map struct {
	h       *Handle
	entries []mapEntry
	index   map[string]int // keyed by a structural encoding, see mapKey
}

func NewMap() Value {
	m := &Map{h: newHandle(), index: map[string]int{}}
	return Value{kind: KindMap, payload: m}
}

func mapKey(v Value) string {
	d := structuralDigest(v)
	return string(d[:])
}

func (m *Map) mutable() *Map {
	if m.h.rc.unique() {
		return m
	}
	clone := &Map{h: newHandle(), entries: append([]mapEntry{}, m.entries...), index: make(map[string]int, len(m.index))}
	for k, i := range m.index {
		clone.index[k] = i
	}
	return clone
}

func (m *Map) Get(key Value) (Value, bool) {
	if i, ok := m.index[mapKey(key)]; ok {
		return m.entries[i].val, true
	}
	return Null, false
}

func (m *Map) Put(key, val Value) *Map {
	mk := mapKey(key)
	out := m.mutable()
	if i, ok := out.index[mk]; ok {
		out.entries[i].val = val
		return out
	}
	out.index[mk] = len(out.entries)
	out.entries = append(out.entries, mapEntry{key: key, val: val})
	return out
}

func (m *Map) Delete(key Value) *Map {
	mk := mapKey(key)
	i, ok := m.index[mk]
	if !ok {
		return m
	}
	out := m.mutable()
	i = out.index[mk]
	out.entries = append(out.entries[:i], out.entries[i+1:]...)
	delete(out.index, mk)
	for k, idx := range out.index {
		if idx > i {
			out.index[k] = idx - 1
		}
	}
	return out
}

func (m *Map) Len() int { return len(m.entries) }

func (m *Map) Each(f func(Value, Value) bool) {
	for _, e := range m.entries {
		if !f(e.key, e.val) {
			return
		}
	}
}

func mapsEqual(a, b *Map) bool {
	if len(a.entries) != len(b.entries) {
		return false
	}
	for _, e := range a.entries {
		bv, ok := b.Get(e.key)
		if !ok || !Equal(e.val, bv) {
			return false
		}
	}
	return true
}

// Set is an insertion-ordered, CoW, refcounted set, built on the same
// ordered-index scheme as Map for deterministic iteration.
type Set struct {
	h     *Handle
	items []Value
	index map[string]int
}

func NewSet(items ...Value) Value {
	s := &Set{h: newHandle(), index: map[string]int{}}
	for _, it := range items {
		s = s.mutable()
		k := mapKey(it)
		if _, ok := s.index[k]; !ok {
			s.index[k] = len(s.items)
			s.items = append(s.items, it)
		}
	}
	return Value{kind: KindSet, payload: s}
}

func (s *Set) mutable() *Set {
	if s.h.rc.unique() {
		return s
	}
	clone := &Set{h: newHandle(), items: append([]Value{}, s.items...), index: make(map[string]int, len(s.index))}
	for k, i := range s.index {
		clone.index[k] = i
	}
	return clone
}

func (s *Set) Has(v Value) bool {
	_, ok := s.index[mapKey(v)]
	return ok
}

func (s *Set) Add(v Value) *Set {
	k := mapKey(v)
	if _, ok := s.index[k]; ok {
		return s
	}
	out := s.mutable()
	out.index[k] = len(out.items)
	out.items = append(out.items, v)
	return out
}

func (s *Set) Len() int { return len(s.items) }

func (s *Set) Each(f func(Value) bool) {
	for _, v := range s.items {
		if !f(v) {
			return
		}
	}
}

func setsEqual(a, b *Set) bool {
	if len(a.items) != len(b.items) {
		return false
	}
	for _, v := range a.items {
		if !b.Has(v) {
			return false
		}
	}
	return true
}

// Record is a nominal product type: {type_name, named fields}.
type Record struct {
	h        *Handle
	TypeName string
	fields   map[string]Value
	order    []string
}

func NewRecord(typeName string, fields map[string]Value, order []string) Value {
	r := &Record{h: newHandle(), TypeName: typeName, fields: map[string]Value{}, order: append([]string{}, order...)}
	for k, v := range fields {
		r.fields[k] = v
	}
	return Value{kind: KindRecord, payload: r}
}

func (r *Record) Get(field string) (Value, bool) {
	v, ok := r.fields[field]
	return v, ok
}

func (r *Record) mutable() *Record {
	if r.h.rc.unique() {
		return r
	}
	clone := &Record{h: newHandle(), TypeName: r.TypeName, fields: make(map[string]Value, len(r.fields)), order: append([]string{}, r.order...)}
	for k, v := range r.fields {
		clone.fields[k] = v
	}
	return clone
}

func (r *Record) Set(field string, v Value) *Record {
	out := r.mutable()
	if _, existed := out.fields[field]; !existed {
		out.order = append(out.order, field)
	}
	out.fields[field] = v
	return out
}

func (r *Record) Fields(f func(name string, v Value) bool) {
	for _, name := range r.order {
		if !f(name, r.fields[name]) {
			return
		}
	}
}

func recordsEqual(a, b *Record) bool {
	if a.TypeName != b.TypeName || len(a.fields) != len(b.fields) {
		return false
	}
	for k, v := range a.fields {
		bv, ok := b.fields[k]
		if !ok || !Equal(v, bv) {
			return false
		}
	}
	return true
}

// Union is a nominal tagged variant: {tag: interned-string-id, payload}.
// PayloadCopy caches whether this variant's payload is Copy-category, so
// Value.IsCopy on a union doesn't need the full declared-variant table.
type Union struct {
	Tag         uint32
	Payload     Value
	PayloadCopy bool
}

func NewUnion(tag uint32, payload Value) Value {
	return Value{kind: KindUnion, payload: &Union{Tag: tag, Payload: payload, PayloadCopy: payload.IsCopy()}}
}

func (v Value) AsUnion() (*Union, bool) {
	if v.kind != KindUnion {
		return nil, false
	}
	return v.payload.(*Union), true
}

func (v Value) AsList() (*List, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.payload.(*List), true
}

func (v Value) AsTuple() (*Tuple, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.payload.(*Tuple), true
}

func (v Value) AsSet() (*Set, bool) {
	if v.kind != KindSet {
		return nil, false
	}
	return v.payload.(*Set), true
}

func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.payload.(*Map), true
}

func (v Value) AsRecord() (*Record, bool) {
	if v.kind != KindRecord {
		return nil, false
	}
	return v.payload.(*Record), true
}

// FromList/FromMap/... wrap an already-built container back into a Value;
// used by opcode handlers that mutate via the *List/*Map API directly.
func FromList(l *List) Value     { return Value{kind: KindList, payload: l} }
func FromTuple(t *Tuple) Value   { return Value{kind: KindTuple, payload: t} }
func FromSet(s *Set) Value       { return Value{kind: KindSet, payload: s} }
func FromMap(m *Map) Value       { return Value{kind: KindMap, payload: m} }
func FromRecord(r *Record) Value { return Value{kind: KindRecord, payload: r} }
