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

// Package value implements the Lumen tagged Value representation: the
// scalar variants, the process-wide string intern table, and the
// reference-counted copy-on-write containers (List/Map/Set/Tuple/Record).
package value

import (
	"fmt"
	"math/big"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindBytes
	KindString
	KindList
	KindTuple
	KindSet
	KindMap
	KindRecord
	KindUnion
	KindClosure
	KindFuture
	KindHeapRef
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindBigInt:
		return "bigint"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindClosure:
		return "closure"
	case KindFuture:
		return "future"
	case KindHeapRef:
		return "heapref"
	default:
		return "unknown"
	}
}

// Value is the tagged sum type shared by the VM register file, the
// analyzer's constant-folding paths, and the durability layer's
// serialized snapshots (spec.md §3).
//
// Only one of the typed fields is meaningful for a given Kind; payload
// is used for the variable-size/heap variants (List, Map, Set, Tuple,
// Record, Union, Closure, Future, HeapRef) to keep the struct itself
// small and copyable by value for the scalar cases.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	bi      *big.Int
	bytes   []byte
	str     string  // owned string payload
	intern  uint32  // interned string id, valid when strIntn is true
	strIntn bool
	payload interface{} // *List, *Map, *Set, *Tuple, *Record, *Union, *Closure, *Future, HeapRef
}

// Null is the single null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Int(i int64) Value    { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }
func BigInt(b *big.Int) Value { return Value{kind: KindBigInt, bi: b} }

// OwnedString builds a Value holding its own UTF-8 bytes, not looked up
// in the intern table.
func OwnedString(s string) Value { return Value{kind: KindString, str: s} }

// InternedString builds a Value referencing intern table slot id. The
// caller is responsible for having interned the string already (see
// Interner.Intern).
func InternedString(id uint32) Value { return Value{kind: KindString, intern: id, strIntn: true} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

func (v Value) AsBigInt() (*big.Int, bool) {
	if v.kind != KindBigInt {
		return nil, false
	}
	return v.bi, true
}

// StringRef returns the owned string bytes or, for an interned Value,
// reports the intern id so the caller can resolve it through an Interner.
func (v Value) StringRef() (owned string, internID uint32, interned bool, ok bool) {
	if v.kind != KindString {
		return "", 0, false, false
	}
	if v.strIntn {
		return "", v.intern, true, true
	}
	return v.str, 0, false, true
}

// IsCopy reports whether this value's category is Copy per spec.md
// §3/§4.3.2: scalars, null, bytes, strings, and unions whose
// Union.PayloadCopy flag is set. Containers, records, closures, futures,
// and heap references are always Owned.
func (v Value) IsCopy() bool {
	switch v.kind {
	case KindNull, KindBool, KindInt, KindBigInt, KindFloat, KindBytes, KindString:
		return true
	case KindUnion:
		u, _ := v.payload.(*Union)
		return u != nil && u.PayloadCopy
	default:
		return false
	}
}

// Equal implements structural equality over Value, used by Map/Set keys
// and the VM's Eq comparison opcode (spec.md §4.2).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindBigInt:
		return a.bi.Cmp(b.bi) == 0
	case KindBytes:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	case KindString:
		if a.strIntn || b.strIntn {
			// Interned strings compare by id; mixing owned/interned
			// forms of the same text is resolved upstream by the
			// interner before the comparison reaches here.
			return a.strIntn == b.strIntn && a.intern == b.intern
		}
		return a.str == b.str
	case KindList:
		return listsEqual(a.payload.(*List), b.payload.(*List))
	case KindTuple:
		return tuplesEqual(a.payload.(*Tuple), b.payload.(*Tuple))
	case KindSet:
		return setsEqual(a.payload.(*Set), b.payload.(*Set))
	case KindMap:
		return mapsEqual(a.payload.(*Map), b.payload.(*Map))
	case KindRecord:
		return recordsEqual(a.payload.(*Record), b.payload.(*Record))
	case KindUnion:
		ua, ub := a.payload.(*Union), b.payload.(*Union)
		return ua.Tag == ub.Tag && Equal(ua.Payload, ub.Payload)
	default:
		// Closures and Futures compare by identity only.
		return a.payload == b.payload
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBigInt:
		return v.bi.String()
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.bytes))
	case KindString:
		if v.strIntn {
			return fmt.Sprintf("#%d", v.intern)
		}
		return v.str
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
