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

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math/big"
)

// gobValue is the exported, flattened wire shape of a Value. Value's
// own fields are unexported (so it stays small and copyable by value
// for the scalar cases), which means gob's reflection-based encoder
// would otherwise silently drop every field; GobEncode/GobDecode below
// round-trip through this shape instead.
//
// Aliasing note: a Shared Upvalue captured by two live closures is
// flattened to two independent copies on decode — snapshot round-trip
// preserves each closure's observable values but not cross-closure
// identity of the captured cell. Acceptable for the snapshot/LIR
// constant-pool use cases this serves; a future aliasing-preserving
// format would need its own upvalue identity table.
type gobValue struct {
	Kind Kind

	B  bool
	I  int64
	F  float64
	BI []byte // big.Int.Bytes(); negative flag in BINeg
	BINeg bool

	Bytes []byte

	Str       string
	Intern    uint32
	StrIntern bool

	Items []gobValue // List, Tuple, Set

	MapKeys []gobValue // Map, parallel with MapVals
	MapVals []gobValue

	RecordType   string
	RecordOrder  []string
	RecordFields map[string]gobValue

	UnionTag     uint32
	UnionPayload *gobValue

	ClosureProto    int
	ClosureUpvalues []gobUpvalue

	FutureState  FutureState
	FutureResult *gobValue
	FutureErr    string

	HeapIndex uint32
	HeapGen   uint32
}

type gobUpvalue struct {
	Shared bool
	Val    gobValue
}

func toGobValue(v Value) gobValue {
	g := gobValue{Kind: v.kind}
	switch v.kind {
	case KindNull:
	case KindBool:
		g.B = v.b
	case KindInt:
		g.I = v.i
	case KindFloat:
		g.F = v.f
	case KindBigInt:
		if v.bi != nil {
			g.BI = new(big.Int).Abs(v.bi).Bytes()
			g.BINeg = v.bi.Sign() < 0
		}
	case KindBytes:
		g.Bytes = append([]byte{}, v.bytes...)
	case KindString:
		g.Str, g.Intern, g.StrIntern = v.str, v.intern, v.strIntn
	case KindList:
		l := v.payload.(*List)
		g.Items = make([]gobValue, len(l.data))
		for i, item := range l.data {
			g.Items[i] = toGobValue(item)
		}
	case KindTuple:
		t := v.payload.(*Tuple)
		g.Items = make([]gobValue, len(t.data))
		for i, item := range t.data {
			g.Items[i] = toGobValue(item)
		}
	case KindSet:
		s := v.payload.(*Set)
		g.Items = make([]gobValue, len(s.items))
		for i, item := range s.items {
			g.Items[i] = toGobValue(item)
		}
	case KindMap:
		m := v.payload.(*Map)
		g.MapKeys = make([]gobValue, len(m.entries))
		g.MapVals = make([]gobValue, len(m.entries))
		for i, e := range m.entries {
			g.MapKeys[i] = toGobValue(e.key)
			g.MapVals[i] = toGobValue(e.val)
		}
	case KindRecord:
		r := v.payload.(*Record)
		g.RecordType = r.TypeName
		g.RecordOrder = append([]string{}, r.order...)
		g.RecordFields = make(map[string]gobValue, len(r.fields))
		for k, fv := range r.fields {
			g.RecordFields[k] = toGobValue(fv)
		}
	case KindUnion:
		u := v.payload.(*Union)
		g.UnionTag = u.Tag
		payload := toGobValue(u.Payload)
		g.UnionPayload = &payload
	case KindClosure:
		c := v.payload.(*Closure)
		g.ClosureProto = c.ProtoIndex
		g.ClosureUpvalues = make([]gobUpvalue, len(c.Upvalues))
		for i, uv := range c.Upvalues {
			g.ClosureUpvalues[i] = gobUpvalue{Shared: uv.Shared, Val: toGobValue(uv.Get())}
		}
	case KindFuture:
		f := v.payload.(*Future)
		g.FutureState = f.State
		if f.State == FutureResolved {
			res := toGobValue(f.Result)
			g.FutureResult = &res
		}
		if f.Err != nil {
			g.FutureErr = f.Err.Error()
		}
	case KindHeapRef:
		hr := v.payload.(HeapRef)
		g.HeapIndex, g.HeapGen = hr.Index, hr.Gen
	}
	return g
}

func fromGobValue(g gobValue) Value {
	switch g.Kind {
	case KindNull:
		return Null
	case KindBool:
		return Bool(g.B)
	case KindInt:
		return Int(g.I)
	case KindFloat:
		return Float(g.F)
	case KindBigInt:
		bi := new(big.Int).SetBytes(g.BI)
		if g.BINeg {
			bi.Neg(bi)
		}
		return BigInt(bi)
	case KindBytes:
		return Bytes(append([]byte{}, g.Bytes...))
	case KindString:
		if g.StrIntern {
			return InternedString(g.Intern)
		}
		return OwnedString(g.Str)
	case KindList:
		items := make([]Value, len(g.Items))
		for i, gi := range g.Items {
			items[i] = fromGobValue(gi)
		}
		return NewList(items...)
	case KindTuple:
		items := make([]Value, len(g.Items))
		for i, gi := range g.Items {
			items[i] = fromGobValue(gi)
		}
		return NewTuple(items...)
	case KindSet:
		items := make([]Value, len(g.Items))
		for i, gi := range g.Items {
			items[i] = fromGobValue(gi)
		}
		return NewSet(items...)
	case KindMap:
		out := NewMap()
		m, _ := out.AsMap()
		for i := range g.MapKeys {
			m = m.Put(fromGobValue(g.MapKeys[i]), fromGobValue(g.MapVals[i]))
		}
		return Value{kind: KindMap, payload: m}
	case KindRecord:
		fields := make(map[string]Value, len(g.RecordFields))
		for k, fv := range g.RecordFields {
			fields[k] = fromGobValue(fv)
		}
		return NewRecord(g.RecordType, fields, g.RecordOrder)
	case KindUnion:
		var payload Value
		if g.UnionPayload != nil {
			payload = fromGobValue(*g.UnionPayload)
		}
		return NewUnion(g.UnionTag, payload)
	case KindClosure:
		upvalues := make([]Upvalue, len(g.ClosureUpvalues))
		for i, guv := range g.ClosureUpvalues {
			val := fromGobValue(guv.Val)
			if guv.Shared {
				cell := val
				upvalues[i] = SharedUpvalue(&cell)
			} else {
				upvalues[i] = CopyUpvalue(val)
			}
		}
		return NewClosure(g.ClosureProto, upvalues)
	case KindFuture:
		fv := NewFuture()
		f, _ := fv.AsFuture()
		switch g.FutureState {
		case FutureResolved:
			f.Resolve(fromGobValue(*g.FutureResult))
		case FutureRejected:
			f.Reject(errors.New(g.FutureErr))
		}
		return fv
	case KindHeapRef:
		return NewHeapRef(g.HeapIndex, g.HeapGen)
	default:
		return Null
	}
}

// GobEncode implements gob.GobEncoder, flattening the unexported
// fields through gobValue so durability snapshots and LIR constant
// pools round-trip every Kind.
func (v Value) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toGobValue(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (v *Value) GobDecode(data []byte) error {
	var g gobValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	*v = fromGobValue(g)
	return nil
}
