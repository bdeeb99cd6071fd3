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

import (
	"fmt"
	"math/big"

	"github.com/lumen-run/lumen/core/durability"
	"github.com/lumen-run/lumen/core/value"
)

// Snapshot captures the executor's full resumable state into a
// durability.Snapshot: call frames, the register windows, the handler
// stack, and every container/closure/future value reachable from them,
// flattened into the Snapshot's heap table (spec.md §4.4; the suspend
// side of §4 "A snapshot is born at a suspension point").
//
// Shared upvalues lose pointer identity across a snapshot boundary:
// each is captured by value rather than by the live cell it aliased,
// since a gob-serialized Snapshot cannot carry a Go pointer. This is
// the resolution recorded for the "closures across snapshots" Open
// Question.
func (ex *Executor) Snapshot() (*durability.Snapshot, error) {
	if ex.state != StateSuspended {
		return nil, fmt.Errorf("vm: Snapshot called while executor is not Suspended")
	}
	enc := newSnapshotEncoder(ex.Interner)

	frames := make([]durability.FrameSnapshot, len(ex.frames))
	registers := make([][]durability.SerializedValue, len(ex.regs))
	for i, fr := range ex.frames {
		frames[i] = durability.FrameSnapshot{
			CellIdx:             fr.CellIdx,
			IP:                  fr.IP,
			BaseRegister:        fr.BaseRegister,
			ReturnRegister:      fr.ReturnRegister,
			HandlerDepthOnEntry: fr.HandlerDepthOnEntry,
			ExpectedResults:     fr.ExpectedResults,
			PendingDest:         fr.PendingDest,
		}
		slots := ex.regs[i].Snapshot()
		row := make([]durability.SerializedValue, len(slots))
		for j, v := range slots {
			row[j] = enc.encode(v)
		}
		registers[i] = row
	}

	handlerStack := make([]durability.HandlerFrameSnapshot, ex.handler.Depth())
	for i := range ex.handler.frames {
		hf := ex.handler.frames[i]
		handlerStack[i] = durability.HandlerFrameSnapshot{
			HandledEffects: append([]string(nil), hf.HandledEffects...),
			BodyStart:      hf.BodyStart,
			CapturedState:  hf.CapturedState,
		}
	}

	ipAtSuspend := 0
	if len(ex.frames) > 0 {
		ipAtSuspend = ex.frames[len(ex.frames)-1].IP
	}

	return &durability.Snapshot{
		Version:      durability.CurrentSchemaVersion,
		ID:           durability.NextSnapshotId(),
		Frames:       frames,
		Registers:    registers,
		Heap:         enc.objects,
		Interned:     enc.interned,
		HandlerStack: handlerStack,
		IPAtSuspend:  ipAtSuspend,
	}, nil
}

// Restore reconstructs an executor's frames, registers, and handler
// stack from a previously captured Snapshot, leaving the executor
// Suspended and ready for Resume/ResumeWithValue. module must be the
// same (or schema-compatible) module the snapshot was taken against;
// Restore does not itself run migrations — callers migrate the
// Snapshot via a durability.MigrationRegistry first.
func (ex *Executor) Restore(s *durability.Snapshot) error {
	dec := newSnapshotDecoder(s, ex.Interner)

	frames := make([]Frame, len(s.Frames))
	regs := make([]*Registers, len(s.Registers))
	for i, fs := range s.Frames {
		frames[i] = Frame{
			CellIdx:             fs.CellIdx,
			IP:                  fs.IP,
			BaseRegister:        fs.BaseRegister,
			ReturnRegister:      fs.ReturnRegister,
			HandlerDepthOnEntry: fs.HandlerDepthOnEntry,
			ExpectedResults:     fs.ExpectedResults,
			PendingDest:         fs.PendingDest,
		}
	}
	for i, row := range s.Registers {
		r := newRegisters(len(row))
		for j, sv := range row {
			v, err := dec.decode(sv)
			if err != nil {
				return fmt.Errorf("vm: restoring register %d of frame %d: %w", j, i, err)
			}
			r.Set(j, v)
		}
		regs[i] = r
	}

	handlerFrames := make([]HandlerFrame, len(s.HandlerStack))
	for i, hf := range s.HandlerStack {
		handlerFrames[i] = HandlerFrame{
			HandledEffects: append([]string(nil), hf.HandledEffects...),
			BodyStart:      hf.BodyStart,
			CapturedState:  hf.CapturedState,
		}
	}

	ex.frames = frames
	ex.regs = regs
	ex.handler = HandlerStack{frames: handlerFrames}
	ex.state = StateSuspended
	return nil
}

// snapshotEncoder flattens live value.Values into a Snapshot's
// index-referencing heap table, deduplicating interned strings into
// the Snapshot's Interned list.
type snapshotEncoder struct {
	objects       []durability.HeapObject
	interned      []string
	internedIndex map[string]int
	liveInterner  *value.Interner
}

func newSnapshotEncoder(liveInterner *value.Interner) *snapshotEncoder {
	return &snapshotEncoder{internedIndex: make(map[string]int), liveInterner: liveInterner}
}

func (e *snapshotEncoder) internIndex(s string) int {
	if idx, ok := e.internedIndex[s]; ok {
		return idx
	}
	idx := len(e.interned)
	e.interned = append(e.interned, s)
	e.internedIndex[s] = idx
	return idx
}

func (e *snapshotEncoder) alloc(kind string) uint32 {
	idx := uint32(len(e.objects))
	e.objects = append(e.objects, durability.HeapObject{Index: idx, Kind: kind})
	return idx
}

func (e *snapshotEncoder) encode(v value.Value) durability.SerializedValue {
	switch v.Kind() {
	case value.KindNull:
		return durability.SerializedValue{Kind: "null"}
	case value.KindBool:
		b, _ := v.AsBool()
		return durability.SerializedValue{Kind: "bool", Bool: b}
	case value.KindInt:
		i, _ := v.AsInt()
		return durability.SerializedValue{Kind: "int", Int: i}
	case value.KindFloat:
		f, _ := v.AsFloat()
		return durability.SerializedValue{Kind: "float", Float: f}
	case value.KindBigInt:
		bi, _ := v.AsBigInt()
		return durability.SerializedValue{Kind: "bigint", BigInt: bi.String()}
	case value.KindBytes:
		b, _ := v.AsBytes()
		return durability.SerializedValue{Kind: "bytes", Bytes: append([]byte(nil), b...)}
	case value.KindString:
		owned, internID, interned, _ := v.StringRef()
		if interned {
			text, ok := e.liveInterner.Resolve(internID)
			if !ok {
				text = ""
			}
			return durability.SerializedValue{Kind: "string", Interned: true, Int: int64(e.internIndex(text))}
		}
		return durability.SerializedValue{Kind: "string", Str: owned}
	case value.KindList:
		l, _ := v.AsList()
		idx := e.alloc("list")
		var fields []durability.SerializedValue
		l.Each(func(_ int, item value.Value) bool {
			fields = append(fields, e.encode(item))
			return true
		})
		e.objects[idx].Fields = fields
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindTuple:
		t, _ := v.AsTuple()
		idx := e.alloc("tuple")
		fields := make([]durability.SerializedValue, t.Len())
		for i := 0; i < t.Len(); i++ {
			item, _ := t.Get(i)
			fields[i] = e.encode(item)
		}
		e.objects[idx].Fields = fields
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindSet:
		s, _ := v.AsSet()
		idx := e.alloc("set")
		var fields []durability.SerializedValue
		s.Each(func(item value.Value) bool {
			fields = append(fields, e.encode(item))
			return true
		})
		e.objects[idx].Fields = fields
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindMap:
		m, _ := v.AsMap()
		idx := e.alloc("map")
		var fields []durability.SerializedValue
		m.Each(func(k, val value.Value) bool {
			fields = append(fields, e.encode(k), e.encode(val))
			return true
		})
		e.objects[idx].Fields = fields
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindRecord:
		r, _ := v.AsRecord()
		idx := e.alloc("record")
		var names []string
		var fields []durability.SerializedValue
		r.Fields(func(name string, val value.Value) bool {
			names = append(names, name)
			fields = append(fields, e.encode(val))
			return true
		})
		e.objects[idx].Fields = fields
		e.objects[idx].Meta = map[string]string{"fieldNames": joinComma(names), "typeName": r.TypeName}
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindUnion:
		u, _ := v.AsUnion()
		idx := e.alloc("union")
		e.objects[idx].Fields = []durability.SerializedValue{e.encode(u.Payload)}
		e.objects[idx].Meta = map[string]string{"tag": fmt.Sprint(u.Tag)}
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindClosure:
		c, _ := v.AsClosure()
		idx := e.alloc("closure")
		fields := make([]durability.SerializedValue, len(c.Upvalues))
		for i, uv := range c.Upvalues {
			fields[i] = e.encode(uv.Get())
		}
		e.objects[idx].Fields = fields
		e.objects[idx].Meta = map[string]string{"protoIndex": fmt.Sprint(c.ProtoIndex)}
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindFuture:
		f, _ := v.AsFuture()
		idx := e.alloc("future")
		state := "pending"
		var fields []durability.SerializedValue
		switch f.State {
		case value.FutureResolved:
			state = "resolved"
			fields = []durability.SerializedValue{e.encode(f.Result)}
		case value.FutureRejected:
			state = "rejected"
		}
		e.objects[idx].Fields = fields
		meta := map[string]string{"state": state}
		if f.State == value.FutureRejected && f.Err != nil {
			meta["error"] = f.Err.Error()
		}
		e.objects[idx].Meta = meta
		return durability.SerializedValue{Kind: "heapref", HeapRef: idx}
	case value.KindHeapRef:
		hr, _ := v.AsHeapRef()
		return durability.SerializedValue{Kind: "gcheapref", HeapRef: hr.Index, Int: int64(hr.Gen)}
	default:
		return durability.SerializedValue{Kind: "null"}
	}
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// snapshotDecoder rebuilds value.Values from a Snapshot's flat table,
// re-interning string constants into the restoring executor's live
// Interner (translation table resolution for the "closures across
// snapshots" Open Question).
type snapshotDecoder struct {
	snapshot *durability.Snapshot
	interner *value.Interner
	cache    map[uint32]value.Value
}

func newSnapshotDecoder(s *durability.Snapshot, interner *value.Interner) *snapshotDecoder {
	return &snapshotDecoder{snapshot: s, interner: interner, cache: make(map[uint32]value.Value)}
}

func (d *snapshotDecoder) decode(sv durability.SerializedValue) (value.Value, error) {
	switch sv.Kind {
	case "null":
		return value.Null, nil
	case "bool":
		return value.Bool(sv.Bool), nil
	case "int":
		return value.Int(sv.Int), nil
	case "float":
		return value.Float(sv.Float), nil
	case "bigint":
		bi, ok := new(big.Int).SetString(sv.BigInt, 10)
		if !ok {
			return value.Null, fmt.Errorf("vm: malformed bigint snapshot value %q", sv.BigInt)
		}
		return value.BigInt(bi), nil
	case "bytes":
		return value.Bytes(append([]byte(nil), sv.Bytes...)), nil
	case "string":
		if sv.Interned {
			text := d.snapshot.Interned[sv.Int]
			return value.InternedString(d.interner.Intern(text)), nil
		}
		return value.OwnedString(sv.Str), nil
	case "gcheapref":
		return value.NewHeapRef(sv.HeapRef, uint32(sv.Int)), nil
	case "heapref":
		return d.decodeHeapObject(sv.HeapRef)
	default:
		return value.Null, fmt.Errorf("vm: unknown serialized value kind %q", sv.Kind)
	}
}

func (d *snapshotDecoder) decodeHeapObject(idx uint32) (value.Value, error) {
	if v, ok := d.cache[idx]; ok {
		return v, nil
	}
	if int(idx) >= len(d.snapshot.Heap) {
		return value.Null, fmt.Errorf("vm: heap object index %d out of range", idx)
	}
	obj := d.snapshot.Heap[idx]

	decodeAll := func(svs []durability.SerializedValue) ([]value.Value, error) {
		out := make([]value.Value, len(svs))
		for i, s := range svs {
			v, err := d.decode(s)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch obj.Kind {
	case "list":
		items, err := decodeAll(obj.Fields)
		if err != nil {
			return value.Null, err
		}
		v := value.NewList(items...)
		d.cache[idx] = v
		return v, nil
	case "tuple":
		items, err := decodeAll(obj.Fields)
		if err != nil {
			return value.Null, err
		}
		v := value.NewTuple(items...)
		d.cache[idx] = v
		return v, nil
	case "set":
		items, err := decodeAll(obj.Fields)
		if err != nil {
			return value.Null, err
		}
		v := value.NewSet(items...)
		d.cache[idx] = v
		return v, nil
	case "map":
		v := value.NewMap()
		m, _ := v.AsMap()
		for i := 0; i+1 < len(obj.Fields); i += 2 {
			k, err := d.decode(obj.Fields[i])
			if err != nil {
				return value.Null, err
			}
			val, err := d.decode(obj.Fields[i+1])
			if err != nil {
				return value.Null, err
			}
			m = m.Put(k, val)
		}
		out := value.FromMap(m)
		d.cache[idx] = out
		return out, nil
	case "record":
		names := splitComma(obj.Meta["fieldNames"])
		fields := make(map[string]value.Value, len(names))
		for i, name := range names {
			if i >= len(obj.Fields) {
				break
			}
			v, err := d.decode(obj.Fields[i])
			if err != nil {
				return value.Null, err
			}
			fields[name] = v
		}
		v := value.NewRecord(obj.Meta["typeName"], fields, names)
		d.cache[idx] = v
		return v, nil
	case "union":
		var tag uint32
		fmt.Sscan(obj.Meta["tag"], &tag)
		var payload value.Value
		if len(obj.Fields) > 0 {
			var err error
			payload, err = d.decode(obj.Fields[0])
			if err != nil {
				return value.Null, err
			}
		}
		v := value.NewUnion(tag, payload)
		d.cache[idx] = v
		return v, nil
	case "closure":
		var protoIndex int
		fmt.Sscan(obj.Meta["protoIndex"], &protoIndex)
		upvalues := make([]value.Upvalue, len(obj.Fields))
		for i, f := range obj.Fields {
			v, err := d.decode(f)
			if err != nil {
				return value.Null, err
			}
			upvalues[i] = value.CopyUpvalue(v)
		}
		v := value.NewClosure(protoIndex, upvalues)
		d.cache[idx] = v
		return v, nil
	case "future":
		v := value.NewFuture()
		f, _ := v.AsFuture()
		switch obj.Meta["state"] {
		case "resolved":
			if len(obj.Fields) > 0 {
				res, err := d.decode(obj.Fields[0])
				if err != nil {
					return value.Null, err
				}
				f.Resolve(res)
			}
		case "rejected":
			f.Reject(fmt.Errorf("%s", obj.Meta["error"]))
		}
		d.cache[idx] = v
		return v, nil
	default:
		return value.Null, fmt.Errorf("vm: unknown heap object kind %q", obj.Kind)
	}
}
