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

// Package durability implements the C4 durability layer: versioned,
// serializable VM snapshots with schema migration, an atomic-write
// checkpoint store, deterministic replay recording/playback, a
// write-ahead durable log with intent/result separation, a schema-drift
// detector, and an idempotency store (spec.md §4.4).
package durability

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync/atomic"
)

// SchemaVersion is a semver-ordered tag attached to every Snapshot, so
// a loader presented with an older snapshot can find a migration path
// to the version it understands (spec.md §4.4 "Schema evolution is
// governed by a MigrationRegistry").
type SchemaVersion struct {
	Major, Minor, Patch uint32
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, ordered lexicographically by (Major, Minor, Patch).
func (v SchemaVersion) Compare(other SchemaVersion) int {
	switch {
	case v.Major != other.Major:
		return cmp3(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmp3(v.Minor, other.Minor)
	default:
		return cmp3(v.Patch, other.Patch)
	}
}

func cmp3(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CurrentSchemaVersion is the version newly-created Snapshots are
// stamped with.
var CurrentSchemaVersion = SchemaVersion{Major: 1, Minor: 0, Patch: 0}

// SnapshotId is a monotonically increasing, process-wide identifier; a
// snapshot is born at a suspension point, serialized, and never
// mutated (spec.md §4 "A snapshot is born... and never mutated").
type SnapshotId uint64

var snapshotCounter uint64

// NextSnapshotId allocates the next SnapshotId. Safe for concurrent use
// across multiple VM drivers sharing one process.
func NextSnapshotId() SnapshotId {
	return SnapshotId(atomic.AddUint64(&snapshotCounter, 1))
}

// SerializedValue is the on-disk shape of a VM value: a discriminated
// union mirroring core/value.Value's Kind tag, but self-contained (no
// dependency on live heap state) so it round-trips through gob.
// Containers reference other heap objects by index rather than nesting,
// matching the flat HeapObject table a Snapshot carries.
type SerializedValue struct {
	Kind     string // "null", "bool", "int", "float", "bigint", "string", "bytes", "heapref"
	Bool     bool
	Int      int64
	Float    float64
	BigInt   string // decimal string, arbitrary precision
	Str      string
	Interned bool
	Bytes    []byte
	HeapRef  uint32
}

// HeapObject is one entry in a Snapshot's flattened heap: Kind
// distinguishes List/Map/Set/Tuple/Record/Union/Closure bodies, whose
// fields are themselves SerializedValues referencing further indices.
type HeapObject struct {
	Index  uint32
	Kind   string
	Fields []SerializedValue
	// Meta carries kind-specific metadata not representable as a value
	// list: a Record's field names, a Closure's ProtoIndex, etc.
	Meta map[string]string
}

// FrameSnapshot captures one call frame's resumable state.
type FrameSnapshot struct {
	CellIdx             int
	IP                  int
	BaseRegister        int
	ReturnRegister      int
	HandlerDepthOnEntry int
	ExpectedResults     int
	PendingDest         int
}

// HandlerFrameSnapshot captures one installed effect handler.
type HandlerFrameSnapshot struct {
	HandledEffects []string
	BodyStart      int
	CapturedState  int
}

// Snapshot is a complete, versioned record of a suspended VM (spec.md
// §4.4): enough to reconstruct frames, registers, heap, the intern
// table, and the handler stack, and resume execution exactly where it
// left off.
type Snapshot struct {
	Version      SchemaVersion
	ID           SnapshotId
	Frames       []FrameSnapshot
	Registers    [][]SerializedValue // parallel to Frames
	Heap         []HeapObject
	Interned     []string
	HandlerStack []HandlerFrameSnapshot
	IPAtSuspend  int
}

// ErrSchemaVersionUnknown is returned when a loaded snapshot's version
// has no migration path to CurrentSchemaVersion.
type ErrSchemaVersionUnknown struct{ Version SchemaVersion }

func (e *ErrSchemaVersionUnknown) Error() string {
	return fmt.Sprintf("durability: no migration path from schema version %s", e.Version)
}

// ErrDeserializationFailed wraps a gob decode failure.
type ErrDeserializationFailed struct{ Err error }

func (e *ErrDeserializationFailed) Error() string {
	return fmt.Sprintf("durability: snapshot deserialization failed: %v", e.Err)
}
func (e *ErrDeserializationFailed) Unwrap() error { return e.Err }

// Encode serializes s to bytes. gob is used rather than a schema-first
// format (no protobuf/msgpack/flatbuffers dependency appears anywhere
// in the example corpus) since Snapshot's shape is entirely
// Go-native and gob's self-describing wire format tolerates the
// additive field changes migrations are meant to handle.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("durability: snapshot serialization failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes bytes produced by Snapshot.Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, &ErrDeserializationFailed{Err: err}
	}
	return &s, nil
}
