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

package durability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaVersionCompare(t *testing.T) {
	v1 := SchemaVersion{Major: 1, Minor: 0, Patch: 0}
	v2 := SchemaVersion{Major: 1, Minor: 1, Patch: 0}
	assert.Equal(t, -1, v1.Compare(v2))
	assert.Equal(t, 1, v2.Compare(v1))
	assert.Equal(t, 0, v1.Compare(v1))
}

func TestSchemaVersionString(t *testing.T) {
	assert.Equal(t, "1.2.3", SchemaVersion{Major: 1, Minor: 2, Patch: 3}.String())
}

func TestNextSnapshotIdMonotonic(t *testing.T) {
	a := NextSnapshotId()
	b := NextSnapshotId()
	assert.Greater(t, uint64(b), uint64(a))
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	s := &Snapshot{
		Version: CurrentSchemaVersion,
		ID:      NextSnapshotId(),
		Frames: []FrameSnapshot{
			{CellIdx: 0, IP: 4, BaseRegister: 0, ReturnRegister: 1, ExpectedResults: 1},
		},
		Registers: [][]SerializedValue{
			{{Kind: "int", Int: 42}, {Kind: "string", Str: "hi", Interned: true}},
		},
		Heap: []HeapObject{
			{Index: 0, Kind: "list", Fields: []SerializedValue{{Kind: "int", Int: 1}}},
		},
		Interned:    []string{"hi"},
		IPAtSuspend: 4,
	}

	data, err := s.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s.Version, decoded.Version)
	assert.Equal(t, s.ID, decoded.ID)
	assert.Equal(t, s.Frames, decoded.Frames)
	assert.Equal(t, s.Registers, decoded.Registers)
	assert.Equal(t, s.Heap, decoded.Heap)
	assert.Equal(t, s.Interned, decoded.Interned)
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not a snapshot"))
	require.Error(t, err)
	var de *ErrDeserializationFailed
	assert.ErrorAs(t, err, &de)
}
