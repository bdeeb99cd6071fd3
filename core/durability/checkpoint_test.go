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

func TestMemoryCheckpointStoreSaveLoad(t *testing.T) {
	s := NewMemoryCheckpointStore()
	require.NoError(t, s.Save("vm1", 1, []byte("snap-one")))
	require.NoError(t, s.Save("vm1", 2, []byte("snap-two")))

	data, err := s.Load("vm1", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("snap-one"), data)

	data, id, err := s.LoadLatest("vm1")
	require.NoError(t, err)
	assert.Equal(t, SnapshotId(2), id)
	assert.Equal(t, []byte("snap-two"), data)
}

func TestMemoryCheckpointStoreMissing(t *testing.T) {
	s := NewMemoryCheckpointStore()
	_, err := s.Load("none", 1)
	require.Error(t, err)
	var nse *ErrNoSnapshot
	assert.ErrorAs(t, err, &nse)
}

func TestMemoryCheckpointStorePrune(t *testing.T) {
	s := NewMemoryCheckpointStore()
	for i := SnapshotId(1); i <= 5; i++ {
		require.NoError(t, s.Save("vm1", i, []byte("x")))
	}
	require.NoError(t, s.Prune("vm1", 2))
	ids, err := s.List("vm1")
	require.NoError(t, err)
	assert.Equal(t, []SnapshotId{4, 5}, ids)
}

func TestFileCheckpointStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileCheckpointStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save("vm1", 1, []byte("snap-bytes")))
	data, err := s.Load("vm1", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("snap-bytes"), data)

	_, _, err = s.LoadLatest("missing-vm")
	require.Error(t, err)
}

func TestFileCheckpointStoreCompressed(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCompressedFileCheckpointStore(dir)
	require.NoError(t, err)

	payload := []byte("a very compressible payload aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, s.Save("vm1", 1, payload))
	data, err := s.Load("vm1", 1)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFileCheckpointStorePrune(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileCheckpointStore(dir)
	require.NoError(t, err)

	for i := SnapshotId(1); i <= 4; i++ {
		require.NoError(t, s.Save("vm1", i, []byte("x")))
	}
	require.NoError(t, s.Prune("vm1", 1))
	ids, err := s.List("vm1")
	require.NoError(t, err)
	assert.Equal(t, []SnapshotId{4}, ids)
}
