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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/core/durability"
	"github.com/lumen-run/lumen/core/value"
)

func TestSnapshotRestoreResumesAcrossExecutors(t *testing.T) {
	m := addModule()
	ex1 := NewExecutor(m, Config{})

	res := ex1.Call("add", nil, 2) // enough fuel for the two LoadKs only
	require.Equal(t, StateSuspended, res.State)
	require.Equal(t, SuspendFuelOut, res.Reason)

	snap, err := ex1.Snapshot()
	require.NoError(t, err)
	require.Equal(t, durability.CurrentSchemaVersion, snap.Version)

	data, err := snap.Encode()
	require.NoError(t, err)

	roundTripped, err := durability.DecodeSnapshot(data)
	require.NoError(t, err)

	ex2 := NewExecutor(m, Config{})
	require.NoError(t, ex2.Restore(roundTripped))

	res2 := ex2.Resume(1000)
	require.NoError(t, res2.Err)
	require.Equal(t, StateTerminated, res2.State)
	require.Len(t, res2.Returned, 1)
	i, ok := res2.Returned[0].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(8), i)
}

func TestSnapshotRoundTripsContainerValues(t *testing.T) {
	m := &Module{Cells: []*Cell{{Name: "noop", Registers: 1, Code: []Instruction{EncodeABC(Return, 0, 0, 0)}}}}
	ex1 := NewExecutor(m, Config{})

	ex1.frames = []Frame{{CellIdx: 0, IP: 0, BaseRegister: 0, ReturnRegister: -1, ExpectedResults: -1}}
	regs := newRegisters(1)
	record := value.NewRecord("Point", map[string]value.Value{
		"x": value.Int(1),
		"y": value.OwnedString("hi"),
	}, []string{"x", "y"})
	regs.Set(0, record)
	ex1.regs = []*Registers{regs}
	ex1.state = StateSuspended

	snap, err := ex1.Snapshot()
	require.NoError(t, err)

	ex2 := NewExecutor(m, Config{})
	require.NoError(t, ex2.Restore(snap))

	restored := ex2.regs[0].Get(0)
	rec, ok := restored.AsRecord()
	require.True(t, ok)
	x, ok := rec.Get("x")
	require.True(t, ok)
	xi, _ := x.AsInt()
	assert.Equal(t, int64(1), xi)
	yv, ok := rec.Get("y")
	require.True(t, ok)
	assert.Equal(t, "hi", yv.String())
}
