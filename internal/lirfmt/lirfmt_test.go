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

package lirfmt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/core/value"
	"github.com/lumen-run/lumen/core/vm"
)

func sampleModule() *vm.Module {
	return &vm.Module{
		Version: 1,
		Cells: []*vm.Cell{
			{
				Name:      "main",
				Params:    []vm.Param{{Name: "x", Register: 0, TypeName: "Int"}},
				Registers: 2,
				Code: []vm.Instruction{
					vm.EncodeABx(vm.LoadK, 1, 0),
					vm.EncodeABC(vm.Return, 1, 1, 0),
				},
				Debug:     vm.DebugInfo{SourceFile: "main.lum", Lines: []uint32{1, 2}},
				EffectRow: []string{"emit"},
			},
		},
		Constants: []value.Value{value.Int(42), value.OwnedString("hi")},
		Types:     []vm.TypeDesc{{Name: "Point", Fields: []string{"x", "y"}}},
		Effects:   []vm.EffectSig{{Name: "emit", Params: []string{"msg"}}},
		Imports:   []string{"http.fetch"},
		Interned:  []string{"x", "y"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleModule()
	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Len(t, decoded.Cells, 1)
	assert.Equal(t, "main", decoded.Cells[0].Name)
	assert.Equal(t, uint16(2), decoded.Cells[0].Registers)
	assert.Equal(t, []string{"emit"}, decoded.Cells[0].EffectRow)
	require.Len(t, decoded.Constants, 2)
	i, ok := decoded.Constants[0].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)
	assert.Equal(t, []string{"http.fetch"}, decoded.Imports)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not a module"))
	require.Error(t, err)
	var decErr *ErrDecode
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	m := sampleModule()
	data, err := Encode(m)
	require.NoError(t, err)

	// Corrupting FormatVersion directly isn't possible without decoding
	// gob by hand, so instead confirm the version check fires by
	// decoding into a wireModule with a version bumped past what this
	// build understands.
	w, decodeErr := decodeWire(data)
	require.NoError(t, decodeErr)
	w.Version = FormatVersion + 1
	reencoded, err := encodeWire(w)
	require.NoError(t, err)

	_, err = Decode(reencoded)
	require.Error(t, err)
	var verErr *ErrUnsupportedVersion
	assert.ErrorAs(t, err, &verErr)
}

func TestWriteReadFileRoundTrip(t *testing.T) {
	m := sampleModule()
	path := filepath.Join(t.TempDir(), "test.lir")
	require.NoError(t, WriteFile(path, m))

	decoded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "main", decoded.Cells[0].Name)
}
