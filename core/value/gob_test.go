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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gobRoundTrip(t *testing.T, v Value) Value {
	t.Helper()
	data, err := v.GobEncode()
	require.NoError(t, err)
	var out Value
	require.NoError(t, out.GobDecode(data))
	return out
}

func TestGobRoundTripScalars(t *testing.T) {
	assert.True(t, Equal(Null, gobRoundTrip(t, Null)))
	assert.True(t, Equal(Bool(true), gobRoundTrip(t, Bool(true))))
	assert.True(t, Equal(Int(-42), gobRoundTrip(t, Int(-42))))
	assert.True(t, Equal(Float(3.5), gobRoundTrip(t, Float(3.5))))
	assert.True(t, Equal(Bytes([]byte{1, 2, 3}), gobRoundTrip(t, Bytes([]byte{1, 2, 3}))))
	assert.True(t, Equal(OwnedString("hi"), gobRoundTrip(t, OwnedString("hi"))))
	assert.True(t, Equal(BigInt(big.NewInt(-9000)), gobRoundTrip(t, BigInt(big.NewInt(-9000)))))
}

func TestGobRoundTripList(t *testing.T) {
	v := NewList(Int(1), OwnedString("a"), Bool(false))
	out := gobRoundTrip(t, v)
	l, ok := out.AsList()
	require.True(t, ok)
	require.Equal(t, 3, l.Len())
	e0, _ := l.Get(0)
	assert.True(t, Equal(Int(1), e0))
}

func TestGobRoundTripRecord(t *testing.T) {
	v := NewRecord("Point", map[string]Value{"x": Int(1), "y": Int(2)}, []string{"x", "y"})
	out := gobRoundTrip(t, v)
	r, ok := out.AsRecord()
	require.True(t, ok)
	assert.Equal(t, "Point", r.TypeName)
	x, ok := r.Get("x")
	require.True(t, ok)
	assert.True(t, Equal(Int(1), x))
}

func TestGobRoundTripMap(t *testing.T) {
	base, _ := NewMap().AsMap()
	m := base.Put(OwnedString("k"), Int(7))
	out := gobRoundTrip(t, Value{kind: KindMap, payload: m})
	om, ok := out.AsMap()
	require.True(t, ok)
	got, ok := om.Get(OwnedString("k"))
	require.True(t, ok)
	assert.True(t, Equal(Int(7), got))
}

func TestGobRoundTripUnion(t *testing.T) {
	v := NewUnion(5, Int(9))
	out := gobRoundTrip(t, v)
	u, ok := out.AsUnion()
	require.True(t, ok)
	assert.Equal(t, uint32(5), u.Tag)
	assert.True(t, Equal(Int(9), u.Payload))
}

func TestGobRoundTripHeapRef(t *testing.T) {
	v := NewHeapRef(3, 7)
	out := gobRoundTrip(t, v)
	hr, ok := out.AsHeapRef()
	require.True(t, ok)
	assert.Equal(t, uint32(3), hr.Index)
	assert.Equal(t, uint32(7), hr.Gen)
}

func TestGobRoundTripFutureResolved(t *testing.T) {
	fv := NewFuture()
	f, _ := fv.AsFuture()
	f.Resolve(Int(99))
	out := gobRoundTrip(t, fv)
	of, ok := out.AsFuture()
	require.True(t, ok)
	assert.Equal(t, FutureResolved, of.State)
	assert.True(t, Equal(Int(99), of.Result))
}
