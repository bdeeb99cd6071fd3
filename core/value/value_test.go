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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarEquality(t *testing.T) {
	assert.True(t, Equal(Int(3), Int(3)))
	assert.False(t, Equal(Int(3), Int(4)))
	assert.True(t, Equal(Null, Null))
	assert.True(t, Equal(OwnedString("x"), OwnedString("x")))
	assert.False(t, Equal(Int(3), Float(3)))
}

func TestListCowIsolation(t *testing.T) {
	a, _ := NewList(Int(1), Int(2)).AsList()
	aVal := FromList(a)
	a.Retain() // simulate a second alias, e.g. assigned to another register
	b := a

	mutated := a.Append(Int(3))
	_ = mutated

	bv0, _ := b.Get(0)
	assert.Equal(t, int64(1), mustInt(bv0))
	origLen := a.Len()
	assert.Equal(t, 2, origLen, "original List must be unaffected by CoW mutation while shared")
	_ = aVal
}

func TestListUniqueMutatesInPlace(t *testing.T) {
	l, _ := NewList(Int(1)).AsList()
	m := l.Append(Int(2))
	assert.Same(t, l, m, "unique-owner List should mutate in place")
}

func TestMapInsertionOrderPreserved(t *testing.T) {
	m, _ := NewMap().AsMap()
	m = m.Put(OwnedString("z"), Int(1))
	m = m.Put(OwnedString("a"), Int(2))
	var keys []string
	m.Each(func(k, v Value) bool {
		s, _, _, _ := k.StringRef()
		keys = append(keys, s)
		return true
	})
	require.Equal(t, []string{"z", "a"}, keys)
}

func TestRecordFieldRoundtrip(t *testing.T) {
	rv := NewRecord("Point", map[string]Value{"x": Int(1), "y": Int(2)}, []string{"x", "y"})
	r, ok := rv.AsRecord()
	require.True(t, ok)
	x, ok := r.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), mustInt(x))
}

func TestInternerRoundtrip(t *testing.T) {
	in := NewInterner(0)
	id1 := in.Intern("hello")
	id2 := in.Intern("hello")
	assert.Equal(t, id1, id2)
	s, ok := in.Resolve(id1)
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestUnionCopyInference(t *testing.T) {
	u := NewUnion(1, Int(5))
	assert.True(t, u.IsCopy())
	listU := NewUnion(2, NewList())
	assert.False(t, listU.IsCopy())
}

func mustInt(v Value) int64 {
	i, _ := v.AsInt()
	return i
}
