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

import "testing"

func TestContentHashStableForEqualValues(t *testing.T) {
	a := ContentHash(Int(42))
	b := ContentHash(Int(42))
	if a != b {
		t.Fatalf("expected equal digests for equal values, got %x != %x", a, b)
	}
}

func TestContentHashDiffersAcrossKinds(t *testing.T) {
	a := ContentHash(Int(1))
	b := ContentHash(Float(1))
	if a == b {
		t.Fatalf("expected distinct digests across Kind, got both %x", a)
	}
}

func TestMapLookupUsesStructuralDigest(t *testing.T) {
	base, _ := NewMap().AsMap()
	m := base.Put(OwnedString("k"), Int(1)).Put(OwnedString("k"), Int(2))
	v, ok := m.Get(OwnedString("k"))
	if !ok || !Equal(v, Int(2)) {
		t.Fatalf("expected second Put to overwrite the first, got %v ok=%v", v, ok)
	}
}

func TestSetDeduplicatesStructurallyEqualValues(t *testing.T) {
	s, ok := NewSet(Int(1), Int(1), Int(2)).AsSet()
	if !ok {
		t.Fatal("expected a Set")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct elements, got %d", s.Len())
	}
}
