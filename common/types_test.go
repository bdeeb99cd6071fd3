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

package common

import (
	"bytes"
	"testing"
)

func TestBytesToHashRightAligns(t *testing.T) {
	h := BytesToHash([]byte{5})
	var exp Hash
	exp[31] = 5
	if h != exp {
		t.Errorf("expected %x got %x", exp, h)
	}
}

func TestBytesToHashTruncatesOverlong(t *testing.T) {
	long := bytes.Repeat([]byte{1}, HashLength+4)
	h := BytesToHash(long)
	if h[0] != 1 || h[HashLength-1] != 1 {
		t.Fatalf("expected truncated-left digest, got %x", h)
	}
}

func TestHashHexRoundTrip(t *testing.T) {
	h := BytesToHash([]byte("abc"))
	got := BytesToHash(FromHex(h.Hex()))
	if got != h {
		t.Fatalf("Hex/FromHex round trip mismatch: %x != %x", got, h)
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("zero-value Hash should report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Fatal("non-zero Hash should not report IsZero")
	}
}

func TestLeftPadAndRightPadBytes(t *testing.T) {
	left := LeftPadBytes([]byte{1, 2}, 4)
	if !bytes.Equal(left, []byte{0, 0, 1, 2}) {
		t.Fatalf("LeftPadBytes: got %v", left)
	}
	right := RightPadBytes([]byte{1, 2}, 4)
	if !bytes.Equal(right, []byte{1, 2, 0, 0}) {
		t.Fatalf("RightPadBytes: got %v", right)
	}
}

func TestTrimLeftZeroes(t *testing.T) {
	trimmed := TrimLeftZeroes([]byte{0, 0, 1, 2})
	if !bytes.Equal(trimmed, []byte{1, 2}) {
		t.Fatalf("TrimLeftZeroes: got %v", trimmed)
	}
}

func TestCopyBytesIsIndependent(t *testing.T) {
	orig := []byte{1, 2, 3}
	cp := CopyBytes(orig)
	cp[0] = 9
	if orig[0] == 9 {
		t.Fatal("CopyBytes must return an independent copy")
	}
}

func TestFromHexTolerates0xPrefixAndOddLength(t *testing.T) {
	got := FromHex("0xabc")
	want := []byte{0x0a, 0xbc}
	if !bytes.Equal(got, want) {
		t.Fatalf("FromHex(0xabc): got %x want %x", got, want)
	}
}

func TestToHexRoundTrip(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	if got := FromHex(ToHex(b)); !bytes.Equal(got, b) {
		t.Fatalf("ToHex/FromHex round trip: got %x want %x", got, b)
	}
}
