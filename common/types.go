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

// Package common holds the small shared types every other package
// reaches for: a fixed-size content-hash type and a few byte-slice
// helpers (SPEC_FULL.md §10 "shared small types: hashing, byte utils,
// hexutil-style helpers"). Lumen has no account/address concept (that
// was the teacher's chain-specific use of this package), so this is
// scoped down to what durability's content-addressing and the
// analyzer's diagnostics actually need.
package common

import (
	"encoding/hex"
	"fmt"
)

// HashLength is the width of a structural digest (core/value.ContentHash
// and core/durability snapshot digests both produce blake2b-256 sums).
const HashLength = 32

// Hash is a fixed-size content digest.
type Hash [HashLength]byte

// BytesToHash right-aligns b into a Hash, truncating on the left if b
// is longer than HashLength (mirrors the teacher's BytesToHash).
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns a copy of h's contents.
func (h Hash) Bytes() []byte { return append([]byte{}, h[:]...) }

// Hex renders h as a "0x"-prefixed hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// CopyBytes returns an independent copy of b (nil in, nil out).
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// LeftPadBytes zero-pads b on the left until it is size bytes long,
// or returns it unchanged if it is already at least that long.
func LeftPadBytes(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// RightPadBytes zero-pads b on the right until it is size bytes long.
func RightPadBytes(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// TrimLeftZeroes returns the suffix of b following its leading zero
// bytes (an empty, non-nil slice if b is all zeroes).
func TrimLeftZeroes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

// ToHex renders b as a "0x"-prefixed hex string, matching the
// teacher's hexutil-style helpers.
func ToHex(b []byte) string { return fmt.Sprintf("0x%x", b) }

// FromHex decodes a hex string, tolerating an optional "0x"/"0X"
// prefix and an odd-length input (left-padded with a zero nibble),
// mirroring the teacher's hexutil.FromHex leniency.
func FromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
