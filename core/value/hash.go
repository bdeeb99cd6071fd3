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

import "golang.org/x/crypto/blake2b"

// structuralDigest hashes v's canonical string form with blake2b-256
// rather than using that string directly as a Map/Set index key: two
// structurally equal Records built field-by-field in different orders
// (same RecordOrder either way, per NewRecord's contract) still print
// identically, but a 32-byte digest bounds every key's memory cost
// regardless of how large the underlying container is, which matters
// once a Map is keyed by other Maps/Records rather than scalars.
func structuralDigest(v Value) [32]byte {
	return blake2b.Sum256([]byte(v.String() + "\x00" + v.kind.String()))
}

// ContentHash returns v's structural digest as a common.Hash-shaped
// array. Nothing in core/durability calls it.
func ContentHash(v Value) [32]byte {
	return structuralDigest(v)
}
