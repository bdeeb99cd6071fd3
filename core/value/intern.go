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
	"sync"

	"github.com/VictoriaMetrics/fastcache"
)

// Interner is the process-wide string-intern table (spec.md §3: "an
// opaque 32-bit id resolved through a process-wide string-intern
// table"). It is read-dominant (§5: "uses a reader-writer lock; readers
// dominate"), so lookups take the read lock and only a miss escalates
// to a write lock.
//
// Small deployments use the plain map; large intern sets (e.g. a long
// tool-use session interning thousands of field/tool names) can also
// mirror the reverse id->string table into fastcache, selected via
// NewInterner(cacheSizeBytes > 0). The idToStr slice is kept either way,
// so enabling the cache does not reduce resident memory.
type Interner struct {
	mu      sync.RWMutex
	strToID map[string]uint32
	idToStr []string
	cache   *fastcache.Cache // optional: mirrors idToStr for large tables
}

// NewInterner creates an Interner. cacheSizeBytes > 0 enables the
// fastcache-backed reverse table; 0 keeps the plain in-memory slice.
func NewInterner(cacheSizeBytes int) *Interner {
	in := &Interner{strToID: map[string]uint32{}}
	if cacheSizeBytes > 0 {
		in.cache = fastcache.New(cacheSizeBytes)
	}
	return in
}

// Intern returns the stable id for s, assigning a new one on first sight.
func (in *Interner) Intern(s string) uint32 {
	in.mu.RLock()
	if id, ok := in.strToID[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.strToID[s]; ok {
		return id
	}
	id := uint32(len(in.idToStr))
	in.strToID[s] = id
	in.idToStr = append(in.idToStr, s)
	if in.cache != nil {
		in.cache.Set(encodeID(id), []byte(s))
	}
	return id
}

// Resolve looks up the text behind an intern id.
func (in *Interner) Resolve(id uint32) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.cache != nil {
		if buf, found := in.cache.HasGet(nil, encodeID(id)); found {
			return string(buf), true
		}
	}
	if int(id) >= len(in.idToStr) {
		return "", false
	}
	return in.idToStr[id], true
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.idToStr)
}

func encodeID(id uint32) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}
