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
	"bytes"
	"encoding/gob"
	"sync"
)

// idempotencyRecord is the gob-encoded payload an IdempotencyStore
// hands to its CheckpointStore: a cached result keyed by an opaque
// string, reusing SnapshotId as a per-key monotonic version so the
// same backend that durably persists VM snapshots also persists
// idempotency records across restarts (SPEC_FULL.md §13's restart-
// persistence supplement — the original runtime's IdempotencyStore was
// in-memory only).
type idempotencyRecord struct {
	Result interface{}
}

// IdempotencyStore maps an opaque key to a cached serialized result,
// backed by a CheckpointStore so entries survive a process restart
// (spec.md §4.4 "Idempotency store... Used to make side effects
// exactly-once across replays").
type IdempotencyStore struct {
	mu     sync.Mutex
	name   string
	store  CheckpointStore
	ids    map[string]SnapshotId
	memory map[string]interface{}
}

// NewIdempotencyStore builds a store that persists under name in
// store.
func NewIdempotencyStore(name string, store CheckpointStore) *IdempotencyStore {
	return &IdempotencyStore{
		name:   name,
		store:  store,
		ids:    make(map[string]SnapshotId),
		memory: make(map[string]interface{}),
	}
}

// CheckOrExecute returns the cached result for key if present;
// otherwise it runs f, persists the result, and returns it. f runs
// without the store's lock held, so concurrent first calls for the same
// key may each run f; the first result stored is the one every one of
// them returns.
func (s *IdempotencyStore) CheckOrExecute(key string, f func() (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	if v, ok := s.memory[key]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	result, err := f()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.memory[key]; ok {
		// Another caller raced us and won; keep their result.
		return v, nil
	}
	id := NextSnapshotId()
	data, encErr := encodeIdempotencyRecord(idempotencyRecord{Result: result})
	if encErr == nil {
		_ = s.store.Save(s.name+":"+key, id, data)
		s.ids[key] = id
	}
	s.memory[key] = result
	return result, nil
}

// Invalidate removes a cached entry so the next CheckOrExecute call
// for key re-runs f.
func (s *IdempotencyStore) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, key)
	delete(s.ids, key)
}

// Clear removes every cached entry.
func (s *IdempotencyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = make(map[string]interface{})
	s.ids = make(map[string]SnapshotId)
}

// Restore reloads previously persisted entries for keys from the
// backing CheckpointStore, repopulating the in-memory cache after a
// restart.
func (s *IdempotencyStore) Restore(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		data, id, err := s.store.LoadLatest(s.name + ":" + key)
		if err != nil {
			continue
		}
		rec, err := decodeIdempotencyRecord(data)
		if err != nil {
			continue
		}
		s.memory[key] = rec.Result
		s.ids[key] = id
	}
	return nil
}

func encodeIdempotencyRecord(r idempotencyRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeIdempotencyRecord(data []byte) (idempotencyRecord, error) {
	var r idempotencyRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return r, err
	}
	return r, nil
}
