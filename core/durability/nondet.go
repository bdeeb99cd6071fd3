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
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/pborman/uuid"
)

// LiveSource supplies real wall-clock, monotonic-clock, RNG and UUID
// values — the vm.NondeterminismSource an Executor falls back to when
// no recorder or player is configured (spec.md §4.4 names timestamp,
// monotonic, random_bytes and uuid as the VM's nondeterministic
// primitives; LiveSource is the unrecorded, non-replayable source of
// them).
type LiveSource struct {
	start time.Time
}

// NewLiveSource builds a LiveSource whose MonotonicNanos is relative
// to the moment it was constructed.
func NewLiveSource() *LiveSource {
	return &LiveSource{start: time.Now()}
}

func (s *LiveSource) TimestampMillis() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }
func (s *LiveSource) MonotonicNanos() int64  { return time.Since(s.start).Nanoseconds() }

func (s *LiveSource) RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("durability: crypto/rand failed: " + err.Error())
	}
	return b
}

func (s *LiveSource) UUID() string { return uuid.NewRandom().String() }

// nondetPayload is the JSON shape every recorded nondeterminism event
// uses, regardless of kind — a single named field keeps the log
// readable without a per-kind struct zoo.
type nondetPayload struct {
	Value int64  `json:"value,omitempty"`
	Bytes []byte `json:"bytes,omitempty"`
	UUID  string `json:"uuid,omitempty"`
}

// RecordingSource wraps a LiveSource and appends every value it hands out to a
// ReplayRecorder, so the session can later be replayed bit-for-bit by
// a PlaybackSource over the resulting log (spec.md §4.4).
type RecordingSource struct {
	delegate *LiveSource
	rec      *ReplayRecorder
}

// NewRecordingSource builds a RecordingSource over a fresh LiveSource,
// logging every primitive it serves to rec.
func NewRecordingSource(rec *ReplayRecorder) *RecordingSource {
	return &RecordingSource{delegate: NewLiveSource(), rec: rec}
}

func (s *RecordingSource) TimestampMillis() int64 {
	v := s.delegate.TimestampMillis()
	s.rec.Record(EventTimestamp, nondetPayload{Value: v})
	return v
}

func (s *RecordingSource) MonotonicNanos() int64 {
	v := s.delegate.MonotonicNanos()
	s.rec.Record(EventMonotonic, nondetPayload{Value: v})
	return v
}

func (s *RecordingSource) RandomBytes(n int) []byte {
	b := s.delegate.RandomBytes(n)
	s.rec.Record(EventRandomBytes, nondetPayload{Bytes: b})
	return b
}

func (s *RecordingSource) UUID() string {
	v := s.delegate.UUID()
	s.rec.Record(EventUUID, nondetPayload{UUID: v})
	return v
}

// PlaybackSource is the vm.NondeterminismSource counterpart to
// RecordingSource: it supplies exactly the values a prior
// RecordingSource logged, in the same order, asserting the requesting
// op matches the recorded kind at every step (a ReplayPlayer
// responsibility; a kind mismatch or exhausted log panics, since the
// NondeterminismSource interface methods have no error return — the
// caller is expected to have validated the log against the module
// before resuming from it).
type PlaybackSource struct {
	player *ReplayPlayer
}

// NewPlaybackSource builds a PlaybackSource over a previously recorded
// log.
func NewPlaybackSource(player *ReplayPlayer) *PlaybackSource {
	return &PlaybackSource{player: player}
}

func (s *PlaybackSource) next(kind ReplayEventKind) nondetPayload {
	raw, err := s.player.Next(kind)
	if err != nil {
		panic(err)
	}
	var p nondetPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		panic(err)
	}
	return p
}

func (s *PlaybackSource) TimestampMillis() int64 { return s.next(EventTimestamp).Value }
func (s *PlaybackSource) MonotonicNanos() int64  { return s.next(EventMonotonic).Value }
func (s *PlaybackSource) RandomBytes(n int) []byte { return s.next(EventRandomBytes).Bytes }
func (s *PlaybackSource) UUID() string             { return s.next(EventUUID).UUID }
