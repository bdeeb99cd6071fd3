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
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// ReplayEventKind names one of the VM's nondeterministic primitives
// (spec.md §6 "Replay log": kind is one of timestamp | monotonic |
// random_bytes | uuid | tool_result | env_read).
type ReplayEventKind string

const (
	EventTimestamp   ReplayEventKind = "timestamp"
	EventMonotonic   ReplayEventKind = "monotonic"
	EventRandomBytes ReplayEventKind = "random_bytes"
	EventUUID        ReplayEventKind = "uuid"
	EventToolResult  ReplayEventKind = "tool_result"
	EventEnvRead     ReplayEventKind = "env_read"
)

// ReplayEvent is one recorded nondeterministic value, ordered by
// Ordinal within its log.
type ReplayEvent struct {
	Ordinal uint64          `json:"ordinal"`
	Kind    ReplayEventKind `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ReplayLog is an ordered, JSON-Lines-serializable sequence of
// ReplayEvents (spec.md §4.4 "Logs are serializable to JSON Lines").
type ReplayLog struct {
	Events []ReplayEvent
}

// Save writes the log as JSON Lines, one event per line.
func (l *ReplayLog) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, e := range l.Events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// LoadReplayLog reads a JSON-Lines replay log.
func LoadReplayLog(r io.Reader) (*ReplayLog, error) {
	log := &ReplayLog{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e ReplayEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("durability: malformed replay log line: %w", err)
		}
		log.Events = append(log.Events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

// ReplayRecorder interposes on every nondeterministic primitive the VM
// invokes, appending each to a ReplayLog with a monotonic ordinal
// (spec.md §4.4 "A ReplayRecorder interposes on every nondeterministic
// primitive").
type ReplayRecorder struct {
	mu      sync.Mutex
	log     ReplayLog
	ordinal uint64
}

// NewReplayRecorder builds an empty recorder.
func NewReplayRecorder() *ReplayRecorder {
	return &ReplayRecorder{}
}

// Record appends a new event of kind with the given JSON-encodable
// payload and returns its ordinal.
func (r *ReplayRecorder) Record(kind ReplayEventKind, payload interface{}) (uint64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ord := r.ordinal
	r.ordinal++
	r.log.Events = append(r.log.Events, ReplayEvent{Ordinal: ord, Kind: kind, Payload: raw})
	return ord, nil
}

// Log returns the recorded events so far. The caller must not mutate
// the returned log while the recorder is still in use.
func (r *ReplayRecorder) Log() *ReplayLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]ReplayEvent, len(r.log.Events))
	copy(cp, r.log.Events)
	return &ReplayLog{Events: cp}
}

// ErrReplayKindMismatch reports that the VM requested a different
// nondeterministic primitive than the one recorded at this position in
// the log.
type ErrReplayKindMismatch struct {
	Ordinal  uint64
	Expected ReplayEventKind
	Got      ReplayEventKind
}

func (e *ErrReplayKindMismatch) Error() string {
	return fmt.Sprintf("durability: replay kind mismatch at ordinal %d: expected %s, got %s", e.Ordinal, e.Expected, e.Got)
}

// ErrReplayExhausted reports that the VM requested a nondeterministic
// value past the end of the recorded log.
type ErrReplayExhausted struct{ Ordinal uint64 }

func (e *ErrReplayExhausted) Error() string {
	return fmt.Sprintf("durability: replay log exhausted at ordinal %d", e.Ordinal)
}

// ReplayPlayer consumes a ReplayLog in order, supplying recorded
// values in place of the VM's real nondeterministic primitives (spec.md
// §4.4 "A ReplayPlayer consumes the log in order").
type ReplayPlayer struct {
	mu     sync.Mutex
	log    *ReplayLog
	cursor int
}

// NewReplayPlayer builds a player over a previously recorded log.
func NewReplayPlayer(log *ReplayLog) *ReplayPlayer {
	return &ReplayPlayer{log: log}
}

// Next returns the next recorded event's payload, asserting that its
// kind matches the one the VM is requesting. A kind mismatch aborts
// replay rather than silently substituting a wrong value.
func (p *ReplayPlayer) Next(kind ReplayEventKind) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor >= len(p.log.Events) {
		return nil, &ErrReplayExhausted{Ordinal: uint64(p.cursor)}
	}
	ev := p.log.Events[p.cursor]
	if ev.Kind != kind {
		return nil, &ErrReplayKindMismatch{Ordinal: ev.Ordinal, Expected: ev.Kind, Got: kind}
	}
	p.cursor++
	return ev.Payload, nil
}

// Remaining reports how many events are left to consume.
func (p *ReplayPlayer) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.log.Events) - p.cursor
}
