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
	"os"
	"sync"
	"time"
)

// DurableLogEntryKind distinguishes an about-to-call tool intent from
// its eventual result, so a crash between dispatch and settlement is
// distinguishable on replay (SPEC_FULL.md §13, spec.md §4.4 "Tool
// intents... and results are appended to a line-oriented JSON log").
type DurableLogEntryKind string

const (
	EntryIntent DurableLogEntryKind = "intent"
	EntryResult DurableLogEntryKind = "result"
)

// DurableLogEntry is one line of the write-ahead log.
type DurableLogEntry struct {
	Kind      DurableLogEntryKind `json:"kind"`
	IntentID  string              `json:"intent_id"`
	ToolID    string              `json:"tool_id,omitempty"`
	Args      interface{}         `json:"args,omitempty"`
	Result    interface{}         `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	TimestampMs int64             `json:"timestamp_ms"`
}

// DurableLog is an append-only, line-oriented JSON write-ahead log of
// tool intents and results. Flush-on-append keeps durability tight;
// full fsync is a tunable (spec.md §4.4).
type DurableLog struct {
	mu    sync.Mutex
	w     io.Writer
	f     *os.File
	fsync bool
	now   func() int64
}

// DurableLogConfig controls fsync behavior.
type DurableLogConfig struct {
	// Fsync forces an fsync after every append. When false, entries are
	// flushed to the OS buffer but not necessarily to disk.
	Fsync bool
}

// OpenDurableLog opens (creating if necessary) a durable log file at
// path in append mode.
func OpenDurableLog(path string, cfg DurableLogConfig) (*DurableLog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &DurableLog{w: f, f: f, fsync: cfg.Fsync, now: defaultNowMs}, nil
}

// NewDurableLogWriter wraps an arbitrary io.Writer (e.g. an
// in-memory buffer in tests) as a durable log with no fsync support.
func NewDurableLogWriter(w io.Writer) *DurableLog {
	return &DurableLog{w: w, now: defaultNowMs}
}

func defaultNowMs() int64 { return time.Now().UnixMilli() }

func (l *DurableLog) append(e DurableLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.TimestampMs = l.now()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := l.w.Write(data); err != nil {
		return err
	}
	if l.fsync && l.f != nil {
		return l.f.Sync()
	}
	return nil
}

// AppendIntent records that intentID (a tool call to toolID with args)
// is about to be dispatched.
func (l *DurableLog) AppendIntent(intentID, toolID string, args interface{}) error {
	return l.append(DurableLogEntry{Kind: EntryIntent, IntentID: intentID, ToolID: toolID, Args: args})
}

// AppendResult records that intentID completed successfully with
// result.
func (l *DurableLog) AppendResult(intentID string, result interface{}) error {
	return l.append(DurableLogEntry{Kind: EntryResult, IntentID: intentID, Result: result})
}

// AppendError records that intentID failed with err.
func (l *DurableLog) AppendError(intentID string, err error) error {
	return l.append(DurableLogEntry{Kind: EntryResult, IntentID: intentID, Error: err.Error()})
}

// Close closes the underlying file, if any.
func (l *DurableLog) Close() error {
	if l.f != nil {
		return l.f.Close()
	}
	return nil
}

// IntentState is the reconstructed fate of one logged intent after
// replaying a DurableLog.
type IntentState struct {
	IntentID string
	ToolID   string
	Args     interface{}
	Settled  bool
	Result   interface{}
	Error    string
}

// ReplayDurableLog reads every entry from r and reconstructs, per
// intent, whether it completed (and with what result/error) or is
// still pending — the latter signaling a crash between dispatch and
// settlement.
func ReplayDurableLog(r io.Reader) (map[string]*IntentState, error) {
	states := make(map[string]*IntentState)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e DurableLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("durability: malformed durable log line: %w", err)
		}
		switch e.Kind {
		case EntryIntent:
			states[e.IntentID] = &IntentState{IntentID: e.IntentID, ToolID: e.ToolID, Args: e.Args}
		case EntryResult:
			st, ok := states[e.IntentID]
			if !ok {
				st = &IntentState{IntentID: e.IntentID}
				states[e.IntentID] = st
			}
			st.Settled = true
			st.Result = e.Result
			st.Error = e.Error
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

// PendingIntents filters a ReplayDurableLog result down to intents
// that were recorded but never settled.
func PendingIntents(states map[string]*IntentState) []*IntentState {
	var out []*IntentState
	for _, s := range states {
		if !s.Settled {
			out = append(out, s)
		}
	}
	return out
}
