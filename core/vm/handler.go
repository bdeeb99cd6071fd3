// Copyright 2015 The go-core Authors
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

package vm

import "github.com/lumen-run/lumen/core/value"

// HandlerFrame is one entry on the handler stack, installed by
// HandlePush (spec.md §4.2 "Effect handler protocol").
type HandlerFrame struct {
	HandledEffects []string
	BodyStart      int // Ax: instruction offset of the handler body within the current cell
	CapturedState  int // frame-stack depth at install time
}

func (h *HandlerFrame) handles(effect string) bool {
	for _, e := range h.HandledEffects {
		if e == effect {
			return true
		}
	}
	return false
}

// ResumptionToken is the one-shot continuation captured by Perform
// (spec.md §4.2): the remaining instructions and frames up to the
// handler's install point. A token may be resumed at most once.
type ResumptionToken struct {
	frames       []Frame
	registers    []*Registers
	handlerDepth int
	destReg      int // the Perform's destination register, where Resume's value lands
	consumed     bool
}

// HandlerStack is the handler frames installed by HandlePush, parallel
// to the call stack, walked top-down by Perform.
type HandlerStack struct {
	frames []HandlerFrame
}

func (s *HandlerStack) Push(h HandlerFrame) { s.frames = append(s.frames, h) }

func (s *HandlerStack) Pop() (HandlerFrame, bool) {
	if len(s.frames) == 0 {
		return HandlerFrame{}, false
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, true
}

func (s *HandlerStack) Depth() int { return len(s.frames) }

// FindHandler walks top-down for the first handler declaring effect,
// returning its stack index (spec.md: "the first handler declaring
// op-id becomes the handler-in-use").
func (s *HandlerStack) FindHandler(effect string) (int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].handles(effect) {
			return i, true
		}
	}
	return -1, false
}

func (s *HandlerStack) Truncate(depth int) {
	if depth < len(s.frames) {
		s.frames = s.frames[:depth]
	}
}

// SuspendReason classifies why Running -> Suspended per spec.md §4.2
// "State machine (executor loop)".
type SuspendReason uint8

const (
	SuspendNone SuspendReason = iota
	SuspendFuelOut
	SuspendHandlerEnter
	SuspendToolPending
	SuspendAwait
	SuspendSpawn
)

// ExecState is the executor's coarse state machine.
type ExecState uint8

const (
	StateIdle ExecState = iota
	StateRunning
	StateSuspended
	StateTerminated
)

// PendingPerform captures what a Suspended(HandlerEnter) needs to hand
// back to the driver: the effect name and value. Token is left nil: a
// Perform with no local handler captures no ResumptionToken, and the
// driver delivers its result through Executor.ResumeWithValue, which
// writes it to the frame's PendingDest.
type PendingPerform struct {
	Effect string
	Value  value.Value
	Token  *ResumptionToken
}

// PendingToolCall captures a Suspended(ToolPending) request.
type PendingToolCall struct {
	ToolID string
	Args   value.Value
	Dest   int
}

// PendingSpawn captures a Suspended(Spawn) request: the cell to run
// concurrently and the arguments it was spawned with. The VM itself has
// no scheduler (spec.md §5 leaves the actor layer to the host); the
// driver is expected to launch the call and eventually settle the
// Future already stored in the destination register.
type PendingSpawn struct {
	CellIdx int
	Args    []value.Value
	Dest    int
}
