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

import (
	"fmt"

	"github.com/lumen-run/lumen/core/durability"
	"github.com/lumen-run/lumen/core/heap"
	"github.com/lumen-run/lumen/core/value"
	"github.com/lumen-run/lumen/internal/metrics"
	"github.com/lumen-run/lumen/log"
)

// ToolDispatcher is the type of Executor.Tools. The executor itself never
// calls it: a ToolCall instruction always suspends to the host driver.
// core/tools.Registry does not satisfy it as is (its Dispatch takes a
// context and a *tools.Request), and vm does not import tools (kept as a
// narrow local interface so the two packages don't need to know about
// each other's types).
type ToolDispatcher interface {
	Dispatch(toolID string, args value.Value) (value.Value, error)
}

// DebugHook is invoked at instruction granularity (spec.md §4.2).
// "The hook must not mutate VM state through any path other than
// requesting a break" — BreakRequested is polled before every instruction.
type DebugHook interface {
	CallEnter(cellName string)
	CallExit(cellName string)
	Step(ip int)
	BreakRequested() bool
}

type noopHook struct{}

func (noopHook) CallEnter(string)   {}
func (noopHook) CallExit(string)    {}
func (noopHook) Step(int)           {}
func (noopHook) BreakRequested() bool { return false }

// NondeterminismSource supplies replay-recordable primitives (spec.md
// §4.4 "ReplayRecorder interposes on every nondeterministic primitive").
// The zero value (nil) falls back to real wall/monotonic clocks and
// crypto-random bytes; durability.RecordingSource/PlaybackSource implement
// this to record or play back a session.
type NondeterminismSource interface {
	TimestampMillis() int64
	MonotonicNanos() int64
	RandomBytes(n int) []byte
	UUID() string
}

// Config tunes an Executor (mirrors the teacher's vm.Config).
type Config struct {
	JumpTable       JumpTable
	Debug           DebugHook
	MaxCallDepth    int
	EnableCompaction bool
	Logger          log.Logger

	// Metrics, when non-nil, receives this Executor's fuel-consumed
	// counter under "vm/fuel_consumed" and is threaded into the Heap
	// it constructs (SPEC_FULL.md §10 internal/metrics).
	Metrics *metrics.Registry

	// Nondet supplies the Intrinsic opcode's Now/Monotonic/RandomBytes/
	// NewUUID builtins. Left nil, NewExecutor defaults it to a
	// durability.LiveSource (unrecorded real clocks and RNG); pass a
	// durability.RecordingSource or durability.PlaybackSource to record
	// or replay a session (spec.md §4.4).
	Nondet NondeterminismSource
}

// Result is what Run returns: exactly one of the suspend/terminate
// outcomes spec.md §4.2's state machine describes.
type Result struct {
	State     ExecState
	Reason    SuspendReason
	Returned  []value.Value
	Err       error
	Perform   *PendingPerform
	ToolCall  *PendingToolCall
	Spawn     *PendingSpawn
}

// Executor runs a single Module against a register file and heap
// (spec.md §4.2). One Executor is single-threaded cooperative and owns
// its Heap exclusively (spec.md §5).
type Executor struct {
	log   log.Logger
	cfg   Config
	jt    JumpTable

	module   *Module
	Heap     *heap.Heap
	Interner *value.Interner
	Tools    ToolDispatcher
	Nondet   NondeterminismSource

	frames  []Frame
	regs    []*Registers
	handler HandlerStack

	state ExecState

	pendingToken *ResumptionToken // set while a Perform found a local handler, consumed by the Resume opcode
	lastPerform  *PendingPerform
	lastToolCall *PendingToolCall
	lastSpawn    *PendingSpawn
	lastResults  []value.Value

	fuelConsumed *metrics.Counter
}

func NewExecutor(module *Module, cfg Config) *Executor {
	l := cfg.Logger
	if l == nil {
		l = log.New("vm")
	}
	jt := cfg.JumpTable
	if jt == (JumpTable{}) {
		jt = defaultJumpTable
	}
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = MaxCallDepth
	}
	if cfg.Debug == nil {
		cfg.Debug = noopHook{}
	}
	nondet := cfg.Nondet
	if nondet == nil {
		nondet = durability.NewLiveSource()
	}
	ex := &Executor{log: l, cfg: cfg, jt: jt, module: module, Interner: value.NewInterner(0), state: StateIdle, Nondet: nondet}
	if cfg.Metrics != nil {
		ex.fuelConsumed = cfg.Metrics.GetOrRegisterCounter("vm/fuel_consumed")
	}
	ex.Heap = heap.New(ex.collectRoots, heap.Config{EnableCompaction: cfg.EnableCompaction, Logger: l, Metrics: cfg.Metrics})
	return ex
}

func (ex *Executor) collectRoots() []uint32 {
	var roots []uint32
	for _, r := range ex.regs {
		for _, v := range r.slots {
			if hr, ok := v.AsHeapRef(); ok {
				roots = append(roots, hr.Index)
			}
		}
	}
	return roots
}

// Call begins executing cellName with args, running until the first
// suspension or termination within the given fuel budget.
func (ex *Executor) Call(cellName string, args []value.Value, fuel uint64) *Result {
	idx, cell := ex.module.CellByName(cellName)
	if cell == nil {
		return &Result{State: StateTerminated, Err: fmt.Errorf("vm: undefined cell %q", cellName)}
	}
	regs := newRegisters(int(cell.Registers))
	for i, a := range args {
		regs.Set(i, a)
	}
	ex.frames = []Frame{{CellIdx: idx, IP: 0, BaseRegister: 0, ReturnRegister: -1, ExpectedResults: -1}}
	ex.regs = []*Registers{regs}
	ex.state = StateRunning
	ex.cfg.Debug.CallEnter(cell.Name)
	return ex.run(fuel)
}

// Resume continues a Suspended executor with the supplied fuel without
// delivering a value: after Suspended(FuelOut) it continues where
// execution stopped; after a Perform, ToolCall, Await, or Spawn
// suspension it continues at the instruction following the suspending
// one, leaving that instruction's destination register unchanged.
func (ex *Executor) Resume(fuel uint64) *Result {
	if ex.state != StateSuspended {
		return &Result{State: ex.state, Err: fmt.Errorf("vm: Resume called while not Suspended")}
	}
	ex.state = StateRunning
	return ex.run(fuel)
}

// ResumeWithValue implements the `Resume tok value` opcode's driver-side
// counterpart for an externally-delivered result (a tool response or an
// Await'd future), placing value at the captured token's destination
// register before continuing.
func (ex *Executor) ResumeWithValue(v value.Value, fuel uint64) *Result {
	if ex.pendingToken != nil {
		if ex.pendingToken.consumed {
			return &Result{State: StateTerminated, Err: ErrResumeTwice}
		}
		ex.pendingToken.consumed = true
		ex.frames = ex.pendingToken.frames
		ex.regs = ex.pendingToken.registers
		ex.handler.Truncate(ex.pendingToken.handlerDepth)
		if len(ex.regs) > 0 {
			ex.regs[len(ex.regs)-1].Set(ex.pendingToken.destReg, v)
		}
		ex.pendingToken = nil
	} else if len(ex.regs) > 0 {
		fr := &ex.frames[len(ex.frames)-1]
		ex.regs[len(ex.regs)-1].Set(fr.PendingDest, v)
	}
	ex.state = StateRunning
	return ex.run(fuel)
}

func (ex *Executor) run(fuel uint64) *Result {
	for fuel > 0 {
		if ex.cfg.Debug.BreakRequested() {
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendFuelOut}
		}
		if len(ex.frames) == 0 {
			ex.state = StateTerminated
			return &Result{State: StateTerminated}
		}
		fr := &ex.frames[len(ex.frames)-1]
		regs := ex.regs[len(ex.regs)-1]
		cell := ex.module.Cells[fr.CellIdx]

		if fr.IP >= len(cell.Code) {
			ex.state = StateTerminated
			return &Result{State: StateTerminated, Err: fmt.Errorf("vm: ip ran off end of cell %q", cell.Name)}
		}
		ins := cell.Code[fr.IP]
		op := ex.jt[ins.OpCode()]
		if op == nil || !op.valid {
			ex.state = StateTerminated
			return &Result{State: StateTerminated, Err: &ErrInvalidOpCode{opcode: ins.OpCode()}}
		}
		if fuel < op.fuelCost {
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendFuelOut}
		}
		fuel -= op.fuelCost
		if ex.fuelConsumed != nil {
			ex.fuelConsumed.Inc(int64(op.fuelCost))
		}
		ex.cfg.Debug.Step(fr.IP)

		pc := fr.IP
		signal, err := op.execute(&pc, ex, fr, regs, ins)
		if err != nil {
			ex.state = StateTerminated
			return &Result{State: StateTerminated, Err: err}
		}

		switch signal {
		case ctrlNext:
			fr.IP = pc + 1
		case ctrlJumped:
			fr.IP = pc
		case ctrlReturn:
			if res, done := ex.popFrame(); done {
				ex.state = StateTerminated
				return &Result{State: StateTerminated, Returned: res}
			}
		case ctrlTailCall:
			// frame/register stack already replaced in place (opTailCall, opResume)
		case ctrlCall:
			// a new frame/register window was already pushed; the
			// caller's continuation IP was written before the push
		case ctrlHalt:
			ex.state = StateTerminated
			return &Result{State: StateTerminated, Err: fmt.Errorf("vm: halt: %s", regs.Get(int(ins.A())).String())}
		case ctrlPerform:
			fr.IP = pc + 1
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendHandlerEnter, Perform: ex.lastPerform}
		case ctrlToolCall:
			fr.IP = pc + 1
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendToolPending, ToolCall: ex.lastToolCall}
		case ctrlAwait:
			fr.IP = pc + 1
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendAwait}
		case ctrlSpawn:
			fr.IP = pc + 1
			ex.state = StateSuspended
			return &Result{State: StateSuspended, Reason: SuspendSpawn, Spawn: ex.lastSpawn}
		}
	}
	ex.state = StateSuspended
	return &Result{State: StateSuspended, Reason: SuspendFuelOut}
}

// popFrame pops the current frame, placing results into the caller's
// destination registers; returns (results, true) when the top-level
// call itself returns.
func (ex *Executor) popFrame() ([]value.Value, bool) {
	fr := ex.frames[len(ex.frames)-1]
	regs := ex.regs[len(ex.regs)-1]
	results := ex.lastResults

	ex.frames = ex.frames[:len(ex.frames)-1]
	ex.regs = ex.regs[:len(ex.regs)-1]
	ex.cfg.Debug.CallExit(ex.module.Cells[fr.CellIdx].Name)

	if len(ex.frames) == 0 {
		return results, true
	}
	caller := ex.regs[len(ex.regs)-1]
	for i := 0; i < fr.ExpectedResults && i < len(results); i++ {
		caller.Set(fr.ReturnRegister+i, results[i])
	}
	return nil, false
}
