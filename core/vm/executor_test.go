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

package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/core/durability"
	"github.com/lumen-run/lumen/core/value"
	"github.com/lumen-run/lumen/internal/metrics"
)

func addModule() *Module {
	return &Module{
		Constants: []value.Value{value.Int(5), value.Int(3)},
		Cells: []*Cell{{
			Name:      "add",
			Registers: 2,
			Code: []Instruction{
				EncodeABx(LoadK, 0, 0),
				EncodeABx(LoadK, 1, 1),
				EncodeABC(Add, 0, 0, 1),
				EncodeABC(Return, 0, 1, 0),
			},
		}},
	}
}

func TestCallReturnsResult(t *testing.T) {
	ex := NewExecutor(addModule(), Config{})
	res := ex.Call("add", nil, 1000)
	require.NoError(t, res.Err)
	require.Equal(t, StateTerminated, res.State)
	require.Len(t, res.Returned, 1)
	i, ok := res.Returned[0].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(8), i)
}

func TestCallReportsFuelConsumedWhenConfigured(t *testing.T) {
	reg := metrics.NewRegistry()
	ex := NewExecutor(addModule(), Config{Metrics: reg})
	res := ex.Call("add", nil, 1000)
	require.NoError(t, res.Err)
	consumed := reg.GetOrRegisterCounter("vm/fuel_consumed").Count()
	assert.Greater(t, consumed, int64(0))
	assert.LessOrEqual(t, consumed, int64(1000))
}

func uuidModule() *Module {
	return &Module{
		Cells: []*Cell{{
			Name:      "gen",
			Registers: 1,
			Code: []Instruction{
				EncodeABC(Intrinsic, 0, uint8(BuiltinNewUUID), 0),
				EncodeABC(Return, 0, 1, 0),
			},
		}},
	}
}

func TestIntrinsicNewUUIDDefaultsToLiveSource(t *testing.T) {
	ex := NewExecutor(uuidModule(), Config{})
	res := ex.Call("gen", nil, 1000)
	require.NoError(t, res.Err)
	require.Len(t, res.Returned, 1)
	s, _, interned, valid := res.Returned[0].StringRef()
	require.True(t, valid)
	require.False(t, interned)
	assert.NotEmpty(t, s)
}

func TestIntrinsicNondetReplaysFromRecording(t *testing.T) {
	rec := durability.NewReplayRecorder()
	live := NewExecutor(uuidModule(), Config{Nondet: durability.NewRecordingSource(rec)})
	want := live.Call("gen", nil, 1000)
	require.NoError(t, want.Err)

	playback := NewExecutor(uuidModule(), Config{Nondet: durability.NewPlaybackSource(durability.NewReplayPlayer(rec.Log()))})
	got := playback.Call("gen", nil, 1000)
	require.NoError(t, got.Err)

	a, _, _, _ := want.Returned[0].StringRef()
	b, _, _, _ := got.Returned[0].StringRef()
	assert.Equal(t, a, b)
}

func TestRunIsDeterministic(t *testing.T) {
	m := addModule()
	r1 := NewExecutor(m, Config{}).Call("add", nil, 1000)
	r2 := NewExecutor(m, Config{}).Call("add", nil, 1000)
	require.NoError(t, r1.Err)
	require.NoError(t, r2.Err)
	assert.True(t, value.Equal(r1.Returned[0], r2.Returned[0]))
}

func TestFuelExhaustionSuspendsNotErrors(t *testing.T) {
	ex := NewExecutor(addModule(), Config{})
	res := ex.Call("add", nil, 1)
	require.NoError(t, res.Err, "fuel exhaustion must not surface as an error")
	assert.Equal(t, StateSuspended, res.State)
	assert.Equal(t, SuspendFuelOut, res.Reason)

	final := ex.Resume(1000)
	require.NoError(t, final.Err)
	assert.Equal(t, StateTerminated, final.State)
	i, _ := final.Returned[0].AsInt()
	assert.Equal(t, int64(8), i)
}

// effectModule installs a handler for "ask" around a Perform, whose
// handler body resumes with a fixed value; exercises HandlePush, Perform,
// Resume, and HandlePop end to end within one cell.
func effectModule() *Module {
	return &Module{
		Constants: []value.Value{value.Int(7), value.Int(99)},
		Interned:  []string{"ask"},
		Effects:   []EffectSig{{Name: "ask"}},
		Cells: []*Cell{{
			Name:      "eff",
			Registers: 4,
			Code: []Instruction{
				EncodeABx(LoadK, 1, 0),       // 0: R1 = 7 (payload)
				EncodeAsBx(HandlePush, 0, 3), // 1: install handler for Effects[0], body at 1+1+3=5
				EncodeABC(Perform, 3, 0, 1),  // 2: perform "ask", payload R1, dest R3
				EncodeABC(HandlePop, 0, 0, 0),// 3
				EncodeABC(Return, 3, 1, 0),   // 4: return [R3]
				EncodeABx(LoadK, 2, 1),       // 5: handler body: R2 = 99
				EncodeABC(Resume, 2, 0, 0),   // 6: resume with R2
			},
		}},
	}
}

func TestEffectHandlerResumesWithValue(t *testing.T) {
	ex := NewExecutor(effectModule(), Config{})
	res := ex.Call("eff", nil, 1000)
	require.NoError(t, res.Err)
	require.Equal(t, StateTerminated, res.State)
	require.Len(t, res.Returned, 1)
	i, ok := res.Returned[0].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(99), i)
}

func TestResumeTwiceErrors(t *testing.T) {
	ex := NewExecutor(effectModule(), Config{})
	tok := &ResumptionToken{consumed: true}
	ex.pendingToken = tok
	ex.frames = []Frame{{}}
	ex.regs = []*Registers{newRegisters(1)}
	_, err := opResume(new(int), ex, &ex.frames[0], ex.regs[0], EncodeABC(Resume, 0, 0, 0))
	assert.Equal(t, ErrResumeTwice, err)
}

// loopModule calls itself forever; used to prove MaxCallDepth is
// enforced without corrupting executor state (a clean terminating error,
// not a panic or runaway allocation).
func loopModule() *Module {
	m := &Module{Cells: []*Cell{{Name: "loop", Registers: 1}}}
	m.Constants = []value.Value{value.NewClosure(0, nil)}
	m.Cells[0].Code = []Instruction{
		EncodeABx(LoadK, 0, 0),
		EncodeABC(Call, 0, 0, 0),
	}
	return m
}

func TestCallStackOverflowTerminatesCleanly(t *testing.T) {
	ex := NewExecutor(loopModule(), Config{MaxCallDepth: 4})
	res := ex.Call("loop", nil, 100000)
	require.Equal(t, StateTerminated, res.State)
	assert.Equal(t, ErrStackOverflowVM, res.Err)
}

func TestUnhandledPerformSuspendsToHost(t *testing.T) {
	m := &Module{
		Interned: []string{"unhandled"},
		Cells: []*Cell{{
			Name:      "noop",
			Registers: 2,
			Code: []Instruction{
				EncodeABC(Perform, 1, 0, 0),
			},
		}},
	}
	ex := NewExecutor(m, Config{})
	res := ex.Call("noop", nil, 1000)
	require.NoError(t, res.Err)
	assert.Equal(t, StateSuspended, res.State)
	assert.Equal(t, SuspendHandlerEnter, res.Reason)
	require.NotNil(t, res.Perform)
	assert.Equal(t, "unhandled", res.Perform.Effect)
}
