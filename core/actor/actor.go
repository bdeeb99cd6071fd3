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

// Package actor provides the collaborator-concurrency layer described in
// spec.md §5: each actor owns a mailbox and runs its handler sequentially
// on its own goroutine, isolated from every other actor's state. The VM
// itself stays single-threaded and cooperative (core/vm); actors are how
// a driver gets OS-thread-level parallelism for things a VM cell spawns
// via the Spawn opcode (core/vm.PendingSpawn) or for host-side services
// that need to run independently of any one VM.
package actor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lumen-run/lumen/log"
)

// ProcessID uniquely identifies a spawned actor, for the lifetime of the
// process. IDs are assigned from a single global counter so they remain
// comparable across independently-constructed Systems.
type ProcessID uint64

var nextProcessID uint64

// NextProcessID returns a fresh, never-repeating ProcessID.
func NextProcessID() ProcessID {
	return ProcessID(atomic.AddUint64(&nextProcessID, 1))
}

func (id ProcessID) String() string { return fmt.Sprintf("actor-%d", uint64(id)) }

// ResultKind classifies the outcome of handling one message.
type ResultKind uint8

const (
	// Continue keeps the actor running with the returned state.
	Continue ResultKind = iota
	// Stop ends the actor gracefully; OnStop is still called.
	Stop
	// StopWithError ends the actor and reports Err through the actor's
	// done channel and the owning System's Shutdown result.
	StopWithError
)

// Result is what Handle returns after processing one message.
type Result struct {
	Kind  ResultKind
	State interface{}
	Err   string
}

// ContinueWith keeps the actor alive, carrying state into the next message.
func ContinueWith(state interface{}) Result { return Result{Kind: Continue, State: state} }

// StopWith ends the actor cleanly with a final state.
func StopWith(state interface{}) Result { return Result{Kind: Stop, State: state} }

// StopWithErr ends the actor, reporting msg as its failure reason.
func StopWithErr(state interface{}, msg string) Result {
	return Result{Kind: StopWithError, State: state, Err: msg}
}

// Actor is implemented by anything that wants a mailbox and a dedicated
// goroutine. State is threaded explicitly through Init/Handle/OnStop
// rather than held as actor fields, so a single Actor value can be spawned
// more than once without the instances sharing mutable state.
type Actor interface {
	// Init produces the actor's starting state, once, before the first
	// message is handled.
	Init() interface{}
	// Handle processes one message against the current state.
	Handle(msg interface{}, state interface{}) Result
	// OnStop runs exactly once, right before the actor's goroutine exits,
	// regardless of which path (Stop message, Stop result, ref closed,
	// or panic) triggered the exit.
	OnStop(state interface{})
}

// BaseActor gives embedders a no-op OnStop so they only need to implement
// Init and Handle for actors with no cleanup logic.
type BaseActor struct{}

// OnStop is a no-op; embed BaseActor and override when cleanup is needed.
func (BaseActor) OnStop(interface{}) {}

// Error is the error type surfaced by a Ref or a System. Kind lets callers
// branch without string matching, mirroring the taxonomy spec.md §7
// assigns to actors (ActorError flows into ActorSystem.shutdown()).
type Error struct {
	Kind ErrorKind
	Msg  string
}

// ErrorKind distinguishes why an actor is no longer reachable.
type ErrorKind uint8

const (
	// ErrStopped means the actor has already stopped; sends are rejected.
	ErrStopped ErrorKind = iota
	// ErrActorFailed means Handle returned StopWithError.
	ErrActorFailed
	// ErrPanicked means the actor's goroutine panicked while handling a
	// message; the recovered value is captured in Msg.
	ErrPanicked
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrStopped:
		return "actor has stopped"
	case ErrActorFailed:
		return "actor failed: " + e.Msg
	case ErrPanicked:
		return "actor panicked: " + e.Msg
	default:
		return "actor error"
	}
}

// envelope wraps a user message or the internal stop signal. Messages sent
// on the same Ref (or its clones) are delivered in send order, matching
// the per-sender FIFO ordering spec.md §5 requires; Go's channels already
// give us that for free.
type envelope struct {
	msg  interface{}
	stop bool
}

// DefaultMailboxCapacity bounds a Ref's buffered channel. The original
// actor.rs mailbox is an unbounded crossbeam channel; Go has no unbounded
// channel in the standard library, so Lumen uses a large buffered channel
// and documents the resulting backpressure as a deliberate, bounded
// approximation (see DESIGN.md) rather than trying to hand-roll an
// unbounded queue.
const DefaultMailboxCapacity = 256

// Ref is a cheaply-clonable handle to a running actor's mailbox.
//
// Rust's ActorRef relies on Arc<Sender> drop semantics: the mailbox
// disconnects once every clone is dropped. Go has no destructors, so Ref
// tracks its clone count explicitly and an explicit Close replaces the
// implicit drop — the last Close sends the same internal stop signal an
// explicit Stop call would, rather than physically closing the channel
// (avoiding send-after-close races across clones).
type Ref struct {
	ch        chan envelope
	id        ProcessID
	stopped   *int32
	refs      *int64
	closeOnce *sync.Once
}

// Send delivers msg to the actor's mailbox. It blocks if the mailbox is
// full and returns ErrStopped if the actor has already stopped.
func (r *Ref) Send(msg interface{}) error {
	if atomic.LoadInt32(r.stopped) != 0 {
		return &Error{Kind: ErrStopped}
	}
	r.ch <- envelope{msg: msg}
	return nil
}

// Stop asks the actor to finish its current message, run OnStop, and
// exit. Returns ErrStopped if the actor has already stopped.
func (r *Ref) Stop() error {
	if atomic.LoadInt32(r.stopped) != 0 {
		return &Error{Kind: ErrStopped}
	}
	r.ch <- envelope{stop: true}
	return nil
}

// ID returns the actor's ProcessID.
func (r *Ref) ID() ProcessID { return r.id }

// IsStopped reports whether the actor has stopped.
func (r *Ref) IsStopped() bool { return atomic.LoadInt32(r.stopped) != 0 }

// Clone returns a new handle to the same mailbox, incrementing the shared
// reference count. Each clone must eventually be balanced by a Close.
func (r *Ref) Clone() *Ref {
	atomic.AddInt64(r.refs, 1)
	return &Ref{ch: r.ch, id: r.id, stopped: r.stopped, refs: r.refs, closeOnce: r.closeOnce}
}

// Close releases this handle. When the last outstanding clone is closed,
// the actor receives the internal stop signal — the Go analogue of every
// ActorRef being dropped in the original design.
func (r *Ref) Close() {
	if atomic.AddInt64(r.refs, -1) == 0 {
		if atomic.LoadInt32(r.stopped) == 0 {
			r.ch <- envelope{stop: true}
		}
	}
}

// Spawn starts actor on its own goroutine with a fresh mailbox and
// returns a Ref to it plus a done channel that receives exactly one
// value (nil on a clean stop, an *Error otherwise) once the actor exits.
func Spawn(a Actor, mailboxCapacity int) (*Ref, <-chan error) {
	if mailboxCapacity <= 0 {
		mailboxCapacity = DefaultMailboxCapacity
	}
	ch := make(chan envelope, mailboxCapacity)
	stopped := new(int32)
	refs := new(int64)
	*refs = 1
	ref := &Ref{ch: ch, id: NextProcessID(), stopped: stopped, refs: refs, closeOnce: new(sync.Once)}
	done := make(chan error, 1)

	go runActor(a, ref, ch, stopped, done)

	return ref, done
}

func runActor(a Actor, ref *Ref, ch chan envelope, stopped *int32, done chan<- error) {
	l := log.New("actor", "id", ref.id)
	var state interface{}
	finish := func(err error) {
		atomic.StoreInt32(stopped, 1)
		a.OnStop(state)
		done <- err
	}

	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("%v", rec)
			l.Error("actor panicked", "recover", msg)
			finish(&Error{Kind: ErrPanicked, Msg: msg})
		}
	}()

	state = a.Init()
	for env := range ch {
		if env.stop {
			finish(nil)
			return
		}
		res := a.Handle(env.msg, state)
		switch res.Kind {
		case Continue:
			state = res.State
		case Stop:
			state = res.State
			finish(nil)
			return
		case StopWithError:
			state = res.State
			l.Warn("actor stopping with error", "err", res.Err)
			finish(&Error{Kind: ErrActorFailed, Msg: res.Err})
			return
		}
	}
	// ch is never closed (stop always travels as an envelope); reached
	// only if that invariant is broken. Finish anyway so done is never
	// left unsent and a Join doesn't hang forever.
	finish(nil)
}

// handle is the type-erased view of a spawned actor that System tracks,
// mirroring the ActorHandle trait object in the original design.
type handle struct {
	ref  *Ref
	done <-chan error
}

func (h *handle) join() error {
	h.ref.Close()
	return <-h.done
}

// System manages a collection of actors spawned together and provides
// bulk lifecycle operations over them.
type System struct {
	mu     sync.Mutex
	actors []*handle
}

// NewSystem creates an empty System.
func NewSystem() *System {
	return &System{}
}

// Spawn starts actor within this System and returns its Ref. The System
// keeps its own clone of the Ref so the actor stays alive until Shutdown
// (or an explicit Stop) regardless of what the caller does with the
// returned Ref.
func (s *System) Spawn(a Actor, mailboxCapacity int) *Ref {
	ref, done := Spawn(a, mailboxCapacity)
	s.mu.Lock()
	s.actors = append(s.actors, &handle{ref: ref.Clone(), done: done})
	s.mu.Unlock()
	return ref
}

// ActorCount returns the number of actors ever spawned into this System.
func (s *System) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// RunningCount returns the number of actors that have not yet stopped.
func (s *System) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.actors {
		if !h.ref.IsStopped() {
			n++
		}
	}
	return n
}

// StopAll requests every actor to stop gracefully without waiting for
// them to finish. Actors that have already stopped are silently skipped.
func (s *System) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.actors {
		_ = h.ref.Stop()
	}
}

// Shutdown requests every actor to stop and waits for all of them to
// exit, joining concurrently via errgroup so one slow actor doesn't
// serialize behind the others. It returns every non-nil error collected,
// in no particular order; an empty slice means every actor stopped
// cleanly.
func (s *System) Shutdown() []*Error {
	s.mu.Lock()
	actors := make([]*handle, len(s.actors))
	copy(actors, s.actors)
	s.mu.Unlock()

	var mu sync.Mutex
	var errs []*Error
	var g errgroup.Group
	for _, h := range actors {
		h := h
		g.Go(func() error {
			_ = h.ref.Stop()
			if err := h.join(); err != nil {
				if ae, ok := err.(*Error); ok {
					mu.Lock()
					errs = append(errs, ae)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// IsRunning reports whether the actor with the given ProcessID is still
// running. The second return value is false if no such actor was ever
// spawned into this System.
func (s *System) IsRunning(id ProcessID) (running bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.actors {
		if h.ref.ID() == id {
			return !h.ref.IsStopped(), true
		}
	}
	return false, false
}
