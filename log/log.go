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

// Package log provides the structured logger used across every Lumen
// component: the VM executor, the analyzer passes, and the durability
// layer all log through here instead of fmt/stdlib log.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Lvl is a log severity level.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

var lvlColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgWhite),
}

// Record is a single log event with its context.
type Record struct {
	Time  time.Time
	Lvl   Lvl
	Msg   string
	Ctx   []interface{}
	Call  stack.Call
	Comp  string // component tag: "vm", "resolve", "durability", ...
}

// Handler writes a Record somewhere.
type Handler interface {
	Log(r *Record) error
}

// Logger is the interface every Lumen component is handed at construction.
type Logger interface {
	New(ctx ...interface{}) Logger
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
	SetHandler(h Handler)
}

type logger struct {
	comp    string
	ctx     []interface{}
	handler *swapHandler
}

// swapHandler lets SetHandler replace the handler of a live Logger
// concurrently with in-flight writes (mirrors the teacher's own log
// package convention of mutex-guarded handler swap).
type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Log(r)
}

func (s *swapHandler) set(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h = h
}

// New creates a root Logger for the named component (e.g. "vm", "resolve").
func New(comp string, ctx ...interface{}) Logger {
	l := &logger{comp: comp, ctx: ctx, handler: new(swapHandler)}
	l.handler.set(StreamHandler(os.Stderr, TerminalFormat(isatty.IsTerminal(os.Stderr.Fd()))))
	return l
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{comp: l.comp, ctx: append(append([]interface{}{}, l.ctx...), ctx...), handler: l.handler}
	return child
}

func (l *logger) SetHandler(h Handler) { l.handler.set(h) }

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  append(append([]interface{}{}, l.ctx...), ctx...),
		Comp: l.comp,
	}
	if lvl == LvlCrit || lvl == LvlError {
		r.Call = stack.Caller(2)
	}
	_ = l.handler.Log(r)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(LvlCrit, msg, ctx)
	os.Exit(1)
}

// StreamHandler writes formatted records to w.
func StreamHandler(w io.Writer, fmtr func(*Record) []byte) Handler {
	return &streamHandler{w: w, fmtr: fmtr}
}

type streamHandler struct {
	mu   sync.Mutex
	w    io.Writer
	fmtr func(*Record) []byte
}

func (h *streamHandler) Log(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(h.fmtr(r))
	return err
}

// TerminalFormat renders a Record for a terminal, colorizing the level
// when useColor is set (the caller decides based on isatty, matching
// the teacher's term-detection convention).
func TerminalFormat(useColor bool) func(*Record) []byte {
	return func(r *Record) []byte {
		ts := r.Time.Format("01-02|15:04:05.000")
		lvl := r.Lvl.String()
		if useColor {
			if c, ok := lvlColor[r.Lvl]; ok {
				lvl = c.Sprint(lvl)
			}
		}
		out := fmt.Sprintf("%s [%s] %-5s %s", ts, r.Comp, lvl, r.Msg)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			out += fmt.Sprintf(" %v=%v", r.Ctx[i], r.Ctx[i+1])
		}
		if r.Call.Frame().Function != "" && (r.Lvl == LvlCrit || r.Lvl == LvlError) {
			out += fmt.Sprintf(" (%v)", r.Call)
		}
		out += "\n"
		return []byte(out)
	}
}

// DiscardHandler drops every record; used by tests that don't want log noise.
func DiscardHandler() Handler { return discardHandler{} }

type discardHandler struct{}

func (discardHandler) Log(*Record) error { return nil }

// Colorable returns a writer that strips ANSI sequences on platforms
// without a real terminal (adapted from the teacher's mattn/go-colorable use).
func Colorable(f *os.File) io.Writer { return colorable.NewColorable(f) }
