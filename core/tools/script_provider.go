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

package tools

import (
	"context"
	"sync"

	"github.com/dop251/goja"
)

// ScriptProvider runs a JS function body as a tool's implementation,
// embedding goja the same way the teacher's own runtime package pairs
// goja with go-duktape for two independent embedded-script surfaces.
// The script is compiled once and invoked with a fresh goja.Runtime per
// call (goja.Runtime is not safe for concurrent use), guarded by a
// mutex so concurrent ToolCalls against the same ScriptProvider don't
// race on the shared compiled program.
type ScriptProvider struct {
	name, version string
	schema        Schema
	program       *goja.Program

	mu sync.Mutex
}

// NewScriptProvider compiles src, which must define a function
// `handle(input)` returning the tool's output.
func NewScriptProvider(name, version, src string, schema Schema) (*ScriptProvider, error) {
	prog, err := goja.Compile(name, "(function(){"+src+"\nreturn handle;})()", true)
	if err != nil {
		return nil, &InvalidArgsError{Reason: "compiling tool script: " + err.Error()}
	}
	return &ScriptProvider{name: name, version: version, schema: schema, program: prog}, nil
}

func (p *ScriptProvider) Name() string               { return p.name }
func (p *ScriptProvider) Version() string            { return p.version }
func (p *ScriptProvider) Schema() *Schema            { return &p.schema }
func (p *ScriptProvider) Capabilities() []Capability { return []Capability{CapToolUse} }

func (p *ScriptProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	vm := goja.New()
	handleFn, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, &ExecutionError{Reason: err.Error()}
	}
	handle, ok := goja.AssertFunction(handleFn)
	if !ok {
		return nil, &ExecutionError{Reason: "script did not define handle(input)"}
	}

	result, err := handle(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return nil, &ExecutionError{Reason: err.Error()}
	}
	return result.Export(), nil
}
