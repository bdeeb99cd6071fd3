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

import "context"

// Request is what the VM's ToolCall/Perform suspension hands to the
// dispatcher once a host driver decides to service it out of band.
type Request struct {
	ToolID  string
	Version string
	Args    interface{}
	Policy  interface{}
}

// Response is the dispatcher's answer, eventually delivered back into
// the VM via Executor.ResumeWithValue.
type Response struct {
	Outputs   interface{}
	LatencyMs int64
}

// Dispatcher is the low-level interface the VM's host driver calls
// against; a Registry is the only implementation in this
// package, but a host is free to wrap retries, caching, or tracing
// around it by implementing Dispatcher itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) (*Response, error)
}

// Provider is a pluggable tool implementation: one provider instance
// serves exactly one tool (the registry is what gives it a name).
// Concrete providers (HTTP, script, mock) live in this package or are
// supplied by an embedder; spec.md §1 explicitly scopes "concrete
// HTTP/MCP clients" out of the VM itself, but this trait is the seam
// they plug into.
type Provider interface {
	Name() string
	Version() string
	Schema() *Schema
	Call(ctx context.Context, input interface{}) (interface{}, error)
	Capabilities() []Capability
}

// NullProvider always fails with NotRegisteredError; it is a sentinel
// for callers that want a non-nil Provider to introspect (e.g. to
// render "unknown tool" in a UI). Registry.Get does not return it: for
// an unknown name Get returns nil.
type NullProvider struct {
	toolID string
	schema Schema
}

// NewNullProvider builds a sentinel Provider for toolID.
func NewNullProvider(toolID string) *NullProvider {
	return &NullProvider{
		toolID: toolID,
		schema: Schema{
			Name:        toolID,
			Description: "unregistered tool: " + toolID,
		},
	}
}

func (p *NullProvider) Name() string    { return p.toolID }
func (p *NullProvider) Version() string { return "0.0.0" }
func (p *NullProvider) Schema() *Schema { return &p.schema }
func (p *NullProvider) Capabilities() []Capability { return nil }

func (p *NullProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	return nil, &NotRegisteredError{ToolID: p.toolID}
}
