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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct {
	name   string
	schema Schema
	calls  int
}

func newEchoProvider(name string) *echoProvider {
	return &echoProvider{name: name, schema: Schema{
		Name:         name,
		Description:  "echo provider: " + name,
		InputSchema:  map[string]interface{}{"type": "object"},
		OutputSchema: map[string]interface{}{"type": "object"},
		Effects:      []string{"echo"},
	}}
}

func (p *echoProvider) Name() string               { return p.name }
func (p *echoProvider) Version() string            { return "1.0.0" }
func (p *echoProvider) Schema() *Schema             { return &p.schema }
func (p *echoProvider) Capabilities() []Capability  { return nil }
func (p *echoProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	p.calls++
	return map[string]interface{}{"echo": input}, nil
}

type failingProvider struct{ schema Schema }

func (p *failingProvider) Name() string              { return "failing" }
func (p *failingProvider) Version() string           { return "0.1.0" }
func (p *failingProvider) Schema() *Schema           { return &p.schema }
func (p *failingProvider) Capabilities() []Capability { return nil }
func (p *failingProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	return nil, &ExecutionError{Reason: "intentional failure"}
}

func TestRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	r.Register("echo", newEchoProvider("echo"))
	assert.True(t, r.Has("echo"))
	assert.False(t, r.Has("other"))
	require.NotNil(t, r.Get("echo"))
	assert.Equal(t, "echo", r.Get("echo").Name())
}

func TestRegistryListIsSorted(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	r.Register("zebra", newEchoProvider("zebra"))
	r.Register("alpha", newEchoProvider("alpha"))
	r.Register("mid", newEchoProvider("mid"))
	assert.Equal(t, []string{"alpha", "mid", "zebra"}, r.List())
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	r.Register("tool", newEchoProvider("tool"))
	assert.True(t, r.Unregister("tool"))
	assert.False(t, r.Has("tool"))
	assert.False(t, r.Unregister("tool"))
}

func TestDispatchRoutesToRegisteredProvider(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	r.Register("echo", newEchoProvider("echo"))

	resp, err := r.Dispatch(context.Background(), &Request{ToolID: "echo", Args: map[string]interface{}{"hello": "world"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"echo": map[string]interface{}{"hello": "world"}}, resp.Outputs)
}

func TestDispatchMissingToolReturnsNotRegistered(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	_, err := r.Dispatch(context.Background(), &Request{ToolID: "missing"})
	require.Error(t, err)
	var nre *NotRegisteredError
	assert.ErrorAs(t, err, &nre)
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	r := NewRegistry(RegistryConfig{Retry: RetryPolicy{MaxRetries: 2, BaseDelayMs: 1, MaxDelayMs: 1}})
	r.Register("fail", &failingProvider{schema: Schema{Name: "fail"}})
	_, err := r.Dispatch(context.Background(), &Request{ToolID: "fail"})
	require.Error(t, err)
	var ee *ExecutionError
	assert.ErrorAs(t, err, &ee)
}

func TestDispatchRejectsSchemaMismatchOutput(t *testing.T) {
	r := NewRegistry(RegistryConfig{})
	p := newEchoProvider("bad")
	p.schema.OutputSchema = map[string]interface{}{"type": "string"}
	r.Register("bad", p)

	_, err := r.Dispatch(context.Background(), &Request{ToolID: "bad", Args: "x"})
	require.Error(t, err)
	var ove *OutputValidationError
	assert.ErrorAs(t, err, &ove)
}

func TestNullProviderReturnsNotRegistered(t *testing.T) {
	p := NewNullProvider("missing")
	_, err := p.Call(context.Background(), nil)
	var nre *NotRegisteredError
	assert.ErrorAs(t, err, &nre)
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, uint32(3), p.MaxRetries)
	assert.Equal(t, int64(100), p.BaseDelayMs)
	assert.Equal(t, int64(10_000), p.MaxDelayMs)
}

func TestValidateOutputAcceptsUnionType(t *testing.T) {
	schema := map[string]interface{}{"type": []interface{}{"object", "string", "null"}}
	assert.NoError(t, ValidateOutput(schema, "ok"))
}

func TestValidateOutputRejectsMissingRequired(t *testing.T) {
	schema := map[string]interface{}{"type": "object", "required": []interface{}{"ok"}}
	err := ValidateOutput(schema, map[string]interface{}{"other": true})
	require.Error(t, err)
}
