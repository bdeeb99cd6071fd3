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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// HTTPProvider is a reference Provider that forwards its call payload
// as a JSON POST body to a fixed upstream URL and decodes the JSON
// response as the tool's output. It stands in for the concrete
// HTTP/MCP clients spec.md §1 places out of scope for the registry's
// contract itself, exercising Dispatch end to end over a real
// transport.
type HTTPProvider struct {
	name, version, url string
	schema             Schema
	client             *http.Client
}

// NewHTTPProvider builds an HTTPProvider posting to url.
func NewHTTPProvider(name, version, url string, schema Schema, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{name: name, version: version, url: url, schema: schema, client: client}
}

func (p *HTTPProvider) Name() string                  { return p.name }
func (p *HTTPProvider) Version() string               { return p.version }
func (p *HTTPProvider) Schema() *Schema               { return &p.schema }
func (p *HTTPProvider) Capabilities() []Capability    { return []Capability{CapToolUse} }

func (p *HTTPProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &InvalidArgsError{Reason: err.Error()}
	}
	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ExecutionError{Reason: err.Error()}
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderUnavailableError{Provider: p.name, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ExecutionError{Reason: fmt.Sprintf("upstream returned status %d", resp.StatusCode)}
	}

	var out interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ExecutionError{Reason: "decoding response: " + err.Error()}
	}
	return out, nil
}

// StreamingHTTPProvider is a reference Provider for tools whose results
// arrive incrementally over a WebSocket rather than a single JSON
// response — a streaming text-generation tool, for instance. Call
// collects every frame and returns them joined as a list, since the
// VM's ToolCall protocol delivers one resumption value, not a stream;
// a host that wants true incremental delivery drives the WebSocket
// itself and resumes the VM once per completed call.
type StreamingHTTPProvider struct {
	name, version, url string
	schema             Schema
	dialer             *websocket.Dialer
}

// NewStreamingHTTPProvider builds a StreamingHTTPProvider dialing url.
func NewStreamingHTTPProvider(name, version, url string, schema Schema) *StreamingHTTPProvider {
	return &StreamingHTTPProvider{name: name, version: version, url: url, schema: schema, dialer: websocket.DefaultDialer}
}

func (p *StreamingHTTPProvider) Name() string               { return p.name }
func (p *StreamingHTTPProvider) Version() string            { return p.version }
func (p *StreamingHTTPProvider) Schema() *Schema            { return &p.schema }
func (p *StreamingHTTPProvider) Capabilities() []Capability { return []Capability{CapToolUse, CapStreaming} }

func (p *StreamingHTTPProvider) Call(ctx context.Context, input interface{}) (interface{}, error) {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return nil, &ProviderUnavailableError{Provider: p.name, Reason: err.Error()}
	}
	defer conn.Close()

	if err := conn.WriteJSON(input); err != nil {
		return nil, &ExecutionError{Reason: err.Error()}
	}

	var frames []interface{}
	for {
		var frame interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			if len(frames) > 0 {
				break
			}
			return nil, &ExecutionError{Reason: err.Error()}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
