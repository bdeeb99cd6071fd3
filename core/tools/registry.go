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
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// RegistryConfig tunes the rate limit applied per provider and the
// retry policy used when a provider call fails transiently. Zero value
// means unlimited rate and DefaultRetryPolicy.
type RegistryConfig struct {
	RatePerSecond rate.Limit
	Burst         int
	Retry         RetryPolicy
}

// Registry collects named tool providers and implements Dispatcher so
// it can be plugged directly into a host's VM driver loop as the thing
// that answers suspended ToolCall/unhandled Perform requests.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
	cfg       RegistryConfig

	// dedup collapses concurrent identical in-flight calls to the same
	// tool+args so an idempotent provider (spec.md §6 "IdempotencyStore")
	// is only actually invoked once per unique request.
	dedup singleflight.Group
}

// NewRegistry builds an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Registry{
		providers: make(map[string]Provider),
		limiters:  make(map[string]*rate.Limiter),
		cfg:       cfg,
	}
}

// Register adds or replaces the provider serving name.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	if r.cfg.RatePerSecond > 0 {
		burst := r.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		r.limiters[name] = rate.NewLimiter(r.cfg.RatePerSecond, burst)
	}
}

// Unregister removes the provider serving name, reporting whether one
// existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.providers[name]
	delete(r.providers, name)
	delete(r.limiters, name)
	return ok
}

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// List returns the names of every registered provider, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch resolves req.ToolID to a registered provider, applies rate
// limiting and the registry's retry policy, forwards the call, and
// validates the result against the provider's declared output schema
// before wrapping it in a Response.
func (r *Registry) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	r.mu.RLock()
	p, ok := r.providers[req.ToolID]
	limiter := r.limiters[req.ToolID]
	retryPolicy := r.cfg.Retry
	r.mu.RUnlock()
	if !ok {
		return nil, &NotRegisteredError{ToolID: req.ToolID}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &RateLimitError{Message: err.Error()}
		}
	}

	key := fmt.Sprintf("%s:%v", req.ToolID, req.Args)
	v, err, _ := r.dedup.Do(key, func() (interface{}, error) {
		return withRetry(ctx, retryPolicy, func() (*Response, error) {
			start := time.Now()
			output, err := p.Call(ctx, req.Args)
			if err != nil {
				return nil, err
			}
			if err := ValidateOutput(p.Schema().OutputSchema, output); err != nil {
				return nil, err
			}
			return &Response{Outputs: output, LatencyMs: time.Since(start).Milliseconds()}, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}
