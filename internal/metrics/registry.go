// Copyright 2016 by the Authors
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

package metrics

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a named collection of Metrics, mirroring the teacher's
// metrics.Registry (itself an adaptation of rcrowley/go-metrics'
// Registry interface into a single concrete type, since Lumen only
// ever needs one implementation).
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// DefaultRegistry is shared by components that don't construct or
// thread through their own Registry (mirrors the teacher's
// metrics.DefaultRegistry).
var DefaultRegistry = NewRegistry()

// GetOrRegisterCounter returns the named Counter, creating it if
// absent. Panics if name is already registered to a different Metric
// type, matching the teacher's fail-fast registration behavior.
func (r *Registry) GetOrRegisterCounter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		return m.(*Counter)
	}
	c := NewCounter()
	r.metrics[name] = c
	return c
}

// GetOrRegisterGauge returns the named Gauge, creating it if absent.
func (r *Registry) GetOrRegisterGauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		return m.(*Gauge)
	}
	g := NewGauge()
	r.metrics[name] = g
	return g
}

// Each calls fn once per registered metric, in sorted name order so
// iteration (and any log/dashboard output built on it) is
// deterministic across runs.
func (r *Registry) Each(fn func(name string, m Metric)) {
	r.mu.RLock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	snapshot := make(map[string]Metric, len(r.metrics))
	for k, v := range r.metrics {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for _, name := range names {
		fn(name, snapshot[name])
	}
}

// Get returns the named metric, or nil if unregistered.
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// String renders every registered metric's current reading, one per
// line, for debug/CLI output (cmd/lumenvm's --statdump-equivalent).
func (r *Registry) String() string {
	var out string
	r.Each(func(name string, m Metric) {
		switch v := m.(type) {
		case *Counter:
			out += fmt.Sprintf("%s: %d\n", name, v.Count())
		case *Gauge:
			out += fmt.Sprintf("%s: %d\n", name, v.Value())
		}
	})
	return out
}
