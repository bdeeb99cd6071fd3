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

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-run/lumen/internal/metrics"
)

func TestAllocAndGet(t *testing.T) {
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{})
	idx, err := h.Alloc(1, "payload", nil)
	require.NoError(t, err)
	o, ok := h.Get(idx)
	require.True(t, ok)
	assert.Equal(t, "payload", o.Payload)
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{})
	idx, _ := h.Alloc(1, "garbage", nil)
	h.Collect()
	_, ok := h.Get(idx)
	assert.False(t, ok, "unreachable object must be swept")
}

func TestCollectKeepsRooted(t *testing.T) {
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{})
	idx, _ := h.Alloc(1, "kept", nil)
	roots = []uint32{idx}
	h.Collect()
	o, ok := h.Get(idx)
	require.True(t, ok)
	assert.Equal(t, Black, o.Header.Color, "every register-reachable object must end Black after collect()")
}

func TestMarkReachesThroughRefs(t *testing.T) {
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{})
	child, _ := h.Alloc(1, "child", nil)
	parent, _ := h.Alloc(1, "parent", []uint32{child})
	roots = []uint32{parent}
	h.Collect()
	_, ok := h.Get(child)
	assert.True(t, ok, "object reachable transitively through a root must survive")
}

func TestPinSurvivesCompaction(t *testing.T) {
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{EnableCompaction: true})
	idx, _ := h.Alloc(1, "pinned", nil)
	h.Pin(idx)
	roots = []uint32{idx}
	h.Collect()
	resolved, o, ok := h.Resolve(idx)
	require.True(t, ok)
	assert.Equal(t, idx, resolved)
	assert.Equal(t, "pinned", o.Payload)
}

func TestCollectReportsMetricsWhenConfigured(t *testing.T) {
	reg := metrics.NewRegistry()
	var roots []uint32
	h := New(func() []uint32 { return roots }, Config{Metrics: reg})
	idx, _ := h.Alloc(1, "live", nil)
	roots = []uint32{idx}

	h.Collect()
	h.Collect()

	assert.Equal(t, int64(2), reg.GetOrRegisterCounter("heap/gc_cycles").Count())
	assert.Equal(t, int64(1), reg.GetOrRegisterGauge("heap/live_objects").Value())
}
