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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncAndClear(t *testing.T) {
	c := NewCounter()
	c.Inc(3)
	c.Inc(-1)
	assert.Equal(t, int64(2), c.Count())
	c.Clear()
	assert.Equal(t, int64(0), c.Count())
}

func TestGaugeUpdate(t *testing.T) {
	g := NewGauge()
	g.Update(42)
	assert.Equal(t, int64(42), g.Value())
	g.Update(7)
	assert.Equal(t, int64(7), g.Value())
}

func TestRegistryGetOrRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c1 := r.GetOrRegisterCounter("a")
	c2 := r.GetOrRegisterCounter("a")
	c1.Inc(5)
	assert.Equal(t, int64(5), c2.Count())
}

func TestRegistryGetOrRegisterGaugePanicsOnTypeMismatch(t *testing.T) {
	r := NewRegistry()
	r.GetOrRegisterCounter("x")
	assert.Panics(t, func() { r.GetOrRegisterGauge("x") })
}

func TestRegistryEachVisitsInSortedOrder(t *testing.T) {
	r := NewRegistry()
	r.GetOrRegisterCounter("zebra")
	r.GetOrRegisterCounter("alpha")

	var order []string
	r.Each(func(name string, m Metric) { order = append(order, name) })
	assert.Equal(t, []string{"alpha", "zebra"}, order)
}

func TestRegistryGetReturnsNilForUnregistered(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("missing"))
}

func TestRegistryString(t *testing.T) {
	r := NewRegistry()
	r.GetOrRegisterCounter("vm/fuel_consumed").Inc(10)
	r.GetOrRegisterGauge("heap/live_objects").Update(3)

	out := r.String()
	require.Contains(t, out, "vm/fuel_consumed: 10")
	require.Contains(t, out, "heap/live_objects: 3")
}
