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

import "sync/atomic"

// Gauge holds a point-in-time int64 reading (e.g. the heap's live
// object count) that the last Update call overwrites rather than
// accumulates.
type Gauge struct {
	value int64
}

func (*Gauge) metric() {}

// NewGauge returns a zeroed Gauge.
func NewGauge() *Gauge { return &Gauge{} }

// Update overwrites the gauge's value.
func (g *Gauge) Update(v int64) { atomic.StoreInt64(&g.value, v) }

// Value returns the current reading.
func (g *Gauge) Value() int64 { return atomic.LoadInt64(&g.value) }
