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

// Counter holds a monotonically-adjustable int64 (fuel consumed, GC
// cycles run). Safe for concurrent use by multiple goroutines even
// though a single Executor/Heap is single-owner, since a Registry may
// be shared by several VMs in one process.
type Counter struct {
	count int64
}

func (*Counter) metric() {}

// NewCounter returns a zeroed Counter.
func NewCounter() *Counter { return &Counter{} }

// Inc adds delta (may be negative) to the counter.
func (c *Counter) Inc(delta int64) { atomic.AddInt64(&c.count, delta) }

// Count returns the current value.
func (c *Counter) Count() int64 { return atomic.LoadInt64(&c.count) }

// Clear resets the counter to zero.
func (c *Counter) Clear() { atomic.StoreInt64(&c.count, 0) }
