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

// Package metrics adapts the teacher's metrics package (go-ethereum
// family: named Counters/Gauges collected into a Registry) to the
// handful of VM resource signals Lumen itself produces: fuel consumed,
// live heap object count, and GC cycle count (SPEC_FULL.md §10 "adapted from
// teacher's metrics package"). It is not a general-purpose metrics
// facade — C1/C2 only ever need a counter and a gauge, so that's all
// this package provides.
package metrics

// Enabled mirrors the teacher's package-level on/off switch: embedders
// that never read DefaultRegistry pay only the cost of a few atomic
// increments, so this exists for parity with the teacher's convention
// rather than to skip real work.
var Enabled = true

// Metric is the marker interface every exported metric type satisfies,
// matching the teacher's metrics.Metric.
type Metric interface {
	metric()
}
