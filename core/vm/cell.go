// Copyright 2015 The go-core Authors
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

package vm

import "github.com/lumen-run/lumen/core/value"

// DebugInfo carries the source-level breadcrumbs a debug adapter needs;
// the DAP/LSP translation itself is out of scope (spec.md §1).
type DebugInfo struct {
	SourceFile string
	Lines      []uint32 // per-instruction source line, parallel to Code
}

// Cell is a compiled function unit (spec.md §3 "LIR Module").
type Cell struct {
	Name        string
	Params      []Param
	Registers   uint16
	Code        []Instruction
	Debug       DebugInfo
	EffectRow   []string // declared or inferred effect names
}

type Param struct {
	Name     string
	Register uint8
	TypeName string
}

// TypeDesc describes a record/enum/union for NewRecord/NewUnion/schema
// checks (spec.md §3 "types[]").
type TypeDesc struct {
	Name     string
	Fields   []string
	IsUnion  bool
	Variants []string
}

// EffectSig is a declared algebraic-effect signature.
type EffectSig struct {
	Name   string
	Params []string
}

// Module is the frozen LIR module the executor runs (spec.md §3/§6).
type Module struct {
	Version   uint32
	Cells     []*Cell
	Constants []value.Value
	Types     []TypeDesc
	Effects   []EffectSig
	Imports   []string // tool identifiers referenced by ToolCall
	Interned  []string
}

func (m *Module) CellByName(name string) (int, *Cell) {
	for i, c := range m.Cells {
		if c.Name == name {
			return i, c
		}
	}
	return -1, nil
}
