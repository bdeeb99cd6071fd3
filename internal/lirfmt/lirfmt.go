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

// Package lirfmt (de)serializes a compiled *vm.Module to and from the
// wire record spec.md §6 calls the bytecode module: {version, cells[],
// constants[], types[], effects[], imports[], interned-strings[]}.
// Producing the module from source (the frontend) is out of scope
// (spec.md §1); this package only freezes and thaws an already-built
// Module, the way the teacher's RLP-based block/transaction encoders
// freeze and thaw chain objects.
package lirfmt

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/lumen-run/lumen/core/value"
	"github.com/lumen-run/lumen/core/vm"
)

// FormatVersion is bumped whenever wireModule's shape changes in a way
// that breaks decoding older payloads.
const FormatVersion = 1

// ErrUnsupportedVersion is returned by Decode when a payload declares a
// version this package doesn't know how to read.
type ErrUnsupportedVersion struct {
	Got, Want uint32
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("lirfmt: unsupported module version %d (this build reads %d)", e.Got, e.Want)
}

// ErrDecode wraps a gob decode failure so callers can distinguish a
// corrupt/truncated payload from a version mismatch.
type ErrDecode struct{ Err error }

func (e *ErrDecode) Error() string { return fmt.Sprintf("lirfmt: decode failed: %v", e.Err) }
func (e *ErrDecode) Unwrap() error { return e.Err }

// wireModule mirrors vm.Module field-for-field; kept distinct so the
// on-disk shape can evolve independently of the in-memory one (e.g. if
// vm.Module ever grows a field the wire format doesn't carry yet).
type wireModule struct {
	Version   uint32
	Cells     []wireCell
	Constants []value.Value
	Types     []vm.TypeDesc
	Effects   []vm.EffectSig
	Imports   []string
	Interned  []string
}

type wireCell struct {
	Name      string
	Params    []vm.Param
	Registers uint16
	Code      []vm.Instruction
	Debug     vm.DebugInfo
	EffectRow []string
}

func toWire(m *vm.Module) wireModule {
	w := wireModule{
		Version:   FormatVersion,
		Cells:     make([]wireCell, len(m.Cells)),
		Constants: m.Constants,
		Types:     m.Types,
		Effects:   m.Effects,
		Imports:   m.Imports,
		Interned:  m.Interned,
	}
	for i, c := range m.Cells {
		w.Cells[i] = wireCell{
			Name: c.Name, Params: c.Params, Registers: c.Registers,
			Code: c.Code, Debug: c.Debug, EffectRow: c.EffectRow,
		}
	}
	return w
}

func fromWire(w wireModule) *vm.Module {
	m := &vm.Module{
		Version:   w.Version,
		Cells:     make([]*vm.Cell, len(w.Cells)),
		Constants: w.Constants,
		Types:     w.Types,
		Effects:   w.Effects,
		Imports:   w.Imports,
		Interned:  w.Interned,
	}
	for i, c := range w.Cells {
		m.Cells[i] = &vm.Cell{
			Name: c.Name, Params: c.Params, Registers: c.Registers,
			Code: c.Code, Debug: c.Debug, EffectRow: c.EffectRow,
		}
	}
	return m
}

// Encode serializes m to bytes. gob is used for the same reason
// core/durability's Snapshot.Encode is: no schema-first dependency
// (protobuf/flatbuffers) appears anywhere in the teacher or the wider
// pack, and gob's self-describing format tolerates the wireModule
// shape evolving additively across FormatVersion bumps.
func Encode(m *vm.Module) ([]byte, error) {
	return encodeWire(toWire(m))
}

// Decode parses bytes produced by Encode back into a *vm.Module.
func Decode(data []byte) (*vm.Module, error) {
	w, err := decodeWire(data)
	if err != nil {
		return nil, err
	}
	if w.Version != FormatVersion {
		return nil, &ErrUnsupportedVersion{Got: w.Version, Want: FormatVersion}
	}
	return fromWire(w), nil
}

func encodeWire(w wireModule) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeWire(data []byte) (wireModule, error) {
	var w wireModule
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return wireModule{}, &ErrDecode{Err: err}
	}
	return w, nil
}

// WriteFile serializes m and writes it atomically to path: the payload
// lands in a `.tmp` sibling first, is fsynced, then renamed over path —
// the same crash-safety discipline core/durability's FileCheckpointStore
// uses for snapshot files (spec.md §6 "Writes are atomic via
// tmp+rename").
func WriteFile(path string, m *vm.Module) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFile reads and decodes a module previously written by WriteFile.
func ReadFile(path string) (*vm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
