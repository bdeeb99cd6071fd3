// Copyright 2017 by the Authors
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

// Package config loads the TOML configuration file an embedder points
// a lumen process at: fuel defaults, heap/GC tuning, the durability
// snapshot directory, and replay mode (SPEC_FULL.md §11 "Configuration"),
// the same way the teacher's cmd/gcore loads gcore.toml.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"

	"github.com/lumen-run/lumen/log"
)

// ReplayMode selects how an Executor's NondeterminismSource behaves
// (spec.md §4.4): record mode captures every nondeterministic value in a
// durability.ReplayRecorder log, playback mode replays such a log instead
// of touching the wall clock/RNG, and off does neither.
type ReplayMode string

const (
	ReplayOff     ReplayMode = "off"
	ReplayRecord  ReplayMode = "record"
	ReplayPlayback ReplayMode = "playback"
)

// VMConfig tunes fuel accounting and the call stack (mirrors
// vm.Config's knobs that make sense to set ahead of time).
type VMConfig struct {
	DefaultFuel  uint64 `toml:",omitempty"`
	MaxCallDepth int    `toml:",omitempty"`
}

// DefaultVMConfig matches vm.NewExecutor's own zero-value fallbacks
// (vm.MaxCallDepth) plus a fuel budget generous enough for a single
// interactive Call/Resume round trip.
var DefaultVMConfig = VMConfig{
	DefaultFuel:  1_000_000,
	MaxCallDepth: 256,
}

// HeapConfig tunes the Immix-style heap (core/heap.Config plus the
// block-size override the teacher's gcore.toml exposes for its own
// trie/state caches).
type HeapConfig struct {
	EnableCompaction bool `toml:",omitempty"`
	BlockSizeBytes   int  `toml:",omitempty"`
}

var DefaultHeapConfig = HeapConfig{
	EnableCompaction: true,
	BlockSizeBytes:   32 * 1024,
}

// DurabilityConfig points at the on-disk checkpoint store and selects
// the replay mode a process starts in.
type DurabilityConfig struct {
	SnapshotDir string     `toml:",omitempty"`
	Replay      ReplayMode `toml:",omitempty"`
	Compress    bool       `toml:",omitempty"`
}

var DefaultDurabilityConfig = DurabilityConfig{
	SnapshotDir: "lumen-snapshots",
	Replay:      ReplayOff,
	Compress:    true,
}

// Config is the top-level TOML document a lumen process loads.
type Config struct {
	VM         VMConfig
	Heap       HeapConfig
	Durability DurabilityConfig
}

// Defaults is the Config a process starts from before a file is
// applied on top of it (mirrors the teacher's node.DefaultConfig /
// probeconfig.Defaults layering).
var Defaults = Config{
	VM:         DefaultVMConfig,
	Heap:       DefaultHeapConfig,
	Durability: DefaultDurabilityConfig,
}

// tomlSettings disables naoina/toml's default CamelCase-to-kebab-case
// field renaming so TOML keys read exactly like the Go struct fields,
// and reports unknown keys instead of silently ignoring typos — the
// same settings the teacher's cmd/gcore uses for its own config file.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field %q is not defined in %s%s", field, rt.String(), link)
	},
}

// Load reads and decodes the TOML file at path on top of Defaults.
// A field absent from the file keeps its default value; a field
// present in the file but not in Config is a load error rather than a
// silently-ignored typo.
func Load(path string) (Config, error) {
	cfg := Defaults

	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return Config{}, fmt.Errorf("%s, %v", path, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault is Load with a missing file treated as "use defaults"
// rather than an error, matching how an embedder that never wrote a
// config file still gets a runnable process.
func LoadOrDefault(path string, logger log.Logger) (Config, error) {
	if path == "" {
		return Defaults, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if logger != nil {
			logger.Warn("config file not found, using defaults", "path", path)
		}
		return Defaults, nil
	}
	return Load(path)
}
