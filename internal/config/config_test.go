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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumen.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
DefaultFuel = 50000

[Durability]
SnapshotDir = "/var/lib/lumen/snapshots"
Replay = "record"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(50000), cfg.VM.DefaultFuel)
	assert.Equal(t, DefaultVMConfig.MaxCallDepth, cfg.VM.MaxCallDepth)
	assert.Equal(t, "/var/lib/lumen/snapshots", cfg.Durability.SnapshotDir)
	assert.Equal(t, ReplayRecord, cfg.Durability.Replay)
	assert.Equal(t, DefaultHeapConfig, cfg.Heap)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
NotARealField = 1
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults, cfg)
}

func TestLoadOrDefaultEmptyPathFallsBack(t *testing.T) {
	cfg, err := LoadOrDefault("", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults, cfg)
}

func TestLoadOrDefaultExistingFileLoads(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
DefaultFuel = 7
`)
	cfg, err := LoadOrDefault(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.VM.DefaultFuel)
}
