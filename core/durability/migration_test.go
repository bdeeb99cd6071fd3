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

package durability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(major, minor, patch uint32) SchemaVersion {
	return SchemaVersion{Major: major, Minor: minor, Patch: patch}
}

func TestMigrationRegistryDirectStep(t *testing.T) {
	r := NewMigrationRegistry()
	applied := false
	r.Register(Migration{From: v(1, 0, 0), To: v(1, 1, 0), Apply: func(s *Snapshot) error {
		applied = true
		return nil
	}})

	s := &Snapshot{Version: v(1, 0, 0)}
	require.NoError(t, r.Migrate(s, v(1, 1, 0)))
	assert.True(t, applied)
	assert.Equal(t, v(1, 1, 0), s.Version)
}

func TestMigrationRegistryComposesChain(t *testing.T) {
	r := NewMigrationRegistry()
	var order []string
	r.Register(Migration{From: v(1, 0, 0), To: v(1, 1, 0), Apply: func(s *Snapshot) error {
		order = append(order, "1.0->1.1")
		return nil
	}})
	r.Register(Migration{From: v(1, 1, 0), To: v(1, 2, 0), Apply: func(s *Snapshot) error {
		order = append(order, "1.1->1.2")
		return nil
	}})

	s := &Snapshot{Version: v(1, 0, 0)}
	require.NoError(t, r.Migrate(s, v(1, 2, 0)))
	assert.Equal(t, []string{"1.0->1.1", "1.1->1.2"}, order)
	assert.Equal(t, v(1, 2, 0), s.Version)
}

func TestMigrationRegistryPicksFurthestEdgeGreedily(t *testing.T) {
	r := NewMigrationRegistry()
	var taken string
	r.Register(Migration{From: v(1, 0, 0), To: v(1, 1, 0), Apply: func(s *Snapshot) error {
		taken = "short"
		return nil
	}})
	r.Register(Migration{From: v(1, 0, 0), To: v(1, 2, 0), Apply: func(s *Snapshot) error {
		taken = "long"
		return nil
	}})

	s := &Snapshot{Version: v(1, 0, 0)}
	require.NoError(t, r.Migrate(s, v(1, 2, 0)))
	assert.Equal(t, "long", taken)
}

func TestMigrationRegistryNoPathReturnsError(t *testing.T) {
	r := NewMigrationRegistry()
	s := &Snapshot{Version: v(1, 0, 0)}
	err := r.Migrate(s, v(2, 0, 0))
	require.Error(t, err)
	var unknown *ErrSchemaVersionUnknown
	assert.ErrorAs(t, err, &unknown)
}

func TestMigrationRegistryAlreadyAtTargetNoOp(t *testing.T) {
	r := NewMigrationRegistry()
	s := &Snapshot{Version: v(1, 0, 0)}
	require.NoError(t, r.Migrate(s, v(1, 0, 0)))
}
