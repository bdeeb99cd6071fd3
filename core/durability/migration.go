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

import "fmt"

// Migration transforms a decoded Snapshot that was stamped with a
// given From version into one valid under To. Migrations run on the
// decoded struct, not on raw bytes, so a migration only needs to
// describe the field-level change it makes.
type Migration struct {
	From, To SchemaVersion
	Apply    func(*Snapshot) error
}

// MigrationRegistry maps (from, to) pairs to migrations and composes a
// forward-only chain when loading an older snapshot (spec.md §4.4 "a
// greedy forward-only path-finder composes migrations").
type MigrationRegistry struct {
	edges map[SchemaVersion][]Migration
}

// NewMigrationRegistry builds an empty registry.
func NewMigrationRegistry() *MigrationRegistry {
	return &MigrationRegistry{edges: make(map[SchemaVersion][]Migration)}
}

// Register adds a direct migration edge from `from` to `to`.
func (r *MigrationRegistry) Register(m Migration) {
	r.edges[m.From] = append(r.edges[m.From], m)
}

// Migrate walks a greedy forward chain of registered migrations,
// always picking the edge that advances SchemaVersion the furthest
// from the current position, until s.Version equals target or no edge
// advances it further. Returns ErrSchemaVersionUnknown if no path
// reaches target.
func (r *MigrationRegistry) Migrate(s *Snapshot, target SchemaVersion) error {
	seen := map[SchemaVersion]bool{s.Version: true}
	for s.Version.Compare(target) != 0 {
		var best *Migration
		for i, m := range r.edges[s.Version] {
			if m.To.Compare(target) > 0 {
				continue // overshoots past the requested target
			}
			if best == nil || m.To.Compare(best.To) > 0 {
				best = &r.edges[s.Version][i]
			}
		}
		if best == nil {
			return &ErrSchemaVersionUnknown{Version: s.Version}
		}
		if err := best.Apply(s); err != nil {
			return fmt.Errorf("durability: migration %s->%s: %w", best.From, best.To, err)
		}
		s.Version = best.To
		if seen[s.Version] {
			return &ErrSchemaVersionUnknown{Version: s.Version} // cycle guard
		}
		seen[s.Version] = true
	}
	return nil
}
