// Package catalog maintains versioned, immutable snapshots of the schema
// catalog: table descriptors, relationship edges, and their embeddings.
package catalog

import (
	"dealquery/internal/domain"
)

// Snapshot is one immutable build of the catalog. Concurrent readers hold
// a snapshot pointer and never observe a rebuild in progress.
type Snapshot struct {
	Version int64
	Tables  []domain.TableDescriptor
	Edges   []domain.RelationshipEdge

	byName map[string]int
}

func newSnapshot(version int64, tables []domain.TableDescriptor, edges []domain.RelationshipEdge) *Snapshot {
	s := &Snapshot{
		Version: version,
		Tables:  tables,
		Edges:   edges,
		byName:  make(map[string]int, len(tables)),
	}
	for i, t := range tables {
		s.byName[t.Name] = i
	}
	return s
}

// Table returns the named descriptor, or false if the table is unknown.
func (s *Snapshot) Table(name string) (*domain.TableDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Tables[i], true
}

// Has reports whether the snapshot knows the named table.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// EdgesAmong returns the relationship edges whose both endpoints are in the
// given table set.
func (s *Snapshot) EdgesAmong(tables []string) []domain.RelationshipEdge {
	in := make(map[string]bool, len(tables))
	for _, t := range tables {
		in[t] = true
	}
	var out []domain.RelationshipEdge
	for _, e := range s.Edges {
		if in[e.TableA] && in[e.TableB] {
			out = append(out, e)
		}
	}
	return out
}

// RowCount returns the approximate row count for a table, 0 if unknown.
func (s *Snapshot) RowCount(name string) int64 {
	if t, ok := s.Table(name); ok {
		return t.RowCount
	}
	return 0
}

// joinCost estimates the cost of joining two tables from their approximate
// row counts. Symmetric and monotone in both counts.
func joinCost(rowsA, rowsB int64) float64 {
	cost := float64(rowsA) / 1000 * float64(rowsB) / 1000
	if cost < 0.01 {
		cost = 0.01
	}
	return cost
}
