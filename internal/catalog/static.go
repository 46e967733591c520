package catalog

import (
	"context"

	"dealquery/internal/domain"
)

// StaticSource serves a fixed table and edge set. Used by tests and by the
// embedded demo schema in the CLI.
type StaticSource struct {
	TableSet []domain.TableDescriptor
	EdgeSet  []domain.RelationshipEdge
}

// Tables implements domain.SchemaSource.
func (s *StaticSource) Tables(_ context.Context) ([]domain.TableDescriptor, error) {
	out := make([]domain.TableDescriptor, len(s.TableSet))
	copy(out, s.TableSet)
	return out, nil
}

// Relationships implements domain.SchemaSource.
func (s *StaticSource) Relationships(_ context.Context) ([]domain.RelationshipEdge, error) {
	out := make([]domain.RelationshipEdge, len(s.EdgeSet))
	copy(out, s.EdgeSet)
	return out, nil
}
