package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"dealquery/internal/domain"
)

// SQLiteSource introspects a SQLite database via sqlite_master and the
// table_info / foreign_key_list pragmas. Row counts are exact COUNT(*)
// scans, acceptable at SQLite scale. Used for local mode and tests.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource wraps an open SQLite handle. The caller owns the handle.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

// Tables implements domain.SchemaSource.
func (s *SQLiteSource) Tables(ctx context.Context) ([]domain.TableDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.TableDescriptor, 0, len(names))
	for _, name := range names {
		desc := domain.TableDescriptor{Name: name}
		if err := s.loadColumns(ctx, &desc); err != nil {
			return nil, fmt.Errorf("columns of %s: %w", name, err)
		}
		if err := s.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)).Scan(&desc.RowCount); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out = append(out, desc)
	}
	return out, nil
}

func (s *SQLiteSource) loadColumns(ctx context.Context, desc *domain.TableDescriptor) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, desc.Name))
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		desc.Columns = append(desc.Columns, domain.ColumnDescriptor{Name: name, Type: colType})
	}
	return rows.Err()
}

// Relationships implements domain.SchemaSource.
func (s *SQLiteSource) Relationships(ctx context.Context) ([]domain.RelationshipEdge, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.RelationshipEdge
	for _, t := range tables {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, t.Name))
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id, seq int
			var parent, from string
			var to sql.NullString // NULL when the FK references the parent's primary key implicitly
			var onUpdate, onDelete, match string
			if err := rows.Scan(&id, &seq, &parent, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				rows.Close() //nolint:errcheck
				return nil, err
			}
			out = append(out, domain.RelationshipEdge{
				TableA:     t.Name,
				TableB:     parent,
				JoinColumn: from,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close() //nolint:errcheck
			return nil, err
		}
		rows.Close() //nolint:errcheck
	}
	return out, nil
}
