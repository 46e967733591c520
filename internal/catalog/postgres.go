package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dealquery/internal/domain"
)

// PostgresSource introspects a Postgres database: tables and columns from
// the system catalogs, approximate row counts from pg_class.reltuples, and
// relationships from foreign key constraints.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects a pool and verifies it with a ping.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Pool exposes the underlying connection pool so the query runner can share
// it instead of opening a second one.
func (s *PostgresSource) Pool() *pgxpool.Pool {
	return s.pool
}

// Tables implements domain.SchemaSource.
func (s *PostgresSource) Tables(ctx context.Context) ([]domain.TableDescriptor, error) {
	query := `
		SELECT
			c.relname AS table_name,
			a.attname AS column_name,
			t.typname AS data_type,
			GREATEST(c.reltuples, 0)::bigint AS approx_rows
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		JOIN pg_type t ON t.oid = a.atttypid
		WHERE c.relkind = 'r'
			AND a.attnum > 0
			AND NOT a.attisdropped
			AND n.nspname = 'public'
		ORDER BY c.relname, a.attnum
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TableDescriptor
	index := make(map[string]int)
	for rows.Next() {
		var tableName, colName, dataType string
		var approxRows int64
		if err := rows.Scan(&tableName, &colName, &dataType, &approxRows); err != nil {
			return nil, err
		}
		i, ok := index[tableName]
		if !ok {
			i = len(out)
			index[tableName] = i
			out = append(out, domain.TableDescriptor{Name: tableName, RowCount: approxRows})
		}
		out[i].Columns = append(out[i].Columns, domain.ColumnDescriptor{
			Name: colName,
			Type: dataType,
		})
	}
	return out, rows.Err()
}

// Relationships implements domain.SchemaSource. Costs are filled in by the
// catalog from row-count statistics.
func (s *PostgresSource) Relationships(ctx context.Context) ([]domain.RelationshipEdge, error) {
	query := `
		SELECT
			c.relname AS child_table,
			p.relname AS parent_table,
			a.attname AS join_column
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_class p ON p.oid = con.confrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) AS k(attnum)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE con.contype = 'f'
			AND n.nspname = 'public'
		ORDER BY c.relname, p.relname
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RelationshipEdge
	seen := make(map[string]bool)
	for rows.Next() {
		var child, parent, col string
		if err := rows.Scan(&child, &parent, &col); err != nil {
			return nil, err
		}
		key := child + "|" + parent + "|" + col
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.RelationshipEdge{
			TableA:     child,
			TableB:     parent,
			JoinColumn: col,
		})
	}
	return out, rows.Err()
}
