package runner

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealquery/internal/domain"
)

// Querier abstracts the two supported store drivers behind one row-map
// query call. SQL passed to it uses $1-style placeholders, which both
// Postgres and SQLite accept.
type Querier interface {
	Query(ctx context.Context, sqlText string, args ...any) ([]domain.Row, error)
}

// PgxQuerier runs queries on a pgx connection pool.
type PgxQuerier struct {
	Pool *pgxpool.Pool
}

func (q *PgxQuerier) Query(ctx context.Context, sqlText string, args ...any) ([]domain.Row, error) {
	rows, err := q.Pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Row, len(maps))
	for i, m := range maps {
		out[i] = domain.Row(m)
	}
	return out, nil
}

// DBQuerier runs queries on a database/sql handle, used for SQLite.
type DBQuerier struct {
	DB *sql.DB
}

func (q *DBQuerier) Query(ctx context.Context, sqlText string, args ...any) ([]domain.Row, error) {
	rows, err := q.DB.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(domain.Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
