package databaseutils

import (
	"context"
	"database/sql"
	"time"
)

// SQLTemplate runs statements against the transaction carried by the
// context, or the pool, bounding each one by Timeout.
type SQLTemplate struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewSQLTemplate(db *sql.DB, timeout time.Duration) *SQLTemplate {
	return &SQLTemplate{
		DB:      db,
		Timeout: timeout,
	}
}

func ExecuteQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, sqlTemplate.Timeout)
	defer cancel()

	rows, err := GetSQLExecutor(ctx, sqlTemplate.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		t, err := extractor(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ExecuteSingleQuery returns sql.ErrNoRows when the query yields nothing.
func ExecuteSingleQuery[T any](sqlTemplate *SQLTemplate, ctx context.Context, query string, extractor func(rows *sql.Rows) (T, error), args ...any) (T, error) {
	var zero T
	results, err := ExecuteQuery(sqlTemplate, ctx, query, extractor, args...)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, sql.ErrNoRows
	}
	return results[0], nil
}

func Execute(sqlTemplate *SQLTemplate, ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sqlTemplate.Timeout)
	defer cancel()

	result, err := GetSQLExecutor(ctx, sqlTemplate.DB).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
