package databaseutils

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mdobak/go-xerrors"
)

type txKey struct {
}

// SQLExecutor defines the common methods implemented by both *sql.DB and *sql.Tx.
// This allows repository methods to work seamlessly with either a direct DB connection
// or an active transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session defines the contract for transaction management.
type Session interface {
	// DoTransactionally executes fn within a new transaction. The context
	// passed to fn carries the transaction; it is committed if fn returns
	// nil and rolled back otherwise.
	DoTransactionally(ctx context.Context, fn func(txCtx context.Context) error) error
}

type sqlSession struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSession(db *sql.DB, log *slog.Logger) Session {
	return &sqlSession{
		db:  db,
		log: log,
	}
}

func (s *sqlSession) DoTransactionally(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	// Nested calls join the outer transaction.
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Newf("session: failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.log.Error("session: failed to rollback transaction",
					slog.String("rollback_error", rollbackErr.Error()),
					slog.String("error", err.Error()))
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = xerrors.Newf("session: failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// GetSQLExecutor returns the transaction stored in ctx, or fallbackDB when
// there is none. Operations on *sql.DB auto-commit single statements.
func GetSQLExecutor(ctx context.Context, fallbackDB *sql.DB) SQLExecutor {
	dbExecutor := ctx.Value(txKey{})
	if dbExecutor == nil {
		return fallbackDB
	}

	tx, ok := dbExecutor.(*sql.Tx)
	if !ok {
		panic(fmt.Sprintf("session: value in context for txKey is not a *sql.Tx, but %T", dbExecutor))
	}
	return tx
}
