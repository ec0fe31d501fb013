package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx so services can run
// repository calls inside their own transactions.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is the transaction handle services hold while batching repository
// writes. *sql.Tx satisfies it.
type Tx interface {
	SQLExecutor
	Commit() error
	Rollback() error
}

// TxBeginner starts write transactions. Wrap the connection pool with
// NewTxBeginner; tests substitute an in-memory implementation.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

func NewTxBeginner(db *sql.DB) TxBeginner {
	return sqlTxBeginner{db: db}
}

type sqlTxBeginner struct {
	db *sql.DB
}

func (b sqlTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	return b.db.BeginTx(ctx, opts)
}

const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// collision. Generation treats these as "match already exists", not failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func checkAffectedRows(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
