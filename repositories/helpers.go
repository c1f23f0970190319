package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxRunner выполняет fn в одной транзакции. Ошибка или паника внутри fn
// откатывают транзакцию.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type postgresTxRunner struct {
	db *sql.DB
}

func NewPostgresTxRunner(db *sql.DB) TxRunner {
	return &postgresTxRunner{db: db}
}

func (r *postgresTxRunner) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}

// LockMode selects the row lock taken by a SELECT inside a transaction.
type LockMode int

const (
	LockNone LockMode = iota
	LockForShare
	LockForUpdate
)

func (m LockMode) clause() string {
	switch m {
	case LockForShare:
		return " FOR SHARE"
	case LockForUpdate:
		return " FOR UPDATE"
	default:
		return ""
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// trailingScanner дописывает extra в конец списка приёмников Scan.
type trailingScanner struct {
	rowScanner
	extra []interface{}
}

func (s trailingScanner) Scan(dest ...interface{}) error {
	return s.rowScanner.Scan(append(dest, s.extra...)...)
}

// ErrInvalidValue is returned when a write violates a CHECK constraint.
var ErrInvalidValue = errors.New("value violates a database constraint")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func asPQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// mapConstraintError переводит нарушения ограничений в ошибки репозитория.
// byConstraint сопоставляет имя ограничения с ошибкой; остальное возвращается как есть.
func mapConstraintError(err error, byConstraint map[string]error) error {
	pqErr, ok := asPQError(err)
	if !ok {
		return err
	}
	if mapped, found := byConstraint[pqErr.Constraint]; found {
		return mapped
	}
	if pqErr.Code == pqCheckViolation {
		return fmt.Errorf("%w: %s", ErrInvalidValue, pqErr.Constraint)
	}
	return err
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}
