package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxManager runs a function inside a single database transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, exec SQLExecutor) error) error
}

type postgresTxManager struct {
	db *sql.DB
}

func NewPostgresTxManager(db *sql.DB) TxManager {
	return &postgresTxManager{db: db}
}

func (m *postgresTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, exec SQLExecutor) error) (txErr error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(ctx, tx)
	return txErr
}

// marshalDocument encodes a JSONB column value. Nil slices are stored as
// empty arrays so reads never see SQL NULL for list columns.
func marshalDocument[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

func unmarshalDocument[T any](raw []byte, dst *[]T) error {
	if len(raw) == 0 {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}
