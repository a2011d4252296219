package postgres

import (
	"context"
	"errors"
	"fmt"
)

// TxManager runs units of work in a transaction carried through the context.
// Repositories pick it up with QuerierFromCtx. Nesting is not supported: a
// RunInTx inside a RunInTx callback opens a second, independent transaction.
type TxManager struct {
	db Beginner
}

// NewTxManager creates a TxManager over db.
func NewTxManager(db Beginner) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn in a Read Committed transaction. fn's error is
// returned unwrapped so callers can classify it; a rollback failure is
// joined to it. A panic in fn rolls back and re-panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Rollback must still reach the server after the caller gives up.
	rollbackCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(rollbackCtx)
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(rollbackCtx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
