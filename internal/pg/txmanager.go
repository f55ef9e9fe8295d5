package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TXManager interface {
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxBeginner is the slice of the pgx pool the manager needs to open
// transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Manager struct {
	pool    TxBeginner
	timeout time.Duration
}

func NewTXManager(pool TxBeginner, timeout time.Duration) *Manager {
	return &Manager{pool: pool, timeout: timeout}
}

// Begin runs fn inside a transaction injected into the context. Nested calls
// join the already open transaction instead of starting a new one. The whole
// unit is bounded by the store timeout: once it expires, queries inside fn
// fail with context.DeadlineExceeded and the transaction rolls back.
func (m *Manager) Begin(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	defer func() {
		// The rollback must go through even when the store timeout already
		// fired, so it runs on a context stripped of the deadline.
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
			// pgx.ErrTxClosed after a successful commit is the normal path.
			zap.L().Debug("tx rollback", zap.Error(err))
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}
	return nil
}
