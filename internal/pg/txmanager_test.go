package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	return NewTXManager(mock, timeout), mock
}

func TestManager_Begin_Commit(t *testing.T) {
	manager, mock := newTestManager(t, 0)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var sawTx bool
	err := manager.Begin(context.Background(), func(ctx context.Context) error {
		sawTx = txFromContext(ctx) != nil
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, sawTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Begin_RollbackOnError(t *testing.T) {
	manager, mock := newTestManager(t, 0)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	fnErr := errors.New("insufficient balance")
	err := manager.Begin(context.Background(), func(ctx context.Context) error {
		return fnErr
	})

	assert.ErrorIs(t, err, fnErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Begin_BeginFails(t *testing.T) {
	manager, mock := newTestManager(t, 0)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := manager.Begin(context.Background(), func(ctx context.Context) error {
		t.Fatal("fn must not run when the transaction can't start")
		return nil
	})

	assert.ErrorContains(t, err, "can't begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Begin_NestedJoinsTransaction(t *testing.T) {
	manager, mock := newTestManager(t, 0)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var innerRan bool
	err := manager.Begin(context.Background(), func(ctx context.Context) error {
		return manager.Begin(ctx, func(ctx context.Context) error {
			innerRan = txFromContext(ctx) != nil
			return nil
		})
	})

	assert.NoError(t, err)
	assert.True(t, innerRan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Begin_TimeoutRollsBack(t *testing.T) {
	manager, mock := newTestManager(t, 10*time.Millisecond)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := manager.Begin(context.Background(), func(ctx context.Context) error {
		// A store call stuck on a lock surfaces the deadline the same way.
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
