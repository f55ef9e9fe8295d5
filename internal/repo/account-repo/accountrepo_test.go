package accountrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"

	"github.com/harvestmoney/bountyledger/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestRepository_GetByUserID(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Account
	}{
		{
			name:   "Valid userID returns account",
			userID: 1,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "points_balance", "binance_id", "payeer_id"}).
					AddRow(1, 1, int64(100), "abc123", "")
				mock.ExpectQuery(regexp.QuoteMeta(`
					SELECT id, user_id, points_balance, binance_id, payeer_id
					FROM accounts
					WHERE user_id = $1`)).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectErr: false,
			result: &domain.Account{
				ID:            1,
				UserID:        1,
				PointsBalance: 100,
				BinanceID:     "abc123",
			},
		},
		{
			name:   "Non-existing userID returns nil",
			userID: 99,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					SELECT id, user_id, points_balance, binance_id, payeer_id
					FROM accounts
					WHERE user_id = $1`)).
					WithArgs(99).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			result:    nil,
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					SELECT id, user_id, points_balance, binance_id, payeer_id
					FROM accounts
					WHERE user_id = $1`)).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetByUserID(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.result == nil {
				assert.Nil(t, result)
			} else {
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_GetForUpdate(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Account
	}{
		{
			name:   "Locks and returns account",
			userID: 1,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "points_balance", "binance_id", "payeer_id"}).
					AddRow(1, 1, int64(1000), "", "P1234567")
				mock.ExpectQuery(regexp.QuoteMeta(`
					SELECT id, user_id, points_balance, binance_id, payeer_id
					FROM accounts
					WHERE user_id = $1
					FOR UPDATE`)).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectErr: false,
			result: &domain.Account{
				ID:            1,
				UserID:        1,
				PointsBalance: 1000,
				PayeerID:      "P1234567",
			},
		},
		{
			name:   "Non-existing userID returns nil",
			userID: 99,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					SELECT id, user_id, points_balance, binance_id, payeer_id
					FROM accounts
					WHERE user_id = $1
					FOR UPDATE`)).
					WithArgs(99).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetForUpdate(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Account
	}{
		{
			name:   "Successfully creates account",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					INSERT INTO accounts (user_id, points_balance)
					VALUES ($1, 0)
					RETURNING id, user_id, points_balance, binance_id, payeer_id`)).
					WithArgs(1).
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "points_balance", "binance_id", "payeer_id"}).
						AddRow(1, 1, int64(0), "", ""),
					)
			},
			expectErr: false,
			result: &domain.Account{
				ID:            1,
				UserID:        1,
				PointsBalance: 0,
			},
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					INSERT INTO accounts (user_id, points_balance)
					VALUES ($1, 0)
					RETURNING id, user_id, points_balance, binance_id, payeer_id`)).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			result, err := repo.Create(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_AddToBalance(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		delta     int64
		mockSetup func()
		expectErr bool
		expected  int64
	}{
		{
			name:   "Credit increases balance",
			userID: 1,
			delta:  5,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					UPDATE accounts
					SET points_balance = points_balance + $1
					WHERE user_id = $2
					RETURNING points_balance`)).
					WithArgs(int64(5), 1).
					WillReturnRows(pgxmock.NewRows([]string{"points_balance"}).AddRow(int64(105)))
			},
			expectErr: false,
			expected:  105,
		},
		{
			name:   "Debit decreases balance",
			userID: 1,
			delta:  -1000,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					UPDATE accounts
					SET points_balance = points_balance + $1
					WHERE user_id = $2
					RETURNING points_balance`)).
					WithArgs(int64(-1000), 1).
					WillReturnRows(pgxmock.NewRows([]string{"points_balance"}).AddRow(int64(0)))
			},
			expectErr: false,
			expected:  0,
		},
		{
			name:   "Check constraint rejects negative balance",
			userID: 1,
			delta:  -1000,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					UPDATE accounts
					SET points_balance = points_balance + $1
					WHERE user_id = $2
					RETURNING points_balance`)).
					WithArgs(int64(-1000), 1).
					WillReturnError(errors.New("violates check constraint"))
			},
			expectErr: true,
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			balance, err := repo.AddToBalance(context.Background(), tt.userID, tt.delta)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, balance)
		})
	}
}

func TestRepository_UpdatePayoutIdentifiers(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Account
	}{
		{
			name: "Successfully updates identifiers",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					UPDATE accounts
					SET binance_id = $1, payeer_id = $2
					WHERE user_id = $3
					RETURNING id, user_id, points_balance, binance_id, payeer_id`)).
					WithArgs("abc123", "P1234567", 1).
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "points_balance", "binance_id", "payeer_id"}).
						AddRow(1, 1, int64(100), "abc123", "P1234567"),
					)
			},
			expectErr: false,
			result: &domain.Account{
				ID:            1,
				UserID:        1,
				PointsBalance: 100,
				BinanceID:     "abc123",
				PayeerID:      "P1234567",
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`
					UPDATE accounts
					SET binance_id = $1, payeer_id = $2
					WHERE user_id = $3
					RETURNING id, user_id, points_balance, binance_id, payeer_id`)).
					WithArgs("abc123", "P1234567", 1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			result, err := repo.UpdatePayoutIdentifiers(context.Background(), 1, "abc123", "P1234567")

			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}
