package accountrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/harvestmoney/bountyledger/internal/domain"
	"github.com/harvestmoney/bountyledger/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) (*domain.Account, error) {
	query := `
        SELECT id, user_id, points_balance, binance_id, payeer_id
        FROM accounts
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.PointsBalance, &account.BinanceID, &account.PayeerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get account", zap.Error(err))
		return nil, err
	}
	return &account, nil
}

// GetForUpdate locks the account row for the duration of the surrounding
// transaction. All balance mutations for one user serialize on this lock.
func (r *Repository) GetForUpdate(ctx context.Context, userID int) (*domain.Account, error) {
	query := `
        SELECT id, user_id, points_balance, binance_id, payeer_id
        FROM accounts
        WHERE user_id = $1
        FOR UPDATE
    `
	row := r.db.QueryRow(ctx, query, userID)
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.PointsBalance, &account.BinanceID, &account.PayeerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to lock account", zap.Error(err))
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Create(ctx context.Context, userID int) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (user_id, points_balance)
        VALUES ($1, 0)
        RETURNING id, user_id, points_balance, binance_id, payeer_id
    `
	row := r.db.QueryRow(ctx, query, userID)
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.PointsBalance, &account.BinanceID, &account.PayeerID)
	if err != nil {
		zap.L().Error("failed to create account", zap.Error(err))
		return nil, err
	}
	return &account, nil
}

// AddToBalance applies a relative balance change and returns the new value.
// The points_balance CHECK constraint rejects any change below zero.
func (r *Repository) AddToBalance(ctx context.Context, userID int, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET points_balance = points_balance + $1
		WHERE user_id = $2
		RETURNING points_balance
	`
	var balance int64
	err := r.db.QueryRow(ctx, query, delta, userID).Scan(&balance)
	if err != nil {
		zap.L().Error("failed to update balance", zap.Error(err))
		return 0, err
	}
	return balance, nil
}

func (r *Repository) UpdatePayoutIdentifiers(ctx context.Context, userID int, binanceID, payeerID string) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET binance_id = $1, payeer_id = $2
		WHERE user_id = $3
		RETURNING id, user_id, points_balance, binance_id, payeer_id
	`
	row := r.db.QueryRow(ctx, query, binanceID, payeerID, userID)
	var account domain.Account
	err := row.Scan(&account.ID, &account.UserID, &account.PointsBalance, &account.BinanceID, &account.PayeerID)
	if err != nil {
		zap.L().Error("failed to update payout identifiers", zap.Error(err))
		return nil, err
	}
	return &account, nil
}
