package withdrawalrepo

import (
	"context"
	"time"

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

const withdrawalColumns = "id, user_id, method, account_identifier, amount_points, amount_usd, status, created_at, resolved_at, notified_at"

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	err := row.Scan(&wd.ID, &wd.UserID, &wd.Method, &wd.AccountIdentifier, &wd.AmountPoints, &wd.AmountUSD, &wd.Status, &wd.CreatedAt, &wd.ResolvedAt, &wd.NotifiedAt)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

func (r *Repository) Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (user_id, method, account_identifier, amount_points, amount_usd, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, withdrawal.UserID, withdrawal.Method, withdrawal.AccountIdentifier,
		withdrawal.AmountPoints, withdrawal.AmountUSD, withdrawal.Status, withdrawal.CreatedAt).Scan(&withdrawal.ID)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get withdrawal", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

func (r *Repository) GetWithdrawalsByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var wd domain.Withdrawal
		err := rows.Scan(&wd.ID, &wd.UserID, &wd.Method, &wd.AccountIdentifier, &wd.AmountPoints, &wd.AmountUSD, &wd.Status, &wd.CreatedAt, &wd.ResolvedAt, &wd.NotifiedAt)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, wd)
	}

	return withdrawals, nil
}

func (r *Repository) FindPendingByUserID(ctx context.Context, userID int) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE user_id = $1 AND status = 'pending'`
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to find pending withdrawal", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

// FindLatestByUserID returns the newest request regardless of status; the
// cooldown is measured from it even when that request was rejected.
func (r *Repository) FindLatestByUserID(ctx context.Context, userID int) (*domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to find latest withdrawal", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

// Resolve flips a pending request into a terminal status. The status guard in
// the WHERE clause makes terminal rows immutable; (nil, nil) means no pending
// row with this id existed.
func (r *Repository) Resolve(ctx context.Context, id int, status string, resolvedAt time.Time) (*domain.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = 'pending'
		RETURNING ` + withdrawalColumns
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, status, resolvedAt, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to resolve withdrawal", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

func (r *Repository) FindUnnotified(ctx context.Context, limit uint32) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE status = 'pending' AND notified_at IS NULL
        ORDER BY created_at
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		zap.L().Error("failed to fetch unnotified withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var wd domain.Withdrawal
		err := rows.Scan(&wd.ID, &wd.UserID, &wd.Method, &wd.AccountIdentifier, &wd.AmountPoints, &wd.AmountUSD, &wd.Status, &wd.CreatedAt, &wd.ResolvedAt, &wd.NotifiedAt)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, wd)
	}

	return withdrawals, nil
}

func (r *Repository) MarkNotified(ctx context.Context, id int, notifiedAt time.Time) error {
	query := `
		UPDATE withdrawals
		SET notified_at = $1
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, notifiedAt, id); err != nil {
		zap.L().Error("failed to mark withdrawal notified", zap.Error(err))
		return err
	}
	return nil
}
