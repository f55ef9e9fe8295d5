package rewardrepo

import (
	"context"
	"time"

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

// InsertEvent records a consumed ad impression. Returns false without error
// when the impression was already recorded, which is how a replayed reward
// callback is detected.
func (r *Repository) InsertEvent(ctx context.Context, event *domain.RewardEvent) (bool, error) {
	query := `
		INSERT INTO reward_events (impression_id, user_id, amount_points, credited_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (impression_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, event.ImpressionID, event.UserID, event.AmountPoints, event.CreditedAt)
	if err != nil {
		zap.L().Error("can't save reward event", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// PurgeOlderThan drops events outside the dedup retention window. Ad networks
// do not redeliver old impressions, so expired rows are dead weight.
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM reward_events WHERE credited_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		zap.L().Error("failed to purge reward events", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
