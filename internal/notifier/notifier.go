package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harvestmoney/bountyledger/internal/config"
	"github.com/harvestmoney/bountyledger/internal/domain"
	"github.com/harvestmoney/bountyledger/pkg/clients"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var inFlight sync.Map

type WithdrawalRepo interface {
	FindUnnotified(ctx context.Context, limit uint32) ([]domain.Withdrawal, error)
	MarkNotified(ctx context.Context, id int, notifiedAt time.Time) error
}

type RewardRepo interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Payout is the webhook body announcing a pending withdrawal to the
// back-office payments desk.
type Payout struct {
	DeliveryID   string    `json:"delivery_id"`
	RequestID    int       `json:"request_id"`
	UserID       int       `json:"user_id"`
	Method       string    `json:"method"`
	Account      string    `json:"account"`
	AmountPoints int64     `json:"amount_points"`
	AmountUSD    string    `json:"amount_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service announces pending withdrawals to the back-office webhook and purges
// reward events that fell out of the dedup retention window.
type Service struct {
	url            string
	withdrawalRepo WithdrawalRepo
	rewardRepo     RewardRepo
	client         clients.HTTPClientI
	limit          uint32
	workerPool     WorkerPoolI
	notifyInterval time.Duration
	purgeInterval  time.Duration
	retention      time.Duration
}

func New(cfg *config.Config, withdrawalRepo WithdrawalRepo, rewardRepo RewardRepo, client clients.HTTPClientI) *Service {
	return &Service{
		url:            cfg.BackofficeAddress,
		withdrawalRepo: withdrawalRepo,
		rewardRepo:     rewardRepo,
		client:         client,
		limit:          1000,
		workerPool:     NewWorkerPool(10),
		notifyInterval: time.Second * 5,
		purgeInterval:  time.Hour,
		retention:      cfg.DedupRetention(),
	}
}

// Start blocks until ctx is canceled; the caller owns the goroutine.
func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Payout notifier started")
	s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	notifyTicker := time.NewTicker(s.notifyInterval)
	defer notifyTicker.Stop()
	purgeTicker := time.NewTicker(s.purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping notifier")
			return
		case <-notifyTicker.C:
			s.processPending(ctx)
		case <-purgeTicker.C:
			s.purgeExpired(ctx)
		}
	}
}

func (s *Service) processPending(ctx context.Context) {
	withdrawals, err := s.withdrawalRepo.FindUnnotified(ctx, s.limit)
	if err != nil {
		zap.L().Error("Failed to fetch withdrawals for notification", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, withdrawal := range withdrawals {
		withdrawal := withdrawal

		if _, loaded := inFlight.LoadOrStore(withdrawal.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer inFlight.Delete(withdrawal.ID)
				return s.deliver(ctx, withdrawal)
			})
			if err != nil {
				inFlight.Delete(withdrawal.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error notifying withdrawals", zap.Error(err))
	}
}

func (s *Service) deliver(ctx context.Context, withdrawal domain.Withdrawal) error {
	body, err := json.Marshal(Payout{
		DeliveryID:   uuid.NewString(),
		RequestID:    withdrawal.ID,
		UserID:       withdrawal.UserID,
		Method:       withdrawal.Method,
		Account:      withdrawal.AccountIdentifier,
		AmountPoints: withdrawal.AmountPoints,
		AmountUSD:    withdrawal.AmountUSD,
		CreatedAt:    withdrawal.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payout %d: %w", withdrawal.ID, err)
	}

	url := s.url + "/api/payouts"
	headers := http.Header{"Content-Type": []string{"application/json"}}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			statusCode, _, respHeaders, err := s.client.Post(url, headers, body)
			if err != nil {
				if attempt < maxRetries {
					time.Sleep(retryInterval * time.Duration(attempt))
					continue
				}
				return fmt.Errorf("failed to deliver payout %d after %d retries: %w", withdrawal.ID, maxRetries, err)
			}

			switch statusCode {
			case http.StatusTooManyRequests:
				s.waitRetryAfter(withdrawal.ID, respHeaders, attempt)
				continue

			case http.StatusOK, http.StatusCreated, http.StatusAccepted:
				if err := s.withdrawalRepo.MarkNotified(ctx, withdrawal.ID, time.Now()); err != nil {
					return fmt.Errorf("failed to mark payout %d notified: %w", withdrawal.ID, err)
				}
				zap.L().Info("Payout announced", zap.Int("requestID", withdrawal.ID))
				return nil

			default:
				zap.L().Error("Unexpected status code from back-office", zap.Int("status", statusCode), zap.Int("requestID", withdrawal.ID))
				if attempt < maxRetries {
					time.Sleep(retryInterval * time.Duration(attempt))
					continue
				}
				return fmt.Errorf("back-office rejected payout %d with status %d", withdrawal.ID, statusCode)
			}
		}
	}
	return nil
}

func (s *Service) waitRetryAfter(requestID int, respHeaders http.Header, attempt int) {
	retryAfterHeader := respHeaders.Get("Retry-After")
	retryAfter := retryInterval * time.Duration(attempt)

	if retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	zap.L().Warn(
		"Rate limit detected, retrying",
		zap.Int("requestID", requestID),
		zap.Int("attempt", attempt),
		zap.Duration("retryAfter", retryAfter),
	)
	time.Sleep(retryAfter)
}

func (s *Service) purgeExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)
	purged, err := s.rewardRepo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		zap.L().Error("Failed to purge expired reward events", zap.Error(err))
		return
	}
	if purged > 0 {
		zap.L().Info("Purged expired reward events", zap.Int64("count", purged))
	}
}
