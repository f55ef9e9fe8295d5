package ledgerservice

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harvestmoney/bountyledger/internal/config"
	"github.com/harvestmoney/bountyledger/internal/domain"
	"github.com/harvestmoney/bountyledger/internal/pg"
)

type AccountRepo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.Account, error)
	GetForUpdate(ctx context.Context, userID int) (*domain.Account, error)
	Create(ctx context.Context, userID int) (*domain.Account, error)
	AddToBalance(ctx context.Context, userID int, delta int64) (int64, error)
	UpdatePayoutIdentifiers(ctx context.Context, userID int, binanceID, payeerID string) (*domain.Account, error)
}

type WithdrawalRepo interface {
	Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id int) (*domain.Withdrawal, error)
	GetWithdrawalsByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	FindPendingByUserID(ctx context.Context, userID int) (*domain.Withdrawal, error)
	FindLatestByUserID(ctx context.Context, userID int) (*domain.Withdrawal, error)
	Resolve(ctx context.Context, id int, status string, resolvedAt time.Time) (*domain.Withdrawal, error)
}

type RewardRepo interface {
	InsertEvent(ctx context.Context, event *domain.RewardEvent) (bool, error)
}

const (
	// PendingStatus awaits a back-office decision;
	PendingStatus string = "pending"
	// CompletedStatus payout was made;
	CompletedStatus string = "completed"
	// RejectedStatus payout was declined, debited points stay debited;
	RejectedStatus string = "rejected"
)

const (
	MethodBinance string = "Binance"
	MethodPayeer  string = "Payeer"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAccount      = errors.New("please enter your account details")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPendingExists       = errors.New("you have a pending withdrawal")
	ErrCooldownActive      = errors.New("only one withdrawal per cooldown period")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInvalidTransition   = errors.New("withdrawal already resolved")
)

// Service owns the points balance and the withdrawal state machine. It is the
// only writer of points_balance and withdrawal status; every mutation runs in
// a transaction that first locks the account row, so operations for one user
// are mutually exclusive while different users proceed concurrently.
type Service struct {
	accountRepo    AccountRepo
	withdrawalRepo WithdrawalRepo
	rewardRepo     RewardRepo
	txManager      pg.TXManager
	cfg            *config.Config
}

func New(accountRepo AccountRepo, withdrawalRepo WithdrawalRepo, rewardRepo RewardRepo, txManager pg.TXManager, cfg *config.Config) *Service {
	return &Service{
		accountRepo:    accountRepo,
		withdrawalRepo: withdrawalRepo,
		rewardRepo:     rewardRepo,
		txManager:      txManager,
		cfg:            cfg,
	}
}

func (s *Service) CreateAccount(ctx context.Context, userID int) (*domain.Account, error) {
	account, err := s.accountRepo.Create(ctx, userID)
	if err != nil {
		zap.L().Error("failed to create account", zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, userID int) (*domain.Account, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get account", zap.Error(err))
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Credit adds points earned from one ad impression. Replaying an already
// consumed impression id leaves the balance untouched and returns its current
// value, so duplicate reward callbacks from the ad network are harmless.
func (s *Service) Credit(ctx context.Context, userID int, points int64, impressionID string) (int64, error) {
	if points <= 0 {
		return 0, errors.New("credit amount must be positive")
	}
	if impressionID == "" {
		return 0, errors.New("impression id must not be empty")
	}

	var balance int64
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}

		inserted, err := s.rewardRepo.InsertEvent(ctx, &domain.RewardEvent{
			ImpressionID: impressionID,
			UserID:       userID,
			AmountPoints: points,
			CreditedAt:   time.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			zap.L().Info("duplicate reward callback ignored", zap.String("impressionID", impressionID), zap.Int("userID", userID))
			balance = account.PointsBalance
			return nil
		}

		balance, err = s.accountRepo.AddToBalance(ctx, userID, points)
		return err
	})
	if err != nil {
		zap.L().Error("failed to credit points", zap.Error(err))
		return 0, err
	}
	return balance, nil
}

// RequestWithdrawal checks the payout guards in a fixed order (the first
// failure is the one the user sees) and, on success, debits the withdrawal
// unit and inserts the pending request as one atomic unit.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int, method, accountIdentifier string) (*domain.Withdrawal, error) {
	if accountIdentifier == "" {
		return nil, ErrInvalidAccount
	}

	var created *domain.Withdrawal
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}

		if account.PointsBalance < s.cfg.MinWithdrawalPoints {
			return ErrInsufficientBalance
		}

		pending, err := s.withdrawalRepo.FindPendingByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if pending != nil {
			return ErrPendingExists
		}

		latest, err := s.withdrawalRepo.FindLatestByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if latest != nil && time.Since(latest.CreatedAt) < s.cfg.Cooldown() {
			return ErrCooldownActive
		}

		if _, err := s.accountRepo.AddToBalance(ctx, userID, -s.cfg.WithdrawalUnitPoints); err != nil {
			return err
		}

		created, err = s.withdrawalRepo.Create(ctx, &domain.Withdrawal{
			UserID:            userID,
			Method:            method,
			AccountIdentifier: accountIdentifier,
			AmountPoints:      s.cfg.WithdrawalUnitPoints,
			AmountUSD:         s.cashValue(s.cfg.WithdrawalUnitPoints),
			Status:            PendingStatus,
			CreatedAt:         time.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("withdrawal requested", zap.Int("userID", userID), zap.String("method", method), zap.Int64("points", created.AmountPoints))
	return created, nil
}

func (s *Service) GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawalRepo.GetWithdrawalsByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

// Resolve is the back-office contract: pending goes to completed or rejected,
// terminal rows never change. A rejected request keeps the debit; points are
// not refunded.
func (s *Service) Resolve(ctx context.Context, requestID int, outcome string) (*domain.Withdrawal, error) {
	if outcome != CompletedStatus && outcome != RejectedStatus {
		return nil, ErrInvalidTransition
	}

	resolved, err := s.withdrawalRepo.Resolve(ctx, requestID, outcome, time.Now())
	if err != nil {
		zap.L().Error("failed to resolve withdrawal", zap.Error(err))
		return nil, err
	}
	if resolved != nil {
		zap.L().Info("withdrawal resolved", zap.Int("requestID", requestID), zap.String("outcome", outcome))
		return resolved, nil
	}

	existing, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrWithdrawalNotFound
	}
	zap.L().Error("attempted transition from terminal status",
		zap.Int("requestID", requestID), zap.String("status", existing.Status), zap.String("outcome", outcome))
	return nil, ErrInvalidTransition
}

func (s *Service) UpdatePayoutIdentifiers(ctx context.Context, userID int, binanceID, payeerID string) (*domain.Account, error) {
	account, err := s.accountRepo.UpdatePayoutIdentifiers(ctx, userID, binanceID, payeerID)
	if err != nil {
		zap.L().Error("failed to update payout identifiers", zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *Service) cashValue(points int64) string {
	return decimal.NewFromInt(points).
		Div(decimal.NewFromInt(s.cfg.PointsPerDollar)).
		StringFixed(2)
}
