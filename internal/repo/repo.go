package repo

import (
	"github.com/harvestmoney/bountyledger/internal/notifier"
	"github.com/harvestmoney/bountyledger/internal/pg"
	accountrepo "github.com/harvestmoney/bountyledger/internal/repo/account-repo"
	rewardrepo "github.com/harvestmoney/bountyledger/internal/repo/reward-repo"
	userrepo "github.com/harvestmoney/bountyledger/internal/repo/user-repo"
	withdrawalrepo "github.com/harvestmoney/bountyledger/internal/repo/withdrawal-repo"
	"github.com/harvestmoney/bountyledger/internal/service/authservice"
	"github.com/harvestmoney/bountyledger/internal/service/ledgerservice"
)

type Repositories struct {
	UserRepo       authservice.Repo
	AccountRepo    ledgerservice.AccountRepo
	WithdrawalRepo ledgerservice.WithdrawalRepo
	RewardRepo     ledgerservice.RewardRepo

	// The same withdrawal/reward repositories, seen through the notifier's
	// narrower interfaces.
	PayoutQueue  notifier.WithdrawalRepo
	RewardPurger notifier.RewardRepo
}

func New(conn pg.Database) *Repositories {
	userRepo := userrepo.New(conn)
	accountRepo := accountrepo.New(conn)
	withdrawalRepo := withdrawalrepo.New(conn)
	rewardRepo := rewardrepo.New(conn)

	return &Repositories{
		UserRepo:       userRepo,
		AccountRepo:    accountRepo,
		WithdrawalRepo: withdrawalRepo,
		RewardRepo:     rewardRepo,
		PayoutQueue:    withdrawalRepo,
		RewardPurger:   rewardRepo,
	}
}
