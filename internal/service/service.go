package service

import (
	"github.com/harvestmoney/bountyledger/internal/config"
	"github.com/harvestmoney/bountyledger/internal/handlers/auth"

	pkgauth "github.com/harvestmoney/bountyledger/pkg/auth"

	"github.com/harvestmoney/bountyledger/internal/pg"
	"github.com/harvestmoney/bountyledger/internal/repo"
	authservice "github.com/harvestmoney/bountyledger/internal/service/authservice"
	ledgerservice "github.com/harvestmoney/bountyledger/internal/service/ledgerservice"
)

type Services struct {
	AuthService   auth.Service
	LedgerService *ledgerservice.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, cfg *config.Config) *Services {
	ledgerService := ledgerservice.New(repo.AccountRepo, repo.WithdrawalRepo, repo.RewardRepo, txManager, cfg)
	authService := authservice.New(repo.UserRepo, ledgerService, &pkgauth.HashService{}, &pkgauth.JWTService{})

	return &Services{
		AuthService:   authService,
		LedgerService: ledgerService,
	}
}
