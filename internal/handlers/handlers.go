package handlers

import (
	"net/http"

	_ "github.com/harvestmoney/bountyledger/docs"
	"github.com/harvestmoney/bountyledger/internal/config"
	authhandlers "github.com/harvestmoney/bountyledger/internal/handlers/auth"
	ledgerhandlers "github.com/harvestmoney/bountyledger/internal/handlers/ledger"
	rewardhandlers "github.com/harvestmoney/bountyledger/internal/handlers/rewards"
	mw "github.com/harvestmoney/bountyledger/internal/middleware"
	"github.com/harvestmoney/bountyledger/internal/service"
	"github.com/harvestmoney/bountyledger/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type LedgerHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetWithdrawals(w http.ResponseWriter, r *http.Request)
	ResolveWithdrawal(w http.ResponseWriter, r *http.Request)
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

type RewardHandler interface {
	Credit(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler   AuthHandler
	LedgerHandler LedgerHandler
	RewardHandler RewardHandler

	cfg *config.Config
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		AuthHandler:   authhandlers.New(s.AuthService),
		LedgerHandler: ledgerhandlers.New(s.LedgerService),
		RewardHandler: rewardhandlers.New(s.LedgerService, cfg.RewardPointsPerAd),
		cfg:           cfg,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware)
			r.Route("/balance", func(r chi.Router) {
				r.Get("/", h.LedgerHandler.GetBalance)
				r.Post("/withdraw", h.LedgerHandler.Withdraw)
			})
			r.Get("/withdrawals", h.LedgerHandler.GetWithdrawals)
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", h.LedgerHandler.GetProfile)
				r.Put("/", h.LedgerHandler.UpdateProfile)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(
			mw.RateLimitMiddleware(mw.NewKeyLimiter(10, 20)),
			auth.TokenMiddleware("X-Callback-Token", h.cfg.CallbackToken),
		)
		r.Post("/api/rewards/callback", h.RewardHandler.Credit)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.TokenMiddleware("Authorization", h.cfg.AdminToken))
		r.Post("/api/admin/withdrawals/{id}/resolve", h.LedgerHandler.ResolveWithdrawal)
	})

	return r
}
