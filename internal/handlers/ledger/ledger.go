package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harvestmoney/bountyledger/internal/domain"
	"github.com/harvestmoney/bountyledger/internal/dto"
	ledgerservice "github.com/harvestmoney/bountyledger/internal/service/ledgerservice"
	"github.com/harvestmoney/bountyledger/pkg/auth"
	"github.com/harvestmoney/bountyledger/pkg/utils"
)

type Service interface {
	GetAccount(ctx context.Context, userID int) (*domain.Account, error)
	RequestWithdrawal(ctx context.Context, userID int, method, accountIdentifier string) (*domain.Withdrawal, error)
	GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	Resolve(ctx context.Context, requestID int, outcome string) (*domain.Withdrawal, error)
	UpdatePayoutIdentifiers(ctx context.Context, userID int, binanceID, payeerID string) (*domain.Account, error)
}

const maxIdentifierLength = 128

type LedgerHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// GetBalance godoc
//
//	@Summary		Get current points balance
//	@Description	Retrieve the current points balance for the authenticated user.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current points balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	account, err := h.ledgerService.GetAccount(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Points: account.PointsBalance,
	})
}

// Withdraw godoc
//
//	@Summary		Request a cash payout
//	@Description	Debit the fixed withdrawal unit from the user's points and create a pending payout request.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawRequestDTO	true	"Withdrawal request payload"
//	@Success		200		{object}	dto.WithdrawalResponseDTO	"Created withdrawal request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		409		{object}	utils.Response	"Pending withdrawal already exists"
//	@Failure		422		{object}	utils.Response	"Invalid payout method or account"
//	@Failure		429		{object}	utils.Response	"Withdrawal cooldown active"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance/withdraw [post]
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Method != ledgerservice.MethodBinance && req.Method != ledgerservice.MethodPayeer {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid payout method")
		return
	}
	if len(req.Account) > maxIdentifierLength {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Account identifier too long")
		return
	}

	withdrawal, err := h.ledgerService.RequestWithdrawal(r.Context(), userID, req.Method, req.Account)
	if err != nil {
		switch {
		case errors.Is(err, ledgerservice.ErrInvalidAccount):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ledgerservice.ErrInsufficientBalance):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, ledgerservice.ErrPendingExists):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ledgerservice.ErrCooldownActive):
			utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWithdrawalDTO(withdrawal))
}

// GetWithdrawals godoc
//
//	@Summary		Get withdrawals history
//	@Description	Get the authenticated user's withdrawal requests, newest first.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.WithdrawalResponseDTO	"Withdrawals history"
//	@Success		204	{object}	utils.Response				"Withdrawals not found"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/user/withdrawals [get]
func (h *LedgerHandler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	withdrawals, err := h.ledgerService.GetWithdrawals(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch withdrawals")
		return
	}

	if len(withdrawals) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Withdrawals not found")
		return
	}

	response := make([]dto.WithdrawalResponseDTO, len(withdrawals))
	for i, wd := range withdrawals {
		response[i] = toWithdrawalDTO(&wd)
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ResolveWithdrawal godoc
//
//	@Summary		Resolve a pending withdrawal
//	@Description	Back-office endpoint: transition a pending withdrawal to completed or rejected. Terminal requests never change.
//	@Tags			Admin
//	@Security		AdminAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Withdrawal request id"
//	@Param			request	body		dto.ResolveRequestDTO	true	"Resolution outcome"
//	@Success		200		{object}	dto.WithdrawalResponseDTO	"Updated withdrawal request"
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		404		{object}	utils.Response	"Withdrawal not found"
//	@Failure		409		{object}	utils.Response	"Withdrawal already resolved"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/withdrawals/{id}/resolve [post]
func (h *LedgerHandler) ResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	var req dto.ResolveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Outcome != ledgerservice.CompletedStatus && req.Outcome != ledgerservice.RejectedStatus {
		utils.RespondWithError(w, http.StatusBadRequest, "outcome must be completed or rejected")
		return
	}

	withdrawal, err := h.ledgerService.Resolve(r.Context(), requestID, req.Outcome)
	if err != nil {
		switch {
		case errors.Is(err, ledgerservice.ErrWithdrawalNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ledgerservice.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWithdrawalDTO(withdrawal))
}

// GetProfile godoc
//
//	@Summary		Get payout identifiers
//	@Description	Retrieve the user's saved Binance and Payeer payout identifiers.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.ProfileDTO	"Payout identifiers"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/profile [get]
func (h *LedgerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	account, err := h.ledgerService.GetAccount(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ProfileDTO{
		BinanceID: account.BinanceID,
		PayeerID:  account.PayeerID,
	})
}

// UpdateProfile godoc
//
//	@Summary		Update payout identifiers
//	@Description	Replace the user's saved payout identifiers. Past withdrawal requests keep the identifier they were created with.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ProfileDTO	true	"Payout identifiers"
//	@Success		200		{object}	dto.ProfileDTO	"Updated payout identifiers"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		422		{object}	utils.Response	"Identifier too long"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/profile [put]
func (h *LedgerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.ProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.BinanceID) > maxIdentifierLength || len(req.PayeerID) > maxIdentifierLength {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Account identifier too long")
		return
	}

	account, err := h.ledgerService.UpdatePayoutIdentifiers(r.Context(), userID, req.BinanceID, req.PayeerID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ProfileDTO{
		BinanceID: account.BinanceID,
		PayeerID:  account.PayeerID,
	})
}

func toWithdrawalDTO(wd *domain.Withdrawal) dto.WithdrawalResponseDTO {
	return dto.WithdrawalResponseDTO{
		ID:           wd.ID,
		Method:       wd.Method,
		Account:      wd.AccountIdentifier,
		AmountPoints: wd.AmountPoints,
		AmountUSD:    wd.AmountUSD,
		Status:       wd.Status,
		CreatedAt:    wd.CreatedAt,
		ResolvedAt:   wd.ResolvedAt,
	}
}
