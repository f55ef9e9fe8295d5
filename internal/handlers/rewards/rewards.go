package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harvestmoney/bountyledger/internal/dto"
	ledgerservice "github.com/harvestmoney/bountyledger/internal/service/ledgerservice"
	"github.com/harvestmoney/bountyledger/pkg/utils"
)

type Service interface {
	Credit(ctx context.Context, userID int, points int64, impressionID string) (int64, error)
}

type RewardHandler struct {
	ledgerService Service
	defaultPerAd  int64
}

func New(ledgerService Service, defaultPerAd int64) *RewardHandler {
	return &RewardHandler{
		ledgerService: ledgerService,
		defaultPerAd:  defaultPerAd,
	}
}

// Credit godoc
//
//	@Summary		Ad reward callback
//	@Description	Server-side verification callback from the ad network. Credits points for one ad impression; duplicate deliveries for the same impression id never credit twice.
//	@Tags			Rewards
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RewardCallbackRequestDTO	true	"Reward event"
//	@Success		200		{object}	dto.RewardCallbackResponseDTO	"Resulting balance"
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Missing or invalid callback token"
//	@Failure		404		{object}	utils.Response	"Unknown user"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/rewards/callback [post]
func (h *RewardHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req dto.RewardCallbackRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID <= 0 || req.ImpressionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id and impression_id are required")
		return
	}

	points := req.AmountPoints
	if points <= 0 {
		points = h.defaultPerAd
	}

	balance, err := h.ledgerService.Credit(r.Context(), req.UserID, points, req.ImpressionID)
	if err != nil {
		if errors.Is(err, ledgerservice.ErrAccountNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.RewardCallbackResponseDTO{
		Balance: balance,
	})
}
