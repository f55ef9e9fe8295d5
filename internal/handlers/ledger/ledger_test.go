package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/harvestmoney/bountyledger/internal/domain"
	"github.com/harvestmoney/bountyledger/internal/dto"
	ledgerservice "github.com/harvestmoney/bountyledger/internal/service/ledgerservice"
	"github.com/harvestmoney/bountyledger/pkg/auth"
)

func NewMock(t *testing.T) (*LedgerHandler, *MockService) {
	ctrl := gomock.NewController(t)
	mockService := NewMockService(ctrl)
	handler := New(mockService)
	defer ctrl.Finish()
	return handler, mockService
}

func TestGetBalance(t *testing.T) {
	handler, mockService := NewMock(t)

	tests := []struct {
		name           string
		prepareMock    func()
		expectedStatus int
		expectedBody   dto.BalanceResponseDTO
	}{
		{
			name: "Successful balance retrieval",
			prepareMock: func() {
				mockService.EXPECT().GetAccount(gomock.Any(), 1).Return(&domain.Account{
					UserID:        1,
					PointsBalance: 1250,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   dto.BalanceResponseDTO{Points: 1250},
		},
		{
			name: "Service error",
			prepareMock: func() {
				mockService.EXPECT().GetAccount(gomock.Any(), 1).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
			r = r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, 1))
			w := httptest.NewRecorder()

			handler.GetBalance(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body dto.BalanceResponseDTO
				err := json.NewDecoder(w.Body).Decode(&body)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	handler, mockService := NewMock(t)

	createdAt := time.Now()

	tests := []struct {
		name           string
		body           string
		prepareMock    func()
		expectedStatus int
	}{
		{
			name: "Successful withdrawal request",
			body: `{"method":"Binance","account":"abc123"}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "abc123").Return(&domain.Withdrawal{
					ID:                17,
					UserID:            1,
					Method:            "Binance",
					AccountIdentifier: "abc123",
					AmountPoints:      1000,
					AmountUSD:         "1.00",
					Status:            "pending",
					CreatedAt:         createdAt,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid request body",
			body:           `{invalid`,
			prepareMock:    func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown payout method",
			body:           `{"method":"PayPal","account":"abc123"}`,
			prepareMock:    func() {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Empty account identifier",
			body: `{"method":"Binance","account":""}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "").Return(nil, ledgerservice.ErrInvalidAccount)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Insufficient balance",
			body: `{"method":"Binance","account":"abc123"}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "abc123").Return(nil, ledgerservice.ErrInsufficientBalance)
			},
			expectedStatus: http.StatusPaymentRequired,
		},
		{
			name: "Pending withdrawal exists",
			body: `{"method":"Binance","account":"abc123"}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "abc123").Return(nil, ledgerservice.ErrPendingExists)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Cooldown active",
			body: `{"method":"Binance","account":"abc123"}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "abc123").Return(nil, ledgerservice.ErrCooldownActive)
			},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name: "Service error",
			body: `{"method":"Binance","account":"abc123"}`,
			prepareMock: func() {
				mockService.EXPECT().RequestWithdrawal(gomock.Any(), 1, "Binance", "abc123").Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPost, "/api/user/balance/withdraw", bytes.NewBufferString(tt.body))
			r = r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, 1))
			w := httptest.NewRecorder()

			handler.Withdraw(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body dto.WithdrawalResponseDTO
				err := json.NewDecoder(w.Body).Decode(&body)
				assert.NoError(t, err)
				assert.Equal(t, 17, body.ID)
				assert.Equal(t, "1.00", body.AmountUSD)
				assert.Equal(t, "pending", body.Status)
			}
		})
	}
}

func TestGetWithdrawals(t *testing.T) {
	handler, mockService := NewMock(t)

	now := time.Now()

	tests := []struct {
		name           string
		prepareMock    func()
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "History with entries",
			prepareMock: func() {
				mockService.EXPECT().GetWithdrawals(gomock.Any(), 1).Return([]domain.Withdrawal{
					{ID: 2, UserID: 1, Method: "Payeer", AmountPoints: 1000, AmountUSD: "1.00", Status: "pending", CreatedAt: now},
					{ID: 1, UserID: 1, Method: "Binance", AmountPoints: 1000, AmountUSD: "1.00", Status: "completed", CreatedAt: now.Add(-48 * time.Hour)},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "Empty history",
			prepareMock: func() {
				mockService.EXPECT().GetWithdrawals(gomock.Any(), 1).Return(nil, nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "Service error",
			prepareMock: func() {
				mockService.EXPECT().GetWithdrawals(gomock.Any(), 1).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodGet, "/api/user/withdrawals", nil)
			r = r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, 1))
			w := httptest.NewRecorder()

			handler.GetWithdrawals(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body []dto.WithdrawalResponseDTO
				err := json.NewDecoder(w.Body).Decode(&body)
				assert.NoError(t, err)
				assert.Len(t, body, tt.expectedCount)
				assert.Equal(t, 2, body[0].ID)
			}
		})
	}
}

func TestResolveWithdrawal(t *testing.T) {
	handler, mockService := NewMock(t)

	resolvedAt := time.Now()

	tests := []struct {
		name           string
		id             string
		body           string
		prepareMock    func()
		expectedStatus int
	}{
		{
			name: "Pending request completes",
			id:   "17",
			body: `{"outcome":"completed"}`,
			prepareMock: func() {
				mockService.EXPECT().Resolve(gomock.Any(), 17, "completed").Return(&domain.Withdrawal{
					ID:         17,
					Status:     "completed",
					ResolvedAt: &resolvedAt,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Non-numeric id",
			id:             "abc",
			body:           `{"outcome":"completed"}`,
			prepareMock:    func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown outcome",
			id:             "17",
			body:           `{"outcome":"refunded"}`,
			prepareMock:    func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Withdrawal not found",
			id:   "99",
			body: `{"outcome":"completed"}`,
			prepareMock: func() {
				mockService.EXPECT().Resolve(gomock.Any(), 99, "completed").Return(nil, ledgerservice.ErrWithdrawalNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Already resolved",
			id:   "17",
			body: `{"outcome":"rejected"}`,
			prepareMock: func() {
				mockService.EXPECT().Resolve(gomock.Any(), 17, "rejected").Return(nil, ledgerservice.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals/"+tt.id+"/resolve", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			handler.ResolveWithdrawal(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetProfile(t *testing.T) {
	handler, mockService := NewMock(t)

	mockService.EXPECT().GetAccount(gomock.Any(), 1).Return(&domain.Account{
		UserID:    1,
		BinanceID: "abc123",
		PayeerID:  "P1234567",
	}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	r = r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, 1))
	w := httptest.NewRecorder()

	handler.GetProfile(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var body dto.ProfileDTO
	err := json.NewDecoder(w.Body).Decode(&body)
	assert.NoError(t, err)
	assert.Equal(t, dto.ProfileDTO{BinanceID: "abc123", PayeerID: "P1234567"}, body)
}

func TestUpdateProfile(t *testing.T) {
	handler, mockService := NewMock(t)

	tests := []struct {
		name           string
		body           string
		prepareMock    func()
		expectedStatus int
	}{
		{
			name: "Successful update",
			body: `{"binance_id":"abc123","payeer_id":"P1234567"}`,
			prepareMock: func() {
				mockService.EXPECT().UpdatePayoutIdentifiers(gomock.Any(), 1, "abc123", "P1234567").Return(&domain.Account{
					UserID:    1,
					BinanceID: "abc123",
					PayeerID:  "P1234567",
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid request body",
			body:           `{invalid`,
			prepareMock:    func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Service error",
			body: `{"binance_id":"abc123","payeer_id":""}`,
			prepareMock: func() {
				mockService.EXPECT().UpdatePayoutIdentifiers(gomock.Any(), 1, "abc123", "").Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPut, "/api/user/profile", bytes.NewBufferString(tt.body))
			r = r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, 1))
			w := httptest.NewRecorder()

			handler.UpdateProfile(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
