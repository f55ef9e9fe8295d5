package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	jwtService := &JWTService{}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(int)
		assert.True(t, ok)
		assert.Equal(t, 123, userID)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		authHeader     func() string
		expectedStatus int
	}{
		{
			name: "Valid bearer token",
			authHeader: func() string {
				token, _ := jwtService.GenerateJWT(123, time.Now().Add(time.Hour))
				return "Bearer " + token
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing header",
			authHeader:     func() string { return "" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing bearer prefix",
			authHeader:     func() string { return "some-token" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Expired token",
			authHeader: func() string {
				token, _ := jwtService.GenerateJWT(123, time.Now().Add(-time.Hour))
				return "Bearer " + token
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
			if header := tt.authHeader(); header != "" {
				r.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(next).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestTokenMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		token          string
		headerValue    string
		expectedStatus int
	}{
		{
			name:           "Matching token",
			token:          "shared-secret",
			headerValue:    "shared-secret",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Matching token with bearer prefix",
			token:          "shared-secret",
			headerValue:    "Bearer shared-secret",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Wrong token",
			token:          "shared-secret",
			headerValue:    "other-secret",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing header",
			token:          "shared-secret",
			headerValue:    "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Route locked when no token configured",
			token:          "",
			headerValue:    "",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/rewards/callback", nil)
			if tt.headerValue != "" {
				r.Header.Set("X-Callback-Token", tt.headerValue)
			}
			w := httptest.NewRecorder()

			TokenMiddleware("X-Callback-Token", tt.token)(next).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
