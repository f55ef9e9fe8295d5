package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("requests within the burst pass", func(t *testing.T) {
		limiter := NewKeyLimiter(1, 2)
		handler := RateLimitMiddleware(limiter)(next)

		for i := 0; i < 2; i++ {
			r := httptest.NewRequest(http.MethodPost, "/api/rewards/callback", nil)
			r.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("burst exhaustion returns 429", func(t *testing.T) {
		limiter := NewKeyLimiter(1, 1)
		handler := RateLimitMiddleware(limiter)(next)

		r := httptest.NewRequest(http.MethodPost, "/api/rewards/callback", nil)
		r.RemoteAddr = "10.0.0.2:1234"

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("callers are limited per address", func(t *testing.T) {
		limiter := NewKeyLimiter(1, 1)
		handler := RateLimitMiddleware(limiter)(next)

		first := httptest.NewRequest(http.MethodPost, "/api/rewards/callback", nil)
		first.RemoteAddr = "10.0.0.3:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, first)
		assert.Equal(t, http.StatusOK, w.Code)

		second := httptest.NewRequest(http.MethodPost, "/api/rewards/callback", nil)
		second.RemoteAddr = "10.0.0.4:1234"
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, second)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
