package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowclone/internal/config"
	"snowclone/internal/domain"
	"snowclone/internal/testutil"
)

func TestRouter_AuthRequired(t *testing.T) {
	history := &testutil.MockRunHistory{
		RecentRunsFn: func(_ context.Context, _ int) ([]domain.RunRecord, error) {
			return nil, nil
		},
	}
	cfg := &config.Config{
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
		Auth: config.AuthConfig{
			APIKeys:      []string{"secret-key"},
			APIKeyHeader: "X-API-Key",
		},
	}
	router := NewRouter(cfg, &Handler{History: history, Logger: testutil.Logger()})

	t.Run("unauthenticated_v1_rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("api_key_accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
		req.Header.Set("X-API-Key", "secret-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("healthz_stays_public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("responses_carry_request_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}
