package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_DisabledPassesThrough(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{Enabled: false}, zap.NewNop())
	w := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_MissingKey(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	w := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ApiKey", w.Header().Get("WWW-Authenticate"))
}

func TestAuth_ValidHeaderKey(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set(AuthHeaderName, "secret")
	w := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_InvalidKey(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set(AuthHeaderName, "wrong")
	w := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_QueryParamKey(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/agents?api_key=secret", nil)
	w := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_SkipPaths(t *testing.T) {
	mw := NewAuthMiddleware(config.AuthConfig{
		Enabled:   true,
		MasterKey: "secret",
		SkipPaths: []string{"/health", "/events/ingest"},
	}, zap.NewNop())

	for _, path := range []string{"/health", "/events/ingest"} {
		w := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	mw := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false}, zap.NewNop(), nil)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_ManagementTierExhausts(t *testing.T) {
	mw := NewRateLimitMiddleware(config.RateLimitConfig{
		Enabled:     true,
		IngestRPS:   1000,
		IngestBurst: 100,
		MgmtRPS:     1,
		MgmtBurst:   1,
	}, zap.NewNop(), nil)

	h := mw.Handler(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimit_IngestTierSeparateBucket(t *testing.T) {
	mw := NewRateLimitMiddleware(config.RateLimitConfig{
		Enabled:     true,
		IngestRPS:   1000,
		IngestBurst: 100,
		MgmtRPS:     1,
		MgmtBurst:   1,
	}, zap.NewNop(), nil)

	h := mw.Handler(okHandler())

	// Exhaust the management bucket.
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/agents", nil))
	}

	// Ingest keeps flowing.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/ingest", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	mw := NewRecoveryMiddleware(zap.NewNop())
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogging_PreservesStatus(t *testing.T) {
	mw := NewLoggingMiddleware(zap.NewNop(), nil)
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger, err := NewLogger(level, "json")
		assert.NoError(t, err)
		assert.NotNil(t, logger)
	}

	logger, err := NewLogger("info", "console")
	assert.NoError(t, err)
	assert.NotNil(t, logger)
}
