package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumeahq/lumea/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareValidKey(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	handler := auth.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard", nil)
	req.Header.Set(AuthHeaderName, "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareQueryParamFallback(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	handler := auth.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard?api_key=secret", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{Enabled: true, MasterKey: "secret"}, zap.NewNop())
	handler := auth.Handler(okHandler())

	tests := []struct {
		name string
		key  string
	}{
		{"missing key", ""},
		{"wrong key", "not-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard", nil)
			if tt.key != "" {
				req.Header.Set(AuthHeaderName, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{
		Enabled:   true,
		MasterKey: "secret",
		SkipPaths: []string{"/health", "/r/"},
	}, zap.NewNop())
	handler := auth.Handler(okHandler())

	for _, path := range []string{"/health", "/r/abc123"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	auth := NewAuthMiddleware(config.AuthConfig{Enabled: false}, zap.NewNop())
	handler := auth.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareGlobal(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2}, zap.NewNop(), nil)
	handler := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestRateLimitMiddlewarePerIPIsolation(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 10, Burst: 1}, zap.NewNop(), nil)
	handler := rl.HandlerPerIP(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/r/abc123", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	// A different client keeps its own bucket.
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestRateLimitCleanupResetsIPBuckets(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 10, Burst: 1}, zap.NewNop(), nil)
	handler := rl.HandlerPerIP(okHandler())

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/r/abc123", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// Cleanup drops the accumulated buckets, so the client starts fresh.
	rl.CleanupIPLimiters()
	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false}, zap.NewNop(), nil)
	handler := rl.Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agencies/ag-1/dashboard", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{}, zap.NewNop(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", rl.getClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", rl.getClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.11:51234"
	assert.Equal(t, "203.0.113.11", rl.getClientIP(req))
}

func TestRecoveryMiddleware(t *testing.T) {
	rec := NewRecoveryMiddleware(zap.NewNop())
	handler := rec.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
