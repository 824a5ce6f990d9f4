package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestNewLogger(t *testing.T) {
	for _, tc := range []struct{ level, format string }{
		{"debug", "console"}, {"info", "json"}, {"warn", "json"}, {"error", "console"}, {"bogus", ""},
	} {
		l, err := NewLogger(tc.level, tc.format)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewRecoveryMiddleware(zap.NewNop()).Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	h := NewLoggingMiddleware(zap.NewNop(), nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRoute(t *testing.T) {
	assert.Equal(t, "/analyses", Route("/analyses/3f2a/brief"))
	assert.Equal(t, "/analyses", Route("/analyses"))
	assert.Equal(t, "/health", Route("/health"))
	assert.Equal(t, "/", Route("/"))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, MasterKey: "secret", SkipPaths: []string{"/health", "/metrics"}}
	h := NewAuthMiddleware(cfg, zap.NewNop()).Handler(okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"skip path", "/health", "", http.StatusOK},
		{"skip subpath", "/metrics/extra", "", http.StatusOK},
		{"prefix is not a skip", "/healthz", "", http.StatusUnauthorized},
		{"missing key", "/analyses", "", http.StatusUnauthorized},
		{"wrong key", "/analyses", "nope", http.StatusUnauthorized},
		{"valid header", "/analyses", "secret", http.StatusOK},
		{"valid query", "/analyses?api_key=secret", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	disabled := NewAuthMiddleware(config.AuthConfig{}, zap.NewNop()).Handler(okHandler)
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyses", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 8}, zap.NewNop(), nil)
	h := rl.Handler(okHandler)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/analyses", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Each client gets a burst of 8/4 = 2.
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	h := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 0}, zap.NewNop(), nil).Handler(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitMiddleware_CleanupClients(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 10, Burst: 10}, zap.NewNop(), nil)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.clientLimiter("a")
	now = now.Add(time.Hour)
	rl.clientLimiter("b")

	assert.Equal(t, 1, rl.CleanupClients(30*time.Minute))
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "b")
}

func TestClientIP(t *testing.T) {
	proxies, err := config.RateLimitConfig{TrustedProxies: []string{"10.0.0.0/8"}}.TrustedPrefixes()
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted []netip.Prefix
		want    string
	}{
		{"direct peer", "192.0.2.1:1234", "", "", nil, "192.0.2.1"},
		{"headers ignored without trusted proxies", "192.0.2.1:1234", "203.0.113.5", "198.51.100.7", nil, "192.0.2.1"},
		{"headers ignored from untrusted peer", "192.0.2.1:1234", "203.0.113.5", "", proxies, "192.0.2.1"},
		{"trusted proxy forwards client", "10.0.0.2:80", "203.0.113.5", "", proxies, "203.0.113.5"},
		{"spoofed leading hop skipped", "10.0.0.2:80", "1.2.3.4, 203.0.113.5, 10.0.0.9", "", proxies, "203.0.113.5"},
		{"real ip from trusted proxy", "10.0.0.2:80", "", "198.51.100.7", proxies, "198.51.100.7"},
		{"all hops trusted", "10.0.0.2:80", "10.1.1.1, 10.0.0.9", "", proxies, "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trusted))
		})
	}
}

func TestRateLimitMiddleware_RotatingForwardedFor(t *testing.T) {
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 4}, zap.NewNop(), nil)
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/analyses", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
