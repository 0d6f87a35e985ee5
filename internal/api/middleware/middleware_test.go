package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assembly-qc/config"
	"assembly-qc/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock 依赖 ──

type mockBlacklist struct {
	revoked map[string]bool
	err     error
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type mockLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allowed, m.err
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: time.Hour,
	})
}

func serveWithToken(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// JWTAuth
// ═══════════════════════════════════════════════════════════

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("user-1", "nguyenvana", "Nguyen Van A", "operator")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, _ := mgr.ParseToken(token)

	tests := []struct {
		name      string
		header    string
		blacklist BlacklistChecker
		want      int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, nil, http.StatusUnauthorized},
		{"invalid token", "Bearer not-a-token", nil, http.StatusUnauthorized},
		{"valid without blacklist", "Bearer " + token, nil, http.StatusOK},
		{"revoked", "Bearer " + token, &mockBlacklist{revoked: map[string]bool{claims.ID: true}}, http.StatusUnauthorized},
		{"redis down degrades", "Bearer " + token, &mockBlacklist{err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWTAuth(mgr, tt.blacklist, zap.NewNop()), func(c *gin.Context) {
				if c.GetString(CtxUserID) != "user-1" || c.GetString(CtxFullName) != "Nguyen Van A" {
					t.Error("identity not injected")
				}
				if c.GetString(CtxTokenJTI) == "" || c.GetTime(CtxTokenExp).IsZero() {
					t.Error("token jti/exp not injected")
				}
				c.Status(http.StatusOK)
			})

			w := serveWithToken(r, "/me", tt.header)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RoleAuth
// ═══════════════════════════════════════════════════════════

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"operator", http.StatusForbidden},
		{"inspector", http.StatusOK},
		{"admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r := gin.New()
			r.GET("/rework", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(CtxRole, tt.role)
				}
				c.Next()
			}, RoleAuth("inspector", "admin"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			if w := serveWithToken(r, "/rework", ""); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusCreated) }

	t.Run("allowed keyed by user", func(t *testing.T) {
		limiter := &mockLimiter{allowed: true}
		r := gin.New()
		r.POST("/qc/logs", func(c *gin.Context) { c.Set(CtxUserID, "op-1"); c.Next() }, RateLimit(limiter, 10, time.Minute), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/qc/logs", nil))
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", w.Code)
		}
		if len(limiter.keys) != 1 || limiter.keys[0] != "qc:rate_limit:op-1:/qc/logs" {
			t.Errorf("unexpected key %v", limiter.keys)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		r := gin.New()
		r.POST("/qc/logs", RateLimit(&mockLimiter{allowed: false}, 10, time.Minute), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/qc/logs", nil))
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", w.Code)
		}
	})

	t.Run("limiter error degrades", func(t *testing.T) {
		r := gin.New()
		r.POST("/qc/logs", RateLimit(&mockLimiter{err: errors.New("redis down")}, 10, time.Minute), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/qc/logs", nil))
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", w.Code)
		}
	})

	t.Run("nil limiter", func(t *testing.T) {
		r := gin.New()
		r.POST("/qc/logs", RateLimit(nil, 10, time.Minute), ok)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/qc/logs", nil))
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", w.Code)
		}
	})
}

// ═══════════════════════════════════════════════════════════
// RequestID
// ═══════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "terminal-7")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "terminal-7" || w.Body.String() != "terminal-7" {
		t.Errorf("incoming request id should be kept, got %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("oversized id should be replaced with uuid, got %q", got)
	}

	for _, bad := range []string{"line 3", "a\tb", "scan#42", "工位-1"} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Request-ID", bad)
		r.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); got == bad || len(got) != 36 {
			t.Errorf("id %q should be replaced with uuid, got %q", bad, got)
		}
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "L2.st-04:0815_a")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "L2.st-04:0815_a" {
		t.Errorf("id with allowed punctuation should be kept, got %q", got)
	}
}
