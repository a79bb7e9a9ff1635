package middlewarectx_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
)

type ValidatorMock struct {
	mock.Mock
}

func (m *ValidatorMock) ValidateToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		cookie         string
		setupMock      func(*ValidatorMock)
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name:           "missing Authorization header",
			setupMock:      func(_ *ValidatorMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			setupMock:      func(_ *ValidatorMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "token validation error",
			authHeader: "Bearer token",
			setupMock: func(m *ValidatorMock) {
				m.On("ValidateToken", "token").Return("", errors.New("expired"))
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "valid bearer token",
			authHeader: "Bearer validtoken",
			setupMock: func(m *ValidatorMock) {
				m.On("ValidateToken", "validtoken").Return("admin", nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:   "valid cookie token",
			cookie: "cookietoken",
			setupMock: func(m *ValidatorMock) {
				m.On("ValidateToken", "cookietoken").Return("admin", nil)
			},
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := new(ValidatorMock)
			tt.setupMock(v)

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				username, ok := middlewarectx.Username(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "admin", username)
				assert.Equal(t, tt.wantCookie, middlewarectx.FromCookie(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middlewarectx.CookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(v, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantStatusCode == http.StatusOK, called)
			v.AssertExpectations(t)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewIPRateLimiter(1, 2)
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
}

func TestCSRF(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.CSRF(key, false, nil, newNoopLogger())(next)

	t.Run("bearer requests are not checked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), "admin"))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("cookie post without token is rejected", func(t *testing.T) {
		v := new(ValidatorMock)
		v.On("ValidateToken", "cookietoken").Return("admin", nil)
		chain := middlewarectx.JWTMiddleware(v, newNoopLogger())(h)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: middlewarectx.CookieName, Value: "cookietoken"})
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("cookie get receives token", func(t *testing.T) {
		v := new(ValidatorMock)
		v.On("ValidateToken", "cookietoken").Return("admin", nil)
		chain := middlewarectx.JWTMiddleware(v, newNoopLogger())(h)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middlewarectx.CookieName, Value: "cookietoken"})
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get(middlewarectx.CSRFHeader))
	})

	t.Run("empty key disables protection", func(t *testing.T) {
		off := middlewarectx.CSRF(nil, false, nil, newNoopLogger())(next)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rr := httptest.NewRecorder()
		off.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
