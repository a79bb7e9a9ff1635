package logout

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
)

type SessionMock struct {
	mock.Mock
}

func (m *SessionMock) Logout(username string)    { m.Called(username) }
func (m *SessionMock) DiscardOwner(owner string) { m.Called(owner) }

func TestLogoutHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("clears session", func(t *testing.T) {
		s := new(SessionMock)
		s.On("Logout", "admin").Once()
		s.On("DiscardOwner", "admin").Once()

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), "admin"))
		rec := httptest.NewRecorder()
		New(logger, s, s).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middlewarectx.CookieName, cookies[0].Name)
		assert.Negative(t, cookies[0].MaxAge)
		s.AssertExpectations(t)
	})

	t.Run("unauthorized", func(t *testing.T) {
		s := new(SessionMock)
		rec := httptest.NewRecorder()
		New(logger, s, s).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		s.AssertNotCalled(t, "Logout", mock.Anything)
	})
}
