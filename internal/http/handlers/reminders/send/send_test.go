package send

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SendReminder(ctx context.Context, userID int64) (models.ReminderStatus, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.ReminderStatus), args.Error(1)
}

// fakeViews запоминает последнее всплывающее сообщение.
type fakeViews struct {
	closed int
	kind   viewstate.FlashKind
}

func (f *fakeViews) Flash(_, _ string, kind viewstate.FlashKind) viewstate.State {
	f.kind = kind
	return viewstate.State{}
}

func (f *fakeViews) CloseModal(string) viewstate.State {
	f.closed++
	return viewstate.State{}
}

func request(id string, user bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/reminders/"+id+"/send", nil)
	ctx := req.Context()
	if user {
		ctx = middlewarectx.WithUser(ctx, "admin")
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestSendHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sent", func(t *testing.T) {
		m, v := new(MockService), &fakeViews{}
		m.On("SendReminder", mock.Anything, int64(5)).Return(models.ReminderStatus{Status: "Reminder sent"}, nil)
		rec := httptest.NewRecorder()

		New(logger, m, v).ServeHTTP(rec, request("5", true))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"Reminder sent"`)
		assert.Equal(t, viewstate.FlashSuccess, v.kind)
		assert.Equal(t, 1, v.closed)
	})

	t.Run("backend failure", func(t *testing.T) {
		m, v := new(MockService), &fakeViews{}
		m.On("SendReminder", mock.Anything, int64(5)).Return(models.ReminderStatus{}, errors.New("smtp"))
		rec := httptest.NewRecorder()

		New(logger, m, v).ServeHTTP(rec, request("5", true))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, viewstate.FlashError, v.kind)
	})

	t.Run("unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(logger, new(MockService), &fakeViews{}).ServeHTTP(rec, request("5", false))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
