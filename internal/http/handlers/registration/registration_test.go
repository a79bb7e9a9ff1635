package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/registration"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Start(owner string) registration.Wizard {
	return m.Called(owner).Get(0).(registration.Wizard)
}

func (m *MockService) Get(owner, id string) (registration.Wizard, error) {
	args := m.Called(owner, id)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) Step(ctx context.Context, owner, id string, u registration.Update) (registration.Wizard, error) {
	args := m.Called(ctx, owner, id, u)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) Prev(owner, id string) (registration.Wizard, error) {
	args := m.Called(owner, id)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) GoTo(owner, id string, step int) (registration.Wizard, error) {
	args := m.Called(owner, id, step)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) SetPicture(owner, id string, p models.ProfilePicture) (registration.Wizard, error) {
	args := m.Called(owner, id, p)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) Submit(ctx context.Context, owner, id string) (registration.Wizard, error) {
	args := m.Called(ctx, owner, id)
	return args.Get(0).(registration.Wizard), args.Error(1)
}

func (m *MockService) Discard(owner, id string) {
	m.Called(owner, id)
}

func newHandler(m *MockService) *Handler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), m, 1024)
}

func request(method, target string, body io.Reader, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := middlewarectx.WithUser(req.Context(), "admin")
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

type envelope struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
	Data   map[string]any    `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestStart(t *testing.T) {
	m := new(MockService)
	m.On("Start", "admin").Return(registration.Wizard{ID: "w1", Step: registration.StepPersonal})
	rec := httptest.NewRecorder()

	newHandler(m).Start(rec, request(http.MethodPost, "/registrations", nil, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "w1", env.Data["id"])
	assert.Equal(t, "Personal Info", env.Data["stepName"])
	assert.InDelta(t, 0, env.Data["progress"], 0)
}

func TestStep(t *testing.T) {
	name := "Ravi Kumar"

	t.Run("advances", func(t *testing.T) {
		m := new(MockService)
		m.On("Step", mock.Anything, "admin", "w1", registration.Update{FullName: &name}).
			Return(registration.Wizard{ID: "w1", Step: registration.StepPicture}, nil)
		rec := httptest.NewRecorder()

		newHandler(m).Step(rec, request(http.MethodPut, "/registrations/w1/step",
			bytes.NewBufferString(`{"fullName":"Ravi Kumar"}`), map[string]string{"id": "w1"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decode(t, rec)
		assert.InDelta(t, 25, env.Data["progress"], 0.001)
		m.AssertExpectations(t)
	})

	t.Run("validation keeps input", func(t *testing.T) {
		m := new(MockService)
		verr := &registration.ValidationError{Step: 1, Fields: map[string]string{"email": "email is required"}}
		m.On("Step", mock.Anything, "admin", "w1", mock.Anything).
			Return(registration.Wizard{ID: "w1", Step: 1, Form: registration.Form{FullName: name}}, verr)
		rec := httptest.NewRecorder()

		newHandler(m).Step(rec, request(http.MethodPut, "/registrations/w1/step",
			bytes.NewBufferString(`{"fullName":"Ravi Kumar"}`), map[string]string{"id": "w1"}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, "email is required", env.Fields["email"])
		assert.Equal(t, name, env.Data["form"].(map[string]any)["fullName"])
	})

	t.Run("bad json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newHandler(new(MockService)).Step(rec, request(http.MethodPut, "/registrations/w1/step",
			bytes.NewBufferString(`{"fullName":`), map[string]string{"id": "w1"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", registration.ErrNotFound, http.StatusNotFound},
		{"locked", registration.ErrStepLocked, http.StatusConflict},
		{"invalid step", registration.ErrInvalidStep, http.StatusBadRequest},
		{"submitted", registration.ErrSubmitted, http.StatusConflict},
		{"submitting", registration.ErrSubmitting, http.StatusConflict},
		{"backend", errors.New("connection reset"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockService)
			m.On("GoTo", "admin", "w1", 4).Return(registration.Wizard{}, tt.err)
			rec := httptest.NewRecorder()

			newHandler(m).GoTo(rec, request(http.MethodPost, "/registrations/w1/goto/4", nil,
				map[string]string{"id": "w1", "step": "4"}))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPrevAndGet(t *testing.T) {
	m := new(MockService)
	m.On("Prev", "admin", "w1").Return(registration.Wizard{ID: "w1", Step: 2}, nil)
	m.On("Get", "admin", "w2").Return(registration.Wizard{}, registration.ErrNotFound)

	rec := httptest.NewRecorder()
	newHandler(m).Prev(rec, request(http.MethodPost, "/registrations/w1/prev", nil, map[string]string{"id": "w1"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newHandler(m).Get(rec, request(http.MethodGet, "/registrations/w2", nil, map[string]string{"id": "w2"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func pictureBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="profilePicture"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPicture(t *testing.T) {
	t.Run("uploaded", func(t *testing.T) {
		m := new(MockService)
		m.On("SetPicture", "admin", "w1", models.ProfilePicture{
			Filename: "me.png", ContentType: "image/png", Data: []byte("png-bytes"),
		}).Return(registration.Wizard{ID: "w1", Step: 2}, nil)

		body, ct := pictureBody(t, "image/png", []byte("png-bytes"))
		req := request(http.MethodPost, "/registrations/w1/picture", body, map[string]string{"id": "w1"})
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		newHandler(m).Picture(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		m.AssertExpectations(t)
	})

	t.Run("rejected type", func(t *testing.T) {
		m := new(MockService)
		m.On("SetPicture", "admin", "w1", mock.Anything).Return(registration.Wizard{ID: "w1", Step: 2},
			&registration.ValidationError{Step: 2, Fields: map[string]string{"profilePicture": "please select an image file"}})

		body, ct := pictureBody(t, "application/pdf", []byte("%PDF"))
		req := request(http.MethodPost, "/registrations/w1/picture", body, map[string]string{"id": "w1"})
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		newHandler(m).Picture(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "please select an image file", decode(t, rec).Fields["profilePicture"])
	})

	t.Run("missing file", func(t *testing.T) {
		req := request(http.MethodPost, "/registrations/w1/picture", bytes.NewBufferString("x"), map[string]string{"id": "w1"})
		rec := httptest.NewRecorder()
		newHandler(new(MockService)).Picture(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmit(t *testing.T) {
	m := new(MockService)
	m.On("Submit", mock.Anything, "admin", "w1").Return(registration.Wizard{
		ID: "w1", Step: 5, Submitted: true,
		ReceiptURL: "https://gym.example/receipts/1.pdf",
		ShareLink:  "https://wa.me/919876543210?text=Hello",
	}, nil)
	m.On("Submit", mock.Anything, "admin", "w2").Return(registration.Wizard{}, registration.ErrNotReview)

	rec := httptest.NewRecorder()
	newHandler(m).Submit(rec, request(http.MethodPost, "/registrations/w1/submit", nil, map[string]string{"id": "w1"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, true, env.Data["submitted"])
	assert.Equal(t, "https://gym.example/receipts/1.pdf", env.Data["receiptUrl"])

	rec = httptest.NewRecorder()
	newHandler(m).Submit(rec, request(http.MethodPost, "/registrations/w2/submit", nil, map[string]string{"id": "w2"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDiscard(t *testing.T) {
	m := new(MockService)
	m.On("Discard", "admin", "w1").Once()
	rec := httptest.NewRecorder()
	newHandler(m).Discard(rec, request(http.MethodDelete, "/registrations/w1", nil, map[string]string{"id": "w1"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	m.AssertExpectations(t)
}
