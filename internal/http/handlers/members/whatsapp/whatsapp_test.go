package whatsapp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Member(id int64) (classifier.Member, error) {
	args := m.Called(id)
	return args.Get(0).(classifier.Member), args.Error(1)
}

func TestWhatsAppHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "expiring member",
			id:   "5",
			setupMock: func(m *MockService) {
				m.On("Member", int64(5)).Return(classifier.Member{
					User:     models.User{ID: 5, MobileNumber: "+91 98765-43210"},
					DaysLeft: 3,
					Status:   classifier.StatusExpiringSoon,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `https://wa.me/919876543210?text=Hello%20from%20VipGym`,
		},
		{
			name: "member without payments",
			id:   "7",
			setupMock: func(m *MockService) {
				m.On("Member", int64(7)).Return(classifier.Member{
					User:   models.User{ID: 7, MobileNumber: "9876543210"},
					Status: classifier.StatusNoPayments,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"message":"Hello from VipGym!"`,
		},
		{
			name:           "invalid id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid id"}`,
		},
		{
			name: "not found",
			id:   "9",
			setupMock: func(m *MockService) {
				m.On("Member", int64(9)).Return(classifier.Member{}, dashboard.ErrMemberNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"member not found"}`,
		},
		{
			name: "no mobile",
			id:   "6",
			setupMock: func(m *MockService) {
				m.On("Member", int64(6)).Return(classifier.Member{User: models.User{ID: 6}}, nil)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"member has no mobile number"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockService)
			tt.setupMock(m)

			req := httptest.NewRequest(http.MethodGet, "/members/"+tt.id+"/whatsapp", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(logger, m, "VipGym").ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}
