package revenue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-console/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CustomRevenue(ctx context.Context, startDate, endDate string) (models.CustomRevenue, error) {
	args := m.Called(ctx, startDate, endDate)
	return args.Get(0).(models.CustomRevenue), args.Error(1)
}

func TestRevenueHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "period revenue",
			query: "?startDate=2024-01-01&endDate=2024-01-31",
			setupMock: func(m *MockService) {
				m.On("CustomRevenue", mock.Anything, "2024-01-01", "2024-01-31").
					Return(models.CustomRevenue{CustomRevenue: decimal.NewFromInt(12500)}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"customRevenue":12500`,
		},
		{
			name:           "missing end date",
			query:          "?startDate=2024-01-01",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field EndDate is a required field",
		},
		{
			name:           "bad format",
			query:          "?startDate=01/01/2024&endDate=2024-01-31",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field StartDate can contain only date in format 2006-01-02",
		},
		{
			name:           "reversed period",
			query:          "?startDate=2024-02-01&endDate=2024-01-31",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "startDate must not be after endDate",
		},
		{
			name:  "backend error",
			query: "?startDate=2024-01-01&endDate=2024-01-31",
			setupMock: func(m *MockService) {
				m.On("CustomRevenue", mock.Anything, mock.Anything, mock.Anything).
					Return(models.CustomRevenue{}, errors.New("timeout"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"failed to fetch revenue"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockService)
			tt.setupMock(m)
			rec := httptest.NewRecorder()

			New(logger, m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/revenue/custom"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}
