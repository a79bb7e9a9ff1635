package health

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

type fakeService struct {
	snap    *dashboard.Snapshot
	lastErr error
}

func (f fakeService) Snapshot() (*dashboard.Snapshot, error) {
	if f.snap == nil {
		return nil, dashboard.ErrNoSnapshot
	}
	return f.snap, nil
}

func (f fakeService) LastError() error { return f.lastErr }

func TestHealthHandler(t *testing.T) {
	fetched := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		service fakeService
		want    string
	}{
		{name: "no snapshot", service: fakeService{}, want: "empty"},
		{name: "fresh", service: fakeService{snap: &dashboard.Snapshot{FetchedAt: fetched}}, want: "fresh"},
		{name: "stale", service: fakeService{snap: &dashboard.Snapshot{FetchedAt: fetched}, lastErr: errors.New("timeout")}, want: "stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.service).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			var got struct {
				Data map[string]any `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, "ok", got.Data["status"])
			assert.Equal(t, tt.want, got.Data["dashboard"])
		})
	}
}
