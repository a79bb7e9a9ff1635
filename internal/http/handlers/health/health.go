// Package health отдаёт состояние консоли для балансировщика и мониторинга.
package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

// Service текущее состояние снимка дашборда.
type Service interface {
	Snapshot() (*dashboard.Snapshot, error)
	LastError() error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Description Сообщает, загружен ли снимок дашборда и успешно ли прошло последнее обновление.
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":    "ok",
		"dashboard": "empty",
	}
	if snap, err := h.service.Snapshot(); err == nil {
		data["dashboard"] = "fresh"
		data["fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
	}
	if err := h.service.LastError(); err != nil {
		data["dashboard"] = "stale"
		data["last_error"] = err.Error()
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
