// Package refresh запускает внеочередное обновление снимка дашборда.
package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

// Service обновление снимка.
type Service interface {
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
}

// Handler обрабатывает ручное обновление.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить дашборд
// @Description Синхронно запрашивает данные backend'а и пересчитывает категории. При ошибке прежний снимок остаётся.
// @Tags Dashboard
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 502 {object} response.ErrorResponse "Backend недоступен"
// @Router /dashboard/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	snap, err := h.service.Refresh(r.Context())
	if err != nil {
		log.Error("refresh failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to refresh dashboard data"))
		return
	}

	log.Info("dashboard refreshed", slog.Uint64("generation", snap.Generation))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"fetched_at":  snap.FetchedAt,
		"generation":  snap.Generation,
		"total_users": snap.Result.TotalUsers,
	}))
}
