// Package summary отдаёт сводку дашборда: KPI, последние записи по категориям,
// распределение по тарифам и выручку. Данные берутся из последнего снимка
// без обращения к backend'у.
package summary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

// Service источник сводки.
type Service interface {
	Summary() (dashboard.Summary, error)
}

// Handler обрабатывает запрос сводки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка дашборда
// @Description Возвращает KPI, по пять последних участников в каждой категории, гистограмму по тарифам и выручку. Флаг stale означает, что последнее обновление не удалось.
// @Tags Dashboard
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dashboard.Summary}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 503 {object} response.ErrorResponse "Данные ещё не загружены"
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.summary"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sum, err := h.service.Summary()
	if err != nil {
		if errors.Is(err, dashboard.ErrNoSnapshot) {
			log.Warn("dashboard is not loaded yet")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("dashboard data is not loaded yet"))
			return
		}
		log.Error("failed to build summary", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build dashboard"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(sum))
}
