// Package list отдаёт тарифы спортзала. Список берётся из кеша, пока его не
// сбросит добавление или удаление тарифа.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// Service источник тарифов.
type Service interface {
	Memberships(ctx context.Context) ([]models.Membership, error)
}

// Handler обрабатывает запрос списка тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Tags Memberships
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Membership}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 502 {object} response.ErrorResponse "Backend недоступен"
// @Router /memberships [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.memberships.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.Memberships(r.Context())
	if err != nil {
		log.Error("failed to list memberships", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to fetch memberships"))
		return
	}
	if plans == nil {
		plans = []models.Membership{}
	}
	render.JSON(w, r, response.StatusOKWithData(plans))
}
