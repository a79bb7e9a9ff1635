// Package revenue отдаёт выручку за произвольный период.
package revenue

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// Service источник выручки.
type Service interface {
	CustomRevenue(ctx context.Context, startDate, endDate string) (models.CustomRevenue, error)
}

// Handler обрабатывает запрос выручки за период.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выручка за период
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param startDate query string true "Начало периода, 2006-01-02"
// @Param endDate query string true "Конец периода, 2006-01-02"
// @Success 200 {object} response.Response{data=models.CustomRevenue}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка backend'а"
// @Router /payments/revenue/custom [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payments.revenue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	period := models.RevenuePeriod{
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}
	if err := h.validate.Struct(period); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if period.EndDate < period.StartDate {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("startDate must not be after endDate"))
		return
	}

	res, err := h.service.CustomRevenue(r.Context(), period.StartDate, period.EndDate)
	if err != nil {
		log.Error("failed to fetch revenue", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to fetch revenue"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
