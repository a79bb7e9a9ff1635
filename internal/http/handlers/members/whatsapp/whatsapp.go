// Package whatsapp строит ссылку wa.me с напоминанием для участника.
package whatsapp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/lib/whatsapp"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

// Service поиск участника в снимке.
type Service interface {
	Member(id int64) (classifier.Member, error)
}

// Handler обрабатывает запрос ссылки.
type Handler struct {
	log     *slog.Logger
	service Service
	gym     string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, gym string) *Handler {
	return &Handler{log: log, service: service, gym: gym}
}

// ServeHTTP godoc
// @Summary Ссылка WhatsApp
// @Description Возвращает ссылку wa.me с текстом напоминания, зависящим от количества оставшихся дней.
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 422 {object} response.ErrorResponse "У участника нет номера телефона"
// @Failure 503 {object} response.ErrorResponse "Данные ещё не загружены"
// @Router /members/{id}/whatsapp [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.whatsapp"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	member, err := h.service.Member(id)
	switch {
	case errors.Is(err, dashboard.ErrMemberNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("member not found"))
		return
	case errors.Is(err, dashboard.ErrNoSnapshot):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("dashboard data is not loaded yet"))
		return
	case err != nil:
		log.Error("failed to find member", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not find member"))
		return
	}

	link, err := whatsapp.MemberLink(h.gym, member)
	if err != nil {
		log.Warn("member has no mobile number", slog.Int64("user_id", id))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("member has no mobile number"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"link":    link,
		"message": whatsapp.MemberMessage(h.gym, member),
	}))
}
