// Package remove реализует HTTP-обработчик удаления тарифа по id.
package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// Service описывает интерфейс удаления тарифа.
type Service interface {
	DeleteMembership(ctx context.Context, id int64) (string, error)
}

// Views всплывающие сообщения и модальные окна консоли.
type Views interface {
	Flash(user, text string, kind viewstate.FlashKind) viewstate.State
	CloseModal(user string) viewstate.State
}

// Handler обрабатывает удаление тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
	views   Views
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, views Views) *Handler {
	return &Handler{log: log, service: service, views: views}
}

// ServeHTTP godoc
// @Summary Удалить тариф
// @Description Удаляет тариф в backend'е, закрывает окно подтверждения и сбрасывает кеш списка тарифов.
// @Tags Memberships
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка backend'а"
// @Router /memberships/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.memberships.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := middlewarectx.Username(r.Context())
	if !ok {
		log.Error("username not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	msg, err := h.service.DeleteMembership(r.Context(), id)
	h.views.CloseModal(username)
	if err != nil {
		if backend.IsNotFound(err) {
			log.Warn("membership not found", slog.Int64("id", id))
			h.views.Flash(username, "Membership not found", viewstate.FlashError)
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("membership not found"))
			return
		}
		log.Error("failed to delete membership", sl.Err(err))
		h.views.Flash(username, "Failed to delete membership", viewstate.FlashError)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to delete membership"))
		return
	}

	log.Info("membership deleted", slog.Int64("id", id))
	h.views.Flash(username, "Membership deleted successfully!", viewstate.FlashSuccess)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": msg,
	}))
}
