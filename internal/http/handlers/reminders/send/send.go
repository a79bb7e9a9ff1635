// Package send просит backend отправить напоминание пользователю и сообщает
// результат администратору всплывающим сообщением.
package send

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
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// Service отправка напоминания.
type Service interface {
	SendReminder(ctx context.Context, userID int64) (models.ReminderStatus, error)
}

// Views всплывающие сообщения и модальные окна консоли.
type Views interface {
	Flash(user, text string, kind viewstate.FlashKind) viewstate.State
	CloseModal(user string) viewstate.State
}

// Handler обрабатывает отправку напоминания.
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
// @Summary Отправить напоминание
// @Tags Reminders
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response{data=models.ReminderStatus}
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка backend'а"
// @Router /reminders/{id}/send [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reminders.send"
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

	status, err := h.service.SendReminder(r.Context(), id)
	h.views.CloseModal(username)
	if err != nil {
		h.views.Flash(username, "Failed to send reminder", viewstate.FlashError)
		if backend.IsNotFound(err) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to send reminder", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to send reminder"))
		return
	}

	log.Info("reminder sent", slog.Int64("user_id", id), slog.String("status", status.Status))
	h.views.Flash(username, "Reminder sent successfully!", viewstate.FlashSuccess)
	render.JSON(w, r, response.StatusOKWithData(status))
}
