// Package create реализует HTTP-обработчик добавления тарифа.
//
// Handler принимает JSON с названием, длительностью и стоимостью тарифа,
// валидирует его, передаёт в backend и показывает администратору
// всплывающее сообщение с результатом.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// Handler управляет HTTP-запросами на создание тарифов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис дашборда, сбрасывающий кеш тарифов
	flash    Flasher             // Всплывающие сообщения консоли
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс создания тарифа.
type Service interface {
	AddMembership(ctx context.Context, m models.NewMembership) (string, error)
}

// Flasher показывает всплывающее сообщение администратору.
type Flasher interface {
	Flash(user, text string, kind viewstate.FlashKind) viewstate.State
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, flash Flasher) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		flash:    flash,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить тариф
// @Description Создаёт тариф в backend'е и сбрасывает кеш списка тарифов.
// @Tags Memberships
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.NewMembership true "Новый тариф"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка backend'а"
// @Router /memberships [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.memberships.create"
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

	var req models.NewMembership
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if !req.Fee.IsPositive() {
		log.Error("validation failed: non-positive fee")
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field Fee must be greater than zero"))
		return
	}

	msg, err := h.service.AddMembership(r.Context(), req)
	if err != nil {
		log.Error("failed to add membership", sl.Err(err))
		h.flash.Flash(username, "Failed to add membership", viewstate.FlashError)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not add membership"))
		return
	}

	log.Info("membership added", slog.String("name", req.Name))
	h.flash.Flash(username, "Membership added successfully!", viewstate.FlashSuccess)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": msg,
	}))
}
