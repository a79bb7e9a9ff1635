// Package state реализует HTTP-обработчики состояния интерфейса консоли:
// активный раздел, боковая панель и модальные окна.
package state

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// Действия над состоянием.
const (
	ActionNavigate   = "navigate"
	ActionSidebar    = "sidebar"
	ActionModalOpen  = "modal-open"
	ActionModalClose = "modal-close"
)

// Service хранилище состояния интерфейса.
type Service interface {
	Get(user string) viewstate.State
	Navigate(user string, section viewstate.Section) (viewstate.State, error)
	SetSidebar(user string, open bool) viewstate.State
	OpenModal(user string, modal viewstate.Modal, target int64) (viewstate.State, error)
	CloseModal(user string) viewstate.State
}

// Request тело запроса на изменение состояния. Используемые поля зависят от действия.
type Request struct {
	Section string `json:"section,omitempty" example:"users"`
	Open    bool   `json:"open,omitempty"`
	Modal   string `json:"modal,omitempty" example:"paymentHistory"`
	Target  int64  `json:"target,omitempty" example:"12"`
}

// Handler обрабатывает чтение и изменение состояния.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Get godoc
// @Summary Состояние интерфейса
// @Description Возвращает активный раздел, состояние боковой панели, открытое окно и всплывающее сообщение.
// @Tags Console
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=viewstate.State}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /console/state [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.console.state.get"
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
	render.JSON(w, r, response.StatusOKWithData(h.service.Get(username)))
}

// Apply godoc
// @Summary Изменить состояние интерфейса
// @Description navigate переключает раздел (закрывает окно и панель), sidebar открывает или закрывает панель, modal-open открывает окно и приостанавливает опрос backend'а, modal-close закрывает окно.
// @Tags Console
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param action path string true "navigate | sidebar | modal-open | modal-close"
// @Param request body Request false "Параметры действия"
// @Success 200 {object} response.Response{data=viewstate.State}
// @Failure 400 {object} response.ErrorResponse "Неизвестное действие, раздел или окно"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /console/state/{action} [post]
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.console.state.apply"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	var (
		st  viewstate.State
		err error
	)
	switch action := chi.URLParam(r, "action"); action {
	case ActionNavigate:
		var section viewstate.Section
		if section, err = viewstate.ParseSection(req.Section); err == nil {
			st, err = h.service.Navigate(username, section)
		}
	case ActionSidebar:
		st = h.service.SetSidebar(username, req.Open)
	case ActionModalOpen:
		var modal viewstate.Modal
		if modal, err = viewstate.ParseModal(req.Modal); err == nil {
			st, err = h.service.OpenModal(username, modal, req.Target)
		}
	case ActionModalClose:
		st = h.service.CloseModal(username)
	default:
		log.Warn("unknown action", slog.String("action", action))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown action"))
		return
	}
	if err != nil {
		log.Warn("invalid view state change", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Debug("view state changed", slog.String("section", string(st.Section)), slog.String("modal", string(st.Modal)))
	render.JSON(w, r, response.StatusOKWithData(st))
}
