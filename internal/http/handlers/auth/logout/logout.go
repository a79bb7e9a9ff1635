// Package logout реализует выход администратора: очищает cookie сессии,
// состояние интерфейса и незавершённые мастера регистрации.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
)

// ViewState состояние интерфейса администратора.
type ViewState interface {
	Logout(username string)
}

// Wizards мастера регистрации администратора.
type Wizards interface {
	DiscardOwner(owner string)
}

// Handler обрабатывает выход.
type Handler struct {
	log     *slog.Logger
	views   ViewState
	wizards Wizards
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, views ViewState, wizards Wizards) *Handler {
	return &Handler{log: log, views: views, wizards: wizards}
}

// ServeHTTP godoc
// @Summary Выход администратора
// @Description Удаляет cookie сессии, состояние интерфейса и черновики регистраций.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
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

	h.views.Logout(username)
	h.wizards.DiscardOwner(username)
	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	log.Info("logout", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"username": username}))
}
