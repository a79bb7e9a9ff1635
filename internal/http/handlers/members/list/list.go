// Package list реализует HTTP-обработчик списка участников с производным статусом.
//
// Handler читает параметры search, status, limit и offset из строки запроса,
// фильтрует участников последнего снимка и возвращает страницу результата.
package list

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
)

var statuses = map[string]classifier.Status{
	"":                                    "",
	string(classifier.StatusActive):       classifier.StatusActive,
	string(classifier.StatusExpiringSoon): classifier.StatusExpiringSoon,
	string(classifier.StatusExpired):      classifier.StatusExpired,
	string(classifier.StatusUnknown):      classifier.StatusUnknown,
	string(classifier.StatusNoPayments):   classifier.StatusNoPayments,
}

// Service список участников.
type Service interface {
	Members(f dashboard.Filter) (dashboard.Page, error)
}

// Handler обрабатывает запрос списка участников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

// ServeHTTP godoc
// @Summary Список участников
// @Description Возвращает участников с вычисленным статусом. Поиск по имени, почте и телефону без учёта регистра.
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param search query string false "Поисковая строка"
// @Param status query string false "Статус: active, expiring_soon, expired, unknown, no_payments"
// @Param limit query int false "Размер страницы (по умолчанию 10)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=dashboard.Page}
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 503 {object} response.ErrorResponse "Данные ещё не загружены"
// @Router /members [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.members.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	status, ok := statuses[q.Get("status")]
	if !ok {
		log.Error("invalid status filter", slog.String("status", q.Get("status")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid status"))
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	page, err := h.service.Members(dashboard.Filter{
		Search: q.Get("search"),
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		if errors.Is(err, dashboard.ErrNoSnapshot) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("dashboard data is not loaded yet"))
			return
		}
		log.Error("failed to list members", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list members"))
		return
	}

	log.Debug("members listed", slog.Int("total", page.Total))
	render.JSON(w, r, response.StatusOKWithData(page))
}
