// Package registration реализует HTTP-обработчики мастера регистрации участника.
//
// Мастер живёт на стороне консоли: каждый запрос меняет его состояние
// (данные формы, текущий шаг, фотографию), а Submit отправляет итоговую
// заявку в backend. Мастер доступен только создавшему его администратору.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/registration"
)

// PictureField имя multipart-поля с фотографией.
const PictureField = "profilePicture"

// Service бизнес-логика мастера.
type Service interface {
	Start(owner string) registration.Wizard
	Get(owner, id string) (registration.Wizard, error)
	Step(ctx context.Context, owner, id string, u registration.Update) (registration.Wizard, error)
	Prev(owner, id string) (registration.Wizard, error)
	GoTo(owner, id string, step int) (registration.Wizard, error)
	SetPicture(owner, id string, p models.ProfilePicture) (registration.Wizard, error)
	Submit(ctx context.Context, owner, id string) (registration.Wizard, error)
	Discard(owner, id string)
}

// View мастер в ответе API.
type View struct {
	registration.Wizard
	StepName    string                    `json:"stepName"`
	Percent     float64                   `json:"progress"`
	PictureMeta *registration.PictureInfo `json:"picture,omitempty"`
}

func newView(w registration.Wizard) View {
	return View{
		Wizard:      w,
		StepName:    registration.StepNames[w.Step],
		Percent:     w.Progress(),
		PictureMeta: w.PictureInfo(),
	}
}

// Handler набор обработчиков мастера.
type Handler struct {
	log        *slog.Logger
	service    Service
	maxPicture int64
}

// New создает новый экземпляр Handler. maxPicture ограничивает размер загружаемой фотографии.
func New(log *slog.Logger, service Service, maxPicture int64) *Handler {
	if maxPicture <= 0 {
		maxPicture = registration.DefaultMaxPictureSize
	}
	return &Handler{log: log, service: service, maxPicture: maxPicture}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	username, ok := middlewarectx.Username(r.Context())
	if !ok {
		log.Error("username not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
	}
	return username, ok
}

// respond отдаёт мастер либо переводит ошибку сервиса в HTTP-статус.
// При ошибке валидации в ответе вместе с ошибками полей возвращается текущее состояние мастера.
func respond(w http.ResponseWriter, r *http.Request, log *slog.Logger, wz registration.Wizard, err error) {
	var verr *registration.ValidationError
	switch {
	case err == nil:
		render.JSON(w, r, response.StatusOKWithData(newView(wz)))
	case errors.As(err, &verr):
		log.Info("step validation failed", slog.Int("step", verr.Step))
		resp := response.FieldsError(fmt.Sprintf("please fix the errors in step %d", verr.Step), verr.Fields)
		if wz.ID != "" {
			resp.Data = newView(wz)
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, resp)
	case errors.Is(err, registration.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("registration not found"))
	case errors.Is(err, registration.ErrInvalidStep):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
	case errors.Is(err, registration.ErrStepLocked),
		errors.Is(err, registration.ErrSubmitted),
		errors.Is(err, registration.ErrSubmitting),
		errors.Is(err, registration.ErrNotReview):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(err.Error()))
	default:
		log.Error("registration request failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to register user"))
	}
}

// Start godoc
// @Summary Начать регистрацию
// @Description Создаёт мастер на первом шаге. Даты вступления и оплаты по умолчанию сегодняшние, способ оплаты CASH.
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} response.Response{data=View}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /registrations [post]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.start")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	wz := h.service.Start(owner)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(newView(wz)))
}

// Get godoc
// @Summary Состояние регистрации
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Success 200 {object} response.Response{data=View}
// @Failure 404 {object} response.ErrorResponse "Мастер не найден"
// @Router /registrations/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.get")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	wz, err := h.service.Get(owner, chi.URLParam(r, "id"))
	respond(w, r, log, wz, err)
}

// Step godoc
// @Summary Заполнить шаг
// @Description Сливает переданные поля в форму, проверяет текущий шаг и переходит к следующему. При ошибке проверки данные сохраняются, шаг не меняется.
// @Tags Registration
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Param request body registration.Update true "Поля формы"
// @Success 200 {object} response.Response{data=View}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Мастер не найден"
// @Failure 409 {object} response.ErrorResponse "Регистрация уже отправлена"
// @Failure 422 {object} response.Response "Ошибки полей шага"
// @Router /registrations/{id}/step [put]
func (h *Handler) Step(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.step")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}

	var u registration.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	wz, err := h.service.Step(r.Context(), owner, chi.URLParam(r, "id"), u)
	respond(w, r, log, wz, err)
}

// Prev godoc
// @Summary Шаг назад
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Success 200 {object} response.Response{data=View}
// @Failure 404 {object} response.ErrorResponse "Мастер не найден"
// @Router /registrations/{id}/prev [post]
func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.prev")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	wz, err := h.service.Prev(owner, chi.URLParam(r, "id"))
	respond(w, r, log, wz, err)
}

// GoTo godoc
// @Summary Перейти к шагу
// @Description Разрешён переход на предыдущие и уже пройденные шаги.
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Param step path int true "Номер шага 1..5"
// @Success 200 {object} response.Response{data=View}
// @Failure 400 {object} response.ErrorResponse "Некорректный шаг"
// @Failure 409 {object} response.ErrorResponse "Шаг ещё не доступен"
// @Router /registrations/{id}/goto/{step} [post]
func (h *Handler) GoTo(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.goto")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid step"))
		return
	}
	wz, err := h.service.GoTo(owner, chi.URLParam(r, "id"), step)
	respond(w, r, log, wz, err)
}

// Picture godoc
// @Summary Загрузить фотографию
// @Description Принимает multipart-форму с полем profilePicture. Только изображения не больше 5MB.
// @Tags Registration
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Param profilePicture formData file true "Фотография"
// @Success 200 {object} response.Response{data=View}
// @Failure 400 {object} response.ErrorResponse "Нет файла"
// @Failure 422 {object} response.Response "Файл не подходит"
// @Router /registrations/{id}/picture [post]
func (h *Handler) Picture(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.picture")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPicture+(1<<20))
	file, header, err := r.FormFile(PictureField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond(w, r, log, registration.Wizard{}, &registration.ValidationError{
				Step:   registration.StepPicture,
				Fields: map[string]string{PictureField: "file size should not exceed 5MB"},
			})
			return
		}
		log.Error("failed to read picture", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("profilePicture file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxPicture+1))
	if err != nil {
		log.Error("failed to read picture", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read profilePicture"))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	wz, err := h.service.SetPicture(owner, chi.URLParam(r, "id"), models.ProfilePicture{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	respond(w, r, log, wz, err)
}

// Submit godoc
// @Summary Отправить регистрацию
// @Description Повторно проверяет форму и регистрирует участника в backend'е. Возвращает ссылку на чек и ссылку для отправки чека в WhatsApp.
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Success 200 {object} response.Response{data=View}
// @Failure 409 {object} response.ErrorResponse "Регистрация уже отправлена или не на шаге проверки"
// @Failure 422 {object} response.Response "Ошибки полей"
// @Failure 502 {object} response.ErrorResponse "Ошибка backend'а"
// @Router /registrations/{id}/submit [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.submit")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	wz, err := h.service.Submit(r.Context(), owner, chi.URLParam(r, "id"))
	if err == nil {
		log.Info("user registered", slog.String("registration_id", wz.ID))
	}
	respond(w, r, log, wz, err)
}

// Discard godoc
// @Summary Отменить регистрацию
// @Tags Registration
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID мастера"
// @Success 200 {object} response.Response
// @Router /registrations/{id} [delete]
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.registration.discard")
	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	h.service.Discard(owner, chi.URLParam(r, "id"))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"discarded": chi.URLParam(r, "id")}))
}
