// Package backend реализует REST-клиент API спортзала: пользователи, абонементы,
// платежи, выручка, напоминания, логин администратора и регистрация.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

const maxErrorBody = 4 << 10

// Client клиент backend'а спортзала.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient создаёт клиент. metrics может быть nil.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return nil, err
		}
		buf = b
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do выполняет запрос, учитывает его в метриках и возвращает тело 2xx-ответа.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return nil, err
	}
	defer resp.Body.Close()
	c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) observe(endpoint, code string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequests.WithLabelValues(endpoint, code).Inc()
	c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (c *Client) getJSON(ctx context.Context, op, endpoint, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.do(req, endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// textResult возвращает ответ, который backend отдаёт либо JSON-строкой, либо простым текстом.
func textResult(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}

// ListUsers возвращает всех пользователей с абонементами и платежами.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.getJSON(ctx, "backend.ListUsers", "users_all", "/admin/users/all", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListMemberships возвращает все тарифы.
func (c *Client) ListMemberships(ctx context.Context) ([]models.Membership, error) {
	var ms []models.Membership
	if err := c.getJSON(ctx, "backend.ListMemberships", "memberships_all", "/admin/memberships/all", &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// Revenue возвращает общую и месячную выручку.
func (c *Client) Revenue(ctx context.Context) (models.Revenue, error) {
	var r models.Revenue
	if err := c.getJSON(ctx, "backend.Revenue", "revenue", "/api/payments/revenue", &r); err != nil {
		return models.Revenue{}, err
	}
	return r, nil
}

// CustomRevenue возвращает выручку за период. Даты в формате 2006-01-02.
func (c *Client) CustomRevenue(ctx context.Context, startDate, endDate string) (models.CustomRevenue, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var r models.CustomRevenue
	if err := c.getJSON(ctx, "backend.CustomRevenue", "revenue_custom", "/api/payments/revenue/custom?"+q.Encode(), &r); err != nil {
		return models.CustomRevenue{}, err
	}
	return r, nil
}

// AddMembership создаёт тариф и возвращает сообщение backend'а.
func (c *Client) AddMembership(ctx context.Context, m models.NewMembership) (string, error) {
	const op = "backend.AddMembership"
	req, err := c.newRequest(ctx, http.MethodPost, "/admin/memberships/add", m)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.do(req, "memberships_add")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return textResult(body), nil
}

// DeleteMembership удаляет тариф и возвращает сообщение backend'а.
func (c *Client) DeleteMembership(ctx context.Context, id int64) (string, error) {
	const op = "backend.DeleteMembership"
	req, err := c.newRequest(ctx, http.MethodDelete, "/admin/memberships/delete/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.do(req, "memberships_delete")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return textResult(body), nil
}

// UserPayments возвращает историю платежей пользователя и остаток дней по плану.
func (c *Client) UserPayments(ctx context.Context, userID int64) (models.UserPayments, error) {
	var p models.UserPayments
	path := "/api/payments/user/" + strconv.FormatInt(userID, 10)
	if err := c.getJSON(ctx, "backend.UserPayments", "payments_user", path, &p); err != nil {
		return models.UserPayments{}, err
	}
	return p, nil
}

// ReminderMessage возвращает текст напоминания, который backend сгенерировал для пользователя.
func (c *Client) ReminderMessage(ctx context.Context, userID int64) (models.ReminderMessage, error) {
	var m models.ReminderMessage
	path := "/api/reminder/message/" + strconv.FormatInt(userID, 10)
	if err := c.getJSON(ctx, "backend.ReminderMessage", "reminder_message", path, &m); err != nil {
		return models.ReminderMessage{}, err
	}
	return m, nil
}

// SendReminder просит backend отправить пользователю письмо-напоминание.
func (c *Client) SendReminder(ctx context.Context, userID int64) (models.ReminderStatus, error) {
	const op = "backend.SendReminder"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/reminder/send/"+strconv.FormatInt(userID, 10), nil)
	if err != nil {
		return models.ReminderStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.do(req, "reminder_send")
	if err != nil {
		return models.ReminderStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	var s models.ReminderStatus
	if err := json.Unmarshal(body, &s); err != nil {
		return models.ReminderStatus{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return s, nil
}

// Login проверяет учётные данные администратора. Возвращает ErrUnauthorized на 401.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "backend.Login"
	req, err := c.newRequest(ctx, http.MethodPost, "/admin/login", models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.do(req, "login")
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			return "", fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return textResult(body), nil
}

// RegisterUser отправляет multipart-запрос регистрации: часть user в JSON и
// необязательную фотографию profilePicture.
func (c *Client) RegisterUser(ctx context.Context, r models.RegistrationRequest, picture *models.ProfilePicture) (models.RegistrationResult, error) {
	const op = "backend.RegisterUser"

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	userJSON, err := json.Marshal(r)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="user"; filename="user.json"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(userJSON); err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if picture != nil && len(picture.Data) > 0 {
		ph := make(textproto.MIMEHeader)
		ph.Set("Content-Disposition", fmt.Sprintf(`form-data; name="profilePicture"; filename=%q`, picture.Filename))
		ph.Set("Content-Type", picture.ContentType)
		pp, err := mw.CreatePart(ph)
		if err != nil {
			return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := pp.Write(picture.Data); err != nil {
			return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users/register", buf)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, "users_register")
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	var res models.RegistrationResult
	if err := json.Unmarshal(body, &res); err != nil {
		return models.RegistrationResult{}, fmt.Errorf("%s: invalid response from server: %w", op, err)
	}
	return res, nil
}
