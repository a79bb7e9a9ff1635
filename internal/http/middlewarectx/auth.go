// Package middlewarectx содержит HTTP middleware консоли.
//
// JWTMiddleware проверяет токен администратора из заголовка Authorization
// или cookie console_token и кладёт имя администратора в контекст запроса.
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ для имени администратора в контексте.
const User Key = "username"

// CookieName имя cookie с токеном сессии.
const CookieName = "console_token"

type authKind struct{}

// TokenValidator проверяет токен и возвращает имя администратора.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// WithUser возвращает контекст с именем администратора.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, User, username)
}

// Username достаёт имя администратора из контекста.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(User).(string)
	return username, ok && username != ""
}

// FromCookie сообщает, что запрос аутентифицирован через cookie, а не заголовок.
func FromCookie(ctx context.Context) bool {
	v, _ := ctx.Value(authKind{}).(bool)
	return v
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", false
		}
		return strings.TrimPrefix(h, "Bearer "), false
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value, true
	}
	return "", false
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT администратора.
func JWTMiddleware(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := logger.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			username, err := validator.ValidateToken(token)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := WithUser(r.Context(), username)
			ctx = context.WithValue(ctx, authKind{}, fromCookie)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
