package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/gorilla/csrf"

	"github.com/magabrotheeeer/gym-console/internal/http/response"
)

// CSRFHeader заголовок, в котором клиент получает и возвращает токен.
const CSRFHeader = "X-CSRF-Token"

// CSRF защищает запросы, аутентифицированные cookie. Запросы с токеном в
// заголовке Authorization пропускаются без проверки. Свежий CSRF-токен
// отдаётся в заголовке X-CSRF-Token каждого защищённого ответа.
// Пустой ключ отключает защиту.
func CSRF(authKey []byte, secure bool, trustedOrigins []string, log *slog.Logger) func(http.Handler) http.Handler {
	if len(authKey) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("csrf check failed", slog.Any("reason", csrf.FailureReason(r)))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("invalid csrf token"))
		})),
	)

	return func(next http.Handler) http.Handler {
		withToken := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(CSRFHeader, csrf.Token(r))
			next.ServeHTTP(w, r)
		})
		protected := protect(withToken)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromCookie(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}
