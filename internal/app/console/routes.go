// Package console собирает HTTP API консоли администратора спортзала.
package console

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/console/state"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/dashboard/refresh"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/dashboard/summary"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/health"
	memberslist "github.com/magabrotheeeer/gym-console/internal/http/handlers/members/list"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/members/whatsapp"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/memberships/create"
	membershipslist "github.com/magabrotheeeer/gym-console/internal/http/handlers/memberships/list"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/memberships/remove"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/payments/history"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/payments/revenue"
	registrationhandler "github.com/magabrotheeeer/gym-console/internal/http/handlers/registration"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/reminders/message"
	"github.com/magabrotheeeer/gym-console/internal/http/handlers/reminders/send"
	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/services/auth"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
	"github.com/magabrotheeeer/gym-console/internal/services/poller"
	"github.com/magabrotheeeer/gym-console/internal/services/registration"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// Services зависимости маршрутов.
type Services struct {
	Backend      *backend.Client
	Dashboard    *dashboard.Service
	Auth         *auth.Service
	Registration *registration.Service
	Views        *viewstate.Registry
	Poller       *poller.Poller
	Limiter      *middlewarectx.IPRateLimiter
}

// memberships после изменения тарифов запрашивает внеочередной опрос,
// чтобы распределение по тарифам на дашборде обновилось сразу.
type memberships struct {
	*dashboard.Service
	poller *poller.Poller
}

func (m memberships) AddMembership(ctx context.Context, nm models.NewMembership) (string, error) {
	msg, err := m.Service.AddMembership(ctx, nm)
	if err == nil && m.poller != nil {
		m.poller.Trigger()
	}
	return msg, err
}

func (m memberships) DeleteMembership(ctx context.Context, id int64) (string, error) {
	msg, err := m.Service.DeleteMembership(ctx, id)
	if err == nil && m.poller != nil {
		m.poller.Trigger()
	}
	return msg, err
}

// Options параметры маршрутов из конфигурации.
type Options struct {
	GymName        string
	TokenTTL       time.Duration
	Secure         bool
	CSRFKey        []byte
	TrustedOrigins []string
	MaxPictureSize int64
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, opts Options) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	wizard := registrationhandler.New(logger, s.Registration, opts.MaxPictureSize)
	views := state.New(logger, s.Views)
	plans := memberships{Service: s.Dashboard, poller: s.Poller}

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, s.Auth, opts.TokenTTL, opts.Secure).ServeHTTP)
		r.Get("/health", health.New(logger, s.Dashboard).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))
			r.Use(middlewarectx.CSRF(opts.CSRFKey, opts.Secure, opts.TrustedOrigins, logger))

			r.Get("/dashboard", summary.New(logger, s.Dashboard).ServeHTTP)
			r.Post("/dashboard/refresh", refresh.New(logger, s.Dashboard).ServeHTTP)

			r.Get("/members", memberslist.New(logger, s.Dashboard).ServeHTTP)
			r.Get("/members/{id}/whatsapp", whatsapp.New(logger, s.Dashboard, opts.GymName).ServeHTTP)

			r.Get("/memberships", membershipslist.New(logger, s.Dashboard).ServeHTTP)
			r.Post("/memberships", create.New(logger, plans, s.Views).ServeHTTP)
			r.Delete("/memberships/{id}", remove.New(logger, plans, s.Views).ServeHTTP)

			r.Get("/payments/user/{id}", history.New(logger, s.Backend).ServeHTTP)
			r.Get("/payments/revenue/custom", revenue.New(logger, s.Backend).ServeHTTP)

			r.Get("/reminders/{id}/message", message.New(logger, s.Backend).ServeHTTP)
			r.Post("/reminders/{id}/send", send.New(logger, s.Backend, s.Views).ServeHTTP)

			r.Route("/registrations", func(r chi.Router) {
				r.Post("/", wizard.Start)
				r.Get("/{id}", wizard.Get)
				r.Delete("/{id}", wizard.Discard)
				r.Put("/{id}/step", wizard.Step)
				r.Post("/{id}/prev", wizard.Prev)
				r.Post("/{id}/goto/{step}", wizard.GoTo)
				r.Post("/{id}/picture", wizard.Picture)
				r.Post("/{id}/submit", wizard.Submit)
			})

			r.Get("/console/state", views.Get)
			r.Post("/console/state/{action}", views.Apply)

			r.Post("/logout", logout.New(logger, s.Views, s.Registration).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
