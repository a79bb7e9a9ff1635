package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/cache"
	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/grpc/health"
	"github.com/magabrotheeeer/gym-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gym-console/internal/lib/jwt"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/services/auth"
	"github.com/magabrotheeeer/gym-console/internal/services/dashboard"
	"github.com/magabrotheeeer/gym-console/internal/services/poller"
	"github.com/magabrotheeeer/gym-console/internal/services/registration"
	"github.com/magabrotheeeer/gym-console/internal/services/viewstate"
)

// App приложение консоли: HTTP API, опрос backend'а и gRPC health.
type App struct {
	server       *http.Server
	logger       *slog.Logger
	poller       *poller.Poller
	registration *registration.Service
	views        *viewstate.Registry
	health       *health.Server
	healthAddr   string
	janitorEvery time.Duration
	cache        *cache.Cache
}

// New создаёт приложение. Redis необязателен: без адреса снимок и тарифы не кешируются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	m := metrics.New(prometheus.DefaultRegisterer)
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, m)

	var (
		redisCache *cache.Cache
		dashCache  dashboard.Cache
	)
	if cfg.RedisConnection.Addr != "" {
		c, err := cache.New(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis is unavailable, continuing without cache", sl.Err(err))
		} else {
			redisCache, dashCache = c, c
		}
	}

	healthServer := health.New(logger)
	dash := dashboard.New(logger, client, dashCache, m, cfg.Dashboard,
		dashboard.WithRefreshHook(healthServer.SetServing))
	if dash.Restore(ctx) {
		healthServer.SetServing(nil)
	}

	p := poller.New(logger, cfg.Dashboard.PollInterval, func(ctx context.Context) error {
		_, err := dash.Refresh(ctx)
		return err
	})
	views := viewstate.NewRegistry(p, nil)

	store := registration.NewStore(cfg.Registration.WizardTTL, nil)
	wizards := registration.NewService(logger, store, dash, client, cfg.Registration, cfg.Reminder.GymName)

	maker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	authService := auth.NewService(cfg.Auth, client, maker)

	secure := cfg.Env == "prod"
	var csrfKey []byte
	if cfg.HTTPServer.CSRFKey != "" {
		csrfKey = []byte(cfg.HTTPServer.CSRFKey)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Backend:      client,
		Dashboard:    dash,
		Auth:         authService,
		Registration: wizards,
		Views:        views,
		Poller:       p,
		Limiter:      middlewarectx.NewIPRateLimiter(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst),
	}, Options{
		GymName:        cfg.Reminder.GymName,
		TokenTTL:       cfg.JWTToken.TokenTTL,
		Secure:         secure,
		CSRFKey:        csrfKey,
		TrustedOrigins: cfg.HTTPServer.TrustedOrigins,
		MaxPictureSize: cfg.Registration.MaxPictureSize,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	janitorEvery := cfg.Registration.WizardTTL / 4
	if janitorEvery <= 0 {
		janitorEvery = 15 * time.Minute
	}

	return &App{
		server:       srv,
		logger:       logger,
		poller:       p,
		registration: wizards,
		views:        views,
		health:       healthServer,
		healthAddr:   cfg.GRPCHealthAddress,
		janitorEvery: janitorEvery,
		cache:        redisCache,
	}, nil
}

// Run запускает фоновые задачи и HTTP-сервер и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go a.poller.Run(ctx)
	go a.registration.RunJanitor(ctx, a.janitorEvery)
	go a.views.RunJanitor(ctx, time.Minute)
	go func() {
		if err := a.health.Serve(a.healthAddr); err != nil {
			a.logger.Error("gRPC health server stopped", sl.Err(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	a.health.Stop()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
}
