// Package dashboard держит последний снимок данных backend'а, классифицированный
// относительно момента получения, и отдаёт по нему сводку, списки участников и тарифы.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/gym-console/internal/cache"
	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// ErrNoSnapshot данные ещё ни разу не были получены.
var ErrNoSnapshot = errors.New("dashboard data is not loaded yet")

// Backend источник данных дашборда.
type Backend interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListMemberships(ctx context.Context) ([]models.Membership, error)
	Revenue(ctx context.Context) (models.Revenue, error)
	AddMembership(ctx context.Context, m models.NewMembership) (string, error)
	DeleteMembership(ctx context.Context, id int64) (string, error)
}

// Cache хранилище JSON-значений.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Snapshot данные одного успешного обновления.
type Snapshot struct {
	Users       []models.User       `json:"users"`
	Memberships []models.Membership `json:"memberships"`
	Result      classifier.Result   `json:"result"`
	Revenue     models.Revenue      `json:"revenue"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Generation  uint64              `json:"generation"`
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRefreshHook вызывает fn после каждого обновления с его ошибкой.
func WithRefreshHook(fn func(error)) Option {
	return func(s *Service) { s.hooks = append(s.hooks, fn) }
}

// Service сервис дашборда.
type Service struct {
	log     *slog.Logger
	backend Backend
	cache   Cache
	metrics *metrics.Metrics
	now     func() time.Time
	ttl     time.Duration
	topN    int
	hooks   []func(error)

	mu      sync.RWMutex
	issued  uint64
	snap    *Snapshot
	lastErr error
}

// New создаёт сервис. cache и m могут быть nil.
func New(log *slog.Logger, b Backend, c Cache, m *metrics.Metrics, cfg config.Dashboard, opts ...Option) *Service {
	s := &Service{
		log:     log,
		backend: b,
		cache:   c,
		metrics: m,
		now:     time.Now,
		ttl:     cfg.SnapshotTTL,
		topN:    cfg.TopN,
	}
	if s.topN <= 0 {
		s.topN = 5
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore поднимает последний снимок из кеша, если в памяти его ещё нет.
func (s *Service) Restore(ctx context.Context) bool {
	const op = "dashboard.Restore"
	if s.cache == nil {
		return false
	}
	var snap Snapshot
	found, err := s.cache.Get(ctx, cache.KeyDashboardSnapshot, &snap)
	if err != nil {
		s.log.Warn("failed to read cached snapshot", slog.String("op", op), sl.Err(err))
		return false
	}
	if !found {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return false
	}
	// любое обновление в этом процессе новее восстановленного снимка
	snap.Generation = 0
	s.snap = &snap
	s.log.Info("restored dashboard snapshot from cache", slog.Time("fetched_at", snap.FetchedAt))
	return true
}

// Refresh параллельно запрашивает пользователей, тарифы и выручку и
// классифицирует их. Результат принимается, только если за время запроса
// не завершилось более позднее обновление. При ошибке прежний снимок остаётся.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	const op = "dashboard.Refresh"

	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	var (
		users       []models.User
		memberships []models.Membership
		revenue     models.Revenue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.backend.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		memberships, err = s.backend.ListMemberships(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = s.backend.Revenue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		s.mu.Lock()
		if s.snap == nil || gen > s.snap.Generation {
			s.lastErr = err
		}
		s.mu.Unlock()
		s.log.Error("failed to refresh dashboard", slog.Uint64("generation", gen), sl.Err(err))
		s.notify(err)
		return nil, err
	}

	now := s.now()
	snap := &Snapshot{
		Users:       users,
		Memberships: memberships,
		Result:      classifier.Classify(users, memberships, now),
		Revenue:     revenue,
		FetchedAt:   now,
		Generation:  gen,
	}

	s.mu.Lock()
	if s.snap != nil && s.snap.Generation >= gen {
		current := s.snap
		s.mu.Unlock()
		s.log.Debug("discarded outdated refresh", slog.Uint64("generation", gen), slog.Uint64("current", current.Generation))
		return current, nil
	}
	s.snap = snap
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.ObserveClassification(snap.Result)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyDashboardSnapshot, snap, s.ttl); err != nil {
			s.log.Warn("failed to cache snapshot", slog.String("op", op), sl.Err(err))
		}
	}
	s.log.Info("dashboard refreshed",
		slog.Uint64("generation", gen),
		slog.Int("users", snap.Result.TotalUsers),
		slog.Int("expiring_soon", len(snap.Result.ExpiringSoon)),
		slog.Int("expired", len(snap.Result.Expired)),
	)
	s.notify(nil)
	return snap, nil
}

func (s *Service) notify(err error) {
	for _, fn := range s.hooks {
		fn(err)
	}
}

// Snapshot возвращает текущий снимок или ErrNoSnapshot.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoSnapshot
	}
	return s.snap, nil
}

// LastError ошибка последнего неудачного обновления, если после него не было успешного.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
