// Package reminder находит участников с истекающим или истёкшим абонементом
// и ставит для них задания на напоминание в очередь, не чаще одного в день.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// Source данные backend'а для классификации.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListMemberships(ctx context.Context) ([]models.Membership, error)
}

// Ledger журнал поставленных напоминаний.
type Ledger interface {
	WasDispatched(ctx context.Context, userID int64, kind models.ReminderKind, day time.Time) (bool, error)
	RecordDispatch(ctx context.Context, job models.ReminderJob, day time.Time) (bool, error)
}

// Publisher публикация задания с ключом маршрутизации.
type Publisher interface {
	Publish(routingKey, messageID string, message any) error
}

// Stats итог одного прохода.
type Stats struct {
	Candidates int
	Published  int
	Skipped    int
	Failed     int
}

// SchedulerService планировщик напоминаний.
type SchedulerService struct {
	log       *slog.Logger
	source    Source
	ledger    Ledger
	publisher Publisher
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(log *slog.Logger, source Source, ledger Ledger, publisher Publisher, now func() time.Time) *SchedulerService {
	if now == nil {
		now = time.Now
	}
	return &SchedulerService{
		log:       log,
		source:    source,
		ledger:    ledger,
		publisher: publisher,
		now:       now,
	}
}

// Jobs строит задания для истекающих и истёкших участников результата.
func Jobs(r classifier.Result) []models.ReminderJob {
	jobs := make([]models.ReminderJob, 0, len(r.ExpiringSoon)+len(r.Expired))
	add := func(members []classifier.Member, kind models.ReminderKind) {
		for _, m := range members {
			jobs = append(jobs, models.ReminderJob{
				ID:       uuid.NewString(),
				UserID:   m.User.ID,
				FullName: m.User.FullName,
				Email:    m.User.Email,
				Mobile:   m.User.MobileNumber,
				Plan:     m.User.MembershipName(),
				DaysLeft: m.DaysLeft,
				Kind:     kind,
			})
		}
	}
	add(r.ExpiringSoon, models.ReminderExpiring)
	add(r.Expired, models.ReminderExpired)
	return jobs
}

// RunOnce выполняет один проход: получение данных, классификация и публикация.
func (s *SchedulerService) RunOnce(ctx context.Context) (Stats, error) {
	const op = "reminder.RunOnce"

	var (
		users       []models.User
		memberships []models.Membership
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.source.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		memberships, err = s.source.ListMemberships(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	jobs := Jobs(classifier.Classify(users, memberships, now))
	stats := Stats{Candidates: len(jobs)}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%s: %w", op, err)
		}
		log := s.log.With(slog.Int64("user_id", job.UserID), slog.String("kind", string(job.Kind)))

		sent, err := s.ledger.WasDispatched(ctx, job.UserID, job.Kind, now)
		if err != nil {
			log.Error("failed to check reminder ledger", sl.Err(err))
			stats.Failed++
			continue
		}
		if sent {
			stats.Skipped++
			continue
		}

		if err := s.publisher.Publish(string(job.Kind), job.ID, job); err != nil {
			log.Error("failed to publish reminder", sl.Err(err))
			stats.Failed++
			continue
		}
		if _, err := s.ledger.RecordDispatch(ctx, job, now); err != nil {
			log.Error("failed to record reminder", sl.Err(err))
		}
		stats.Published++
	}
	return stats, nil
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	s.log.Info("starting reminder pass")
	stats, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("reminder pass failed", sl.Err(err))
		return
	}
	s.log.Info("reminder pass finished",
		slog.Int("candidates", stats.Candidates),
		slog.Int("published", stats.Published),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
	)
}
