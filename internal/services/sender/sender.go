// Package sender доставляет задания на напоминание из очереди выбранным каналом
// и отмечает доставку в журнале.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/storage"
)

// Deliveries отметки о доставке в журнале.
type Deliveries interface {
	MarkDelivered(ctx context.Context, id, channel string, at time.Time) error
}

// SenderService обработчик сообщений очереди напоминаний.
type SenderService struct {
	log        *slog.Logger
	channel    Channel
	deliveries Deliveries
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewSenderService создает новый экземпляр SenderService. deliveries и m могут быть nil.
func NewSenderService(log *slog.Logger, channel Channel, deliveries Deliveries, m *metrics.Metrics) *SenderService {
	return &SenderService{
		log:        log,
		channel:    channel,
		deliveries: deliveries,
		metrics:    m,
		now:        time.Now,
	}
}

// Handle разбирает задание и доставляет его. Ошибка возвращает сообщение в очередь;
// битое сообщение подтверждается, чтобы не крутиться в очереди вечно.
func (s *SenderService) Handle(ctx context.Context, body []byte) error {
	const op = "sender.Handle"
	var job models.ReminderJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal reminder job, dropping", sl.Err(err))
		return nil
	}
	log := s.log.With(
		slog.String("job_id", job.ID),
		slog.Int64("user_id", job.UserID),
		slog.String("kind", string(job.Kind)),
		slog.String("channel", s.channel.Name()),
	)

	if err := s.channel.Deliver(ctx, job); err != nil {
		if errors.Is(err, ErrNoEmail) {
			log.Warn("reminder skipped", sl.Err(err))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.metrics != nil {
		s.metrics.RemindersSent.WithLabelValues(string(job.Kind), s.channel.Name()).Inc()
	}
	if s.deliveries != nil {
		if err := s.deliveries.MarkDelivered(ctx, job.ID, s.channel.Name(), s.now()); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Warn("delivered reminder is missing from ledger")
			} else {
				log.Error("failed to mark reminder delivered", sl.Err(err))
			}
		}
	}
	log.Info("reminder delivered")
	return nil
}
