// Package sender собирает отправителя напоминаний: он читает задания из
// очередей RabbitMQ и доставляет их выбранным каналом.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/lib/smtp"
	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/migrations"
	senderservice "github.com/magabrotheeeer/gym-console/internal/services/sender"
	"github.com/magabrotheeeer/gym-console/internal/storage"
)

// App представляет приложение отправителя.
type App struct {
	db            *storage.Storage
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	concurrency   int
	logger        *slog.Logger
}

// NewChannel выбирает канал доставки по конфигурации.
func NewChannel(cfg *config.Config, logger *slog.Logger) (senderservice.Channel, error) {
	renderer := senderservice.NewRenderer(cfg.Reminder.GymName)
	switch cfg.Reminder.Channel {
	case config.ChannelBackend, "":
		return senderservice.NewBackendChannel(backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil)), nil
	case config.ChannelSMTP:
		return senderservice.NewSMTPChannel(smtp.NewTransport(cfg.SMTP, logger), renderer), nil
	case config.ChannelResend:
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend api key is not set")
		}
		return senderservice.NewResendChannel(resend.NewClient(cfg.Resend.APIKey).Emails, cfg.Resend.From, renderer), nil
	default:
		return nil, fmt.Errorf("unknown reminder channel %q", cfg.Reminder.Channel)
	}
}

// New создает новый экземпляр приложения отправителя.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	channel, err := NewChannel(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := storage.Connect(ctx, cfg.StorageConnectionString, 10, 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReminderQueues(), cfg.Reminder.Concurrency)
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	logger.Info("reminder channel selected", slog.String("channel", channel.Name()))

	return &App{
		db:            db,
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(logger, channel, db, m),
		concurrency:   cfg.Reminder.Concurrency,
		logger:        logger,
	}, nil
}

// Run подписывается на очереди напоминаний и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetReminderQueues() {
		err := rabbitmq.ConsumeMessages(ctx, a.ch, q.QueueName, a.concurrency, a.logger, a.senderService.Handle)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
