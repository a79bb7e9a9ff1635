// Package storage реализует журнал отправленных напоминаний в PostgreSQL.
// Журнал не даёт планировщику поставить одно и то же напоминание дважды за день.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/gym-console/internal/models"
)

// ErrNotFound запись журнала не найдена.
var ErrNotFound = errors.New("dispatch not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// Dispatch запись журнала напоминаний.
type Dispatch struct {
	ID          string
	UserID      int64
	Kind        models.ReminderKind
	Day         time.Time
	DaysLeft    int
	PublishedAt time.Time
	DeliveredAt *time.Time
	Channel     string
}

// New открывает подключение к PostgreSQL и проверяет его.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// Connect повторяет New до retries раз с паузой delay, пока база поднимается.
func Connect(ctx context.Context, storageConnectionString string, retries int, delay time.Duration) (*Storage, error) {
	const op = "storage.Connect"
	if retries < 1 {
		retries = 1
	}
	var err error
	for range retries {
		var s *Storage
		if s, err = New(ctx, storageConnectionString); err == nil {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%s: database not ready after retries: %w", op, err)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// truncateDay обрезает момент до календарного дня в его собственной зоне.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WasDispatched сообщает, ставилось ли напоминание kind пользователю userID в день day.
func (s *Storage) WasDispatched(ctx context.Context, userID int64, kind models.ReminderKind, day time.Time) (bool, error) {
	const op = "storage.WasDispatched"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
		SELECT 1 FROM reminder_dispatches
		WHERE user_id = $1 AND kind = $2 AND dispatch_day = $3
	)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userID, string(kind), truncateDay(day)).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// RecordDispatch записывает поставленное в очередь напоминание. Возвращает false,
// если запись за этот день уже была.
func (s *Storage) RecordDispatch(ctx context.Context, job models.ReminderJob, day time.Time) (bool, error) {
	const op = "storage.RecordDispatch"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_dispatches (id, user_id, kind, dispatch_day, days_left)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT ON CONSTRAINT reminder_dispatches_user_kind_day DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query, job.ID, job.UserID, string(job.Kind), truncateDay(day), job.DaysLeft)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// MarkDelivered отмечает доставку напоминания id через канал channel.
func (s *Storage) MarkDelivered(ctx context.Context, id, channel string, at time.Time) error {
	const op = "storage.MarkDelivered"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE reminder_dispatches SET delivered_at = $2, channel = $3 WHERE id = $1`,
		id, at, channel)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListDispatches возвращает записи журнала за день day в порядке постановки.
func (s *Storage) ListDispatches(ctx context.Context, day time.Time) ([]Dispatch, error) {
	const op = "storage.ListDispatches"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, kind, dispatch_day, days_left, published_at, delivered_at, COALESCE(channel, '')
		FROM reminder_dispatches
		WHERE dispatch_day = $1
		ORDER BY published_at, user_id`, truncateDay(day))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []Dispatch
	for rows.Next() {
		var d Dispatch
		var kind string
		var delivered sql.NullTime
		if err := rows.Scan(&d.ID, &d.UserID, &kind, &d.Day, &d.DaysLeft, &d.PublishedAt, &delivered, &d.Channel); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		d.Kind = models.ReminderKind(kind)
		if delivered.Valid {
			t := delivered.Time
			d.DeliveredAt = &t
		}
		res = append(res, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
