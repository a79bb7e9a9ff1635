package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/magabrotheeeer/gym-console/internal/lib/smtp"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// ErrNoEmail у участника нет адреса почты.
var ErrNoEmail = errors.New("member has no email address")

// Channel способ доставки напоминания.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, job models.ReminderJob) error
}

// ReminderSender backend, который сам отправляет напоминание.
type ReminderSender interface {
	SendReminder(ctx context.Context, userID int64) (models.ReminderStatus, error)
}

// BackendChannel доставка через POST /api/reminder/send/{id}.
type BackendChannel struct {
	client ReminderSender
}

// NewBackendChannel создает новый экземпляр BackendChannel.
func NewBackendChannel(client ReminderSender) *BackendChannel {
	return &BackendChannel{client: client}
}

func (c *BackendChannel) Name() string { return "backend" }

func (c *BackendChannel) Deliver(ctx context.Context, job models.ReminderJob) error {
	if _, err := c.client.SendReminder(ctx, job.UserID); err != nil {
		return fmt.Errorf("sender.BackendChannel: %w", err)
	}
	return nil
}

// SMTPChannel доставка письмом через SMTP.
type SMTPChannel struct {
	dialer   smtp.Dialer
	renderer *Renderer
}

// NewSMTPChannel создает новый экземпляр SMTPChannel.
func NewSMTPChannel(dialer smtp.Dialer, renderer *Renderer) *SMTPChannel {
	return &SMTPChannel{dialer: dialer, renderer: renderer}
}

func (c *SMTPChannel) Name() string { return "smtp" }

func (c *SMTPChannel) Deliver(_ context.Context, job models.ReminderJob) error {
	const op = "sender.SMTPChannel"
	if strings.TrimSpace(job.Email) == "" {
		return fmt.Errorf("%s: %w", op, ErrNoEmail)
	}
	email, err := c.renderer.Render(job)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := smtp.Send(c.dialer, email.To, email.Subject, email.HTML); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResendEmails часть клиента Resend для отправки писем.
type ResendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendChannel доставка письмом через Resend API.
type ResendChannel struct {
	emails   ResendEmails
	from     string
	renderer *Renderer
}

// NewResendChannel создает новый экземпляр ResendChannel.
func NewResendChannel(emails ResendEmails, from string, renderer *Renderer) *ResendChannel {
	return &ResendChannel{emails: emails, from: from, renderer: renderer}
}

func (c *ResendChannel) Name() string { return "resend" }

func (c *ResendChannel) Deliver(ctx context.Context, job models.ReminderJob) error {
	const op = "sender.ResendChannel"
	if strings.TrimSpace(job.Email) == "" {
		return fmt.Errorf("%s: %w", op, ErrNoEmail)
	}
	email, err := c.renderer.Render(job)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
