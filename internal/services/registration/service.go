package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/lib/whatsapp"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// Plans источник тарифов для подстановки стоимости.
type Plans interface {
	Memberships(ctx context.Context) ([]models.Membership, error)
}

// Registrar отправляет регистрацию в backend.
type Registrar interface {
	RegisterUser(ctx context.Context, r models.RegistrationRequest, picture *models.ProfilePicture) (models.RegistrationResult, error)
}

// Service управляет мастерами регистрации администраторов.
type Service struct {
	log        *slog.Logger
	store      *Store
	plans      Plans
	registrar  Registrar
	gymName    string
	maxPicture int64
	now        func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(log *slog.Logger, store *Store, plans Plans, registrar Registrar, cfg config.Registration, gymName string) *Service {
	return &Service{
		log:        log,
		store:      store,
		plans:      plans,
		registrar:  registrar,
		gymName:    gymName,
		maxPicture: cfg.MaxPictureSize,
		now:        store.now,
	}
}

// Start создаёт новый мастер для owner.
func (s *Service) Start(owner string) Wizard {
	w := NewWizard(uuid.NewString(), owner, s.now())
	s.store.Put(w)
	s.log.Info("registration started", slog.String("registration_id", w.ID), slog.String("owner", owner))
	return w.clone()
}

// Get возвращает мастер.
func (s *Service) Get(owner, id string) (Wizard, error) {
	return s.store.Get(owner, id)
}

// Step сливает изменения в форму и переходит к следующему шагу.
// Если проверка не прошла, изменения сохраняются, а шаг остаётся прежним.
func (s *Service) Step(ctx context.Context, owner, id string, u Update) (Wizard, error) {
	const op = "registration.Step"
	var plans []models.Membership
	if u.MembershipID != nil {
		var err error
		plans, err = s.plans.Memberships(ctx)
		if err != nil {
			return Wizard{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return s.store.Update(owner, id, func(w *Wizard) error {
		if err := w.Apply(u, plans); err != nil {
			return err
		}
		return w.Next()
	})
}

// Prev возвращает мастер на шаг назад.
func (s *Service) Prev(owner, id string) (Wizard, error) {
	return s.store.Update(owner, id, func(w *Wizard) error {
		if err := w.editable(); err != nil {
			return err
		}
		w.Prev()
		return nil
	})
}

// GoTo переходит на шаг step.
func (s *Service) GoTo(owner, id string, step int) (Wizard, error) {
	return s.store.Update(owner, id, func(w *Wizard) error {
		if err := w.editable(); err != nil {
			return err
		}
		return w.GoTo(step)
	})
}

// SetPicture прикрепляет фотографию.
func (s *Service) SetPicture(owner, id string, p models.ProfilePicture) (Wizard, error) {
	return s.store.Update(owner, id, func(w *Wizard) error {
		return w.SetPicture(p, s.maxPicture)
	})
}

// Submit повторно проверяет форму и регистрирует участника в backend'е.
// После успеха в мастере сохраняются ссылка на чек и ссылка для отправки чека в WhatsApp.
func (s *Service) Submit(ctx context.Context, owner, id string) (Wizard, error) {
	const op = "registration.Submit"

	w, err := s.store.Update(owner, id, func(w *Wizard) error {
		if err := w.editable(); err != nil {
			return err
		}
		if w.Step != StepReview {
			return ErrNotReview
		}
		if err := w.ValidateAll(); err != nil {
			return err
		}
		w.submitting = true
		return nil
	})
	if err != nil {
		return w, err
	}

	res, err := s.registrar.RegisterUser(ctx, w.Request(), w.Picture)
	if err != nil {
		_, _ = s.store.Update(owner, id, func(w *Wizard) error {
			w.submitting = false
			return nil
		})
		s.log.Error("registration failed", slog.String("registration_id", id), sl.Err(err))
		return Wizard{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.store.Update(owner, id, func(w *Wizard) error {
		w.submitting = false
		w.Submitted = true
		w.ReceiptURL = res.ReceiptURL
		w.Picture = nil
		if w.ReceiptURL != "" {
			link, err := whatsapp.Link(w.Form.MobileNumber, whatsapp.ReceiptMessage(s.gymName, w.Form.FullName, w.ReceiptURL))
			if err == nil {
				w.ShareLink = link
			}
		}
		s.log.Info("registration submitted", slog.String("registration_id", id))
		return nil
	})
}

// Discard удаляет мастер.
func (s *Service) Discard(owner, id string) {
	s.store.Delete(owner, id)
}

// DiscardOwner удаляет все мастера администратора, например при выходе.
func (s *Service) DiscardOwner(owner string) {
	s.store.DeleteOwner(owner)
}

// RunJanitor периодически удаляет истёкшие мастера до отмены ctx.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				s.log.Debug("expired registrations removed", slog.Int("count", n))
			}
		}
	}
}
