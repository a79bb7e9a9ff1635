package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/gym-console/internal/cache"
	"github.com/magabrotheeeer/gym-console/internal/classifier"
	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

// DefaultPageSize размер страницы списка участников.
const DefaultPageSize = 10

// ErrMemberNotFound пользователя нет в текущем снимке.
var ErrMemberNotFound = errors.New("member not found")

// Filter параметры списка участников.
type Filter struct {
	Search string
	Status classifier.Status
	Limit  int
	Offset int
}

// Page страница списка участников.
type Page struct {
	Members []classifier.Member `json:"members"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

func (f Filter) matches(m classifier.Member) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.User.FullName), term) ||
		strings.Contains(strings.ToLower(m.User.Email), term) ||
		strings.Contains(m.User.MobileNumber, term)
}

// Members возвращает участников снимка с производным статусом, отфильтрованных
// и разбитых на страницы. Статус считается относительно момента получения снимка.
func (s *Service) Members(f Filter) (Page, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return Page{}, err
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	matched := make([]classifier.Member, 0, len(snap.Users))
	for _, u := range snap.Users {
		m := classifier.Evaluate(u, snap.FetchedAt)
		if f.matches(m) {
			matched = append(matched, m)
		}
	}

	page := Page{Total: len(matched), Limit: f.Limit, Offset: f.Offset, Members: []classifier.Member{}}
	if f.Offset >= len(matched) {
		return page, nil
	}
	end := f.Offset + min(f.Limit, len(matched)-f.Offset)
	page.Members = matched[f.Offset:end]
	return page, nil
}

// Member возвращает участника по id.
func (s *Service) Member(id int64) (classifier.Member, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return classifier.Member{}, err
	}
	for _, u := range snap.Users {
		if u.ID == id {
			return classifier.Evaluate(u, snap.FetchedAt), nil
		}
	}
	return classifier.Member{}, ErrMemberNotFound
}

// Memberships возвращает тарифы из кеша или backend'а.
func (s *Service) Memberships(ctx context.Context) ([]models.Membership, error) {
	const op = "dashboard.Memberships"
	if s.cache != nil {
		var cached []models.Membership
		found, err := s.cache.Get(ctx, cache.KeyMemberships, &cached)
		if err != nil {
			s.log.Warn("failed to read memberships from cache", slog.String("op", op), sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	ms, err := s.backend.ListMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyMemberships, ms, s.ttl); err != nil {
			s.log.Warn("failed to cache memberships", slog.String("op", op), sl.Err(err))
		}
	}
	return ms, nil
}

// AddMembership создаёт тариф и сбрасывает кеш тарифов.
func (s *Service) AddMembership(ctx context.Context, m models.NewMembership) (string, error) {
	const op = "dashboard.AddMembership"
	msg, err := s.backend.AddMembership(ctx, m)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateMemberships(ctx)
	return msg, nil
}

// DeleteMembership удаляет тариф и сбрасывает кеш тарифов.
func (s *Service) DeleteMembership(ctx context.Context, id int64) (string, error) {
	const op = "dashboard.DeleteMembership"
	msg, err := s.backend.DeleteMembership(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateMemberships(ctx)
	return msg, nil
}

func (s *Service) invalidateMemberships(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.KeyMemberships); err != nil {
		s.log.Warn("failed to invalidate memberships cache", sl.Err(err))
	}
}
