package registration

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound мастер не найден, истёк или принадлежит другому администратору.
var ErrNotFound = errors.New("registration not found")

// Store хранит мастера в памяти процесса. Мастер без изменений дольше ttl удаляется.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	wizards map[string]*Wizard
}

// NewStore создает новый экземпляр Store.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Store{ttl: ttl, now: now, wizards: make(map[string]*Wizard)}
}

// Put сохраняет мастер.
func (s *Store) Put(w *Wizard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.UpdatedAt = s.now()
	s.wizards[w.ID] = w
}

// Get возвращает копию мастера владельца owner.
func (s *Store) Get(owner, id string) (Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.lookup(owner, id)
	if err != nil {
		return Wizard{}, err
	}
	return w.clone(), nil
}

// Update применяет fn к мастеру под блокировкой и возвращает копию результата.
// При ошибке fn изменения всё равно остаются, поэтому fn должна проверять до изменения.
func (s *Store) Update(owner, id string, fn func(w *Wizard) error) (Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.lookup(owner, id)
	if err != nil {
		return Wizard{}, err
	}
	if err := fn(w); err != nil {
		return w.clone(), err
	}
	w.UpdatedAt = s.now()
	return w.clone(), nil
}

// Delete удаляет мастер.
func (s *Store) Delete(owner, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wizards[id]; ok && w.Owner == owner {
		delete(s.wizards, id)
	}
}

// DeleteOwner удаляет все мастера администратора.
func (s *Store) DeleteOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, w := range s.wizards {
		if w.Owner == owner {
			delete(s.wizards, id)
			n++
		}
	}
	return n
}

// Sweep удаляет истёкшие мастера и возвращает их число.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, w := range s.wizards {
		if now.Sub(w.UpdatedAt) > s.ttl {
			delete(s.wizards, id)
			n++
		}
	}
	return n
}

// Len количество мастеров.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wizards)
}

func (s *Store) lookup(owner, id string) (*Wizard, error) {
	w, ok := s.wizards[id]
	if !ok || w.Owner != owner || s.now().Sub(w.UpdatedAt) > s.ttl {
		return nil, ErrNotFound
	}
	return w, nil
}
