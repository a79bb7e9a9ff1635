// Package viewstate хранит состояние интерфейса консоли для каждого администратора:
// активный раздел, боковую панель, открытое модальное окно и всплывающее сообщение.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// FlashTTL время жизни всплывающего сообщения.
const FlashTTL = 5 * time.Second

// ModalTTL через сколько брошенное окно закрывается само и отпускает опрос.
const ModalTTL = 15 * time.Minute

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrUnknownModal   = errors.New("unknown modal")
)

// Section раздел консоли.
type Section string

const (
	SectionDashboard   Section = "dashboard"
	SectionUsers       Section = "users"
	SectionMemberships Section = "memberships"
	SectionPayments    Section = "payments"
	SectionReminders   Section = "reminders"
)

// Modal модальное окно.
type Modal string

const (
	ModalNone             Modal = "none"
	ModalDeleteMembership Modal = "deleteMembership"
	ModalPaymentHistory   Modal = "paymentHistory"
	ModalReminder         Modal = "reminder"
	ModalWhatsAppConfirm  Modal = "whatsappConfirm"
)

// FlashKind вид всплывающего сообщения.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

var sections = map[Section]struct{}{
	SectionDashboard: {}, SectionUsers: {}, SectionMemberships: {}, SectionPayments: {}, SectionReminders: {},
}

var modals = map[Modal]struct{}{
	ModalDeleteMembership: {}, ModalPaymentHistory: {}, ModalReminder: {}, ModalWhatsAppConfirm: {},
}

// ParseSection проверяет название раздела.
func ParseSection(s string) (Section, error) {
	sec := Section(s)
	if _, ok := sections[sec]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	return sec, nil
}

// ParseModal проверяет название модального окна. "none" не является окном.
func ParseModal(s string) (Modal, error) {
	m := Modal(s)
	if _, ok := modals[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModal, s)
	}
	return m, nil
}

// Flash всплывающее сообщение.
type Flash struct {
	Text      string    `json:"text"`
	Kind      FlashKind `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// State состояние интерфейса одного администратора.
type State struct {
	Section     Section `json:"section"`
	SidebarOpen bool    `json:"sidebar_open"`
	Modal       Modal   `json:"modal"`
	// Target id пользователя или тарифа, к которому относится окно.
	Target int64  `json:"target,omitempty"`
	Flash  *Flash `json:"flash,omitempty"`
	// ModalOpenedAt когда открыто текущее окно.
	ModalOpenedAt time.Time `json:"-"`
}

func initial() *State {
	return &State{Section: SectionDashboard, Modal: ModalNone}
}

func (s *State) copyAt(now time.Time) State {
	out := *s
	if s.Flash != nil {
		if now.Before(s.Flash.ExpiresAt) {
			f := *s.Flash
			out.Flash = &f
		} else {
			out.Flash = nil
		}
	}
	return out
}

// Pauser приостанавливает фоновый опрос, пока открыто окно.
type Pauser interface {
	Pause()
	Resume()
}

// Registry состояния интерфейса по имени администратора.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
	pauser Pauser
	now    func() time.Time
}

// NewRegistry создает новый экземпляр Registry. pauser может быть nil.
func NewRegistry(pauser Pauser, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		states: make(map[string]*State),
		pauser: pauser,
		now:    now,
	}
}

func (r *Registry) state(user string) *State {
	st, ok := r.states[user]
	if !ok {
		st = initial()
		r.states[user] = st
	}
	return st
}

func (r *Registry) update(user string, fn func(st *State) error) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state(user)
	r.expireModal(st, r.now())
	if err := fn(st); err != nil {
		return st.copyAt(r.now()), err
	}
	now := r.now()
	if st.Flash != nil && !now.Before(st.Flash.ExpiresAt) {
		st.Flash = nil
	}
	return st.copyAt(now), nil
}

// Get возвращает текущее состояние; протухшее сообщение не попадает в ответ.
func (r *Registry) Get(user string) State {
	st, _ := r.update(user, func(*State) error { return nil })
	return st
}

// Navigate переключает раздел и закрывает открытое окно.
func (r *Registry) Navigate(user string, section Section) (State, error) {
	return r.update(user, func(st *State) error {
		if _, ok := sections[section]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSection, section)
		}
		r.closeModal(st)
		st.Section = section
		st.SidebarOpen = false
		return nil
	})
}

// SetSidebar открывает или закрывает боковую панель.
func (r *Registry) SetSidebar(user string, open bool) State {
	st, _ := r.update(user, func(st *State) error {
		st.SidebarOpen = open
		return nil
	})
	return st
}

// OpenModal открывает окно. Первое открытое окно приостанавливает опрос,
// замена одного окна другим опрос не трогает.
func (r *Registry) OpenModal(user string, modal Modal, target int64) (State, error) {
	return r.update(user, func(st *State) error {
		if _, ok := modals[modal]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownModal, modal)
		}
		if st.Modal == ModalNone && r.pauser != nil {
			r.pauser.Pause()
		}
		st.Modal = modal
		st.Target = target
		st.ModalOpenedAt = r.now()
		return nil
	})
}

// CloseModal закрывает окно и возобновляет опрос.
func (r *Registry) CloseModal(user string) State {
	st, _ := r.update(user, func(st *State) error {
		r.closeModal(st)
		return nil
	})
	return st
}

func (r *Registry) closeModal(st *State) {
	if st.Modal == ModalNone {
		return
	}
	st.Modal = ModalNone
	st.Target = 0
	st.ModalOpenedAt = time.Time{}
	if r.pauser != nil {
		r.pauser.Resume()
	}
}

func (r *Registry) expireModal(st *State, now time.Time) bool {
	if st.Modal == ModalNone || now.Sub(st.ModalOpenedAt) < ModalTTL {
		return false
	}
	r.closeModal(st)
	return true
}

// Sweep закрывает окна, открытые дольше ModalTTL, и возвращает их количество.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for _, st := range r.states {
		if r.expireModal(st, now) {
			n++
		}
	}
	return n
}

// RunJanitor вызывает Sweep каждые interval до отмены ctx.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Flash показывает сообщение на FlashTTL.
func (r *Registry) Flash(user, text string, kind FlashKind) State {
	st, _ := r.update(user, func(st *State) error {
		st.Flash = &Flash{Text: text, Kind: kind, ExpiresAt: r.now().Add(FlashTTL)}
		return nil
	})
	return st
}

// Logout удаляет состояние администратора.
func (r *Registry) Logout(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[user]; ok {
		r.closeModal(st)
		delete(r.states, user)
	}
}

// Len количество администраторов с состоянием.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
