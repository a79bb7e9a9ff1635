package viewstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pauserMock struct {
	paused, resumed int
}

func (p *pauserMock) Pause()  { p.paused++ }
func (p *pauserMock) Resume() { p.resumed++ }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newRegistry() (*Registry, *pauserMock, *clock) {
	p := &pauserMock{}
	c := &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	return NewRegistry(p, c.now), p, c
}

func TestRegistry_Initial(t *testing.T) {
	r, _, _ := newRegistry()
	st := r.Get("admin")
	assert.Equal(t, SectionDashboard, st.Section)
	assert.Equal(t, ModalNone, st.Modal)
	assert.False(t, st.SidebarOpen)
	assert.Nil(t, st.Flash)
}

func TestRegistry_Navigate(t *testing.T) {
	r, p, _ := newRegistry()
	r.SetSidebar("admin", true)
	_, err := r.OpenModal("admin", ModalReminder, 7)
	require.NoError(t, err)

	st, err := r.Navigate("admin", SectionPayments)
	require.NoError(t, err)
	assert.Equal(t, SectionPayments, st.Section)
	assert.False(t, st.SidebarOpen)
	assert.Equal(t, ModalNone, st.Modal)
	assert.Equal(t, 1, p.resumed)

	_, err = r.Navigate("admin", "settings")
	require.ErrorIs(t, err, ErrUnknownSection)
	assert.Equal(t, SectionPayments, r.Get("admin").Section)
}

func TestRegistry_ModalPausesPoller(t *testing.T) {
	r, p, _ := newRegistry()

	st, err := r.OpenModal("admin", ModalPaymentHistory, 3)
	require.NoError(t, err)
	assert.Equal(t, ModalPaymentHistory, st.Modal)
	assert.Equal(t, int64(3), st.Target)
	assert.Equal(t, 1, p.paused)

	_, err = r.OpenModal("admin", ModalWhatsAppConfirm, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, p.paused)

	_, err = r.OpenModal("admin", "popup", 0)
	require.ErrorIs(t, err, ErrUnknownModal)

	st = r.CloseModal("admin")
	assert.Equal(t, ModalNone, st.Modal)
	assert.Zero(t, st.Target)
	assert.Equal(t, 1, p.resumed)

	r.CloseModal("admin")
	assert.Equal(t, 1, p.resumed)
}

func TestRegistry_FlashExpires(t *testing.T) {
	r, _, c := newRegistry()

	st := r.Flash("admin", "Membership added", FlashSuccess)
	require.NotNil(t, st.Flash)
	assert.Equal(t, FlashSuccess, st.Flash.Kind)

	c.t = c.t.Add(4 * time.Second)
	require.NotNil(t, r.Get("admin").Flash)

	c.t = c.t.Add(time.Second)
	assert.Nil(t, r.Get("admin").Flash)
}

func TestRegistry_PerUserAndLogout(t *testing.T) {
	r, p, _ := newRegistry()
	_, err := r.Navigate("alice", SectionUsers)
	require.NoError(t, err)
	_, err = r.OpenModal("bob", ModalDeleteMembership, 2)
	require.NoError(t, err)

	assert.Equal(t, SectionDashboard, r.Get("bob").Section)
	assert.Equal(t, 2, r.Len())

	r.Logout("bob")
	assert.Equal(t, 1, p.resumed)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, ModalNone, r.Get("bob").Modal)

	r.Logout("nobody")
}

func TestRegistry_AbandonedModalReleasesPoller(t *testing.T) {
	r, p, c := newRegistry()

	_, err := r.OpenModal("a", ModalReminder, 1)
	require.NoError(t, err)
	_, err = r.OpenModal("b", ModalPaymentHistory, 2)
	require.NoError(t, err)
	require.Equal(t, 2, p.paused)

	c.t = c.t.Add(ModalTTL - time.Second)
	assert.Zero(t, r.Sweep())
	assert.Zero(t, p.resumed)

	// b продолжает работать с окном, a бросил вкладку.
	_, err = r.OpenModal("b", ModalReminder, 3)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Second)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, p.resumed)
	assert.Equal(t, ModalNone, r.Get("a").Modal)
	assert.Equal(t, ModalReminder, r.Get("b").Modal)

	assert.Zero(t, r.Sweep())
	assert.Equal(t, 1, p.resumed)
}

func TestRegistry_ExpiredModalClosedOnAccess(t *testing.T) {
	r, p, c := newRegistry()

	_, err := r.OpenModal("admin", ModalWhatsAppConfirm, 4)
	require.NoError(t, err)
	c.t = c.t.Add(ModalTTL)

	st := r.Get("admin")
	assert.Equal(t, ModalNone, st.Modal)
	assert.Zero(t, st.Target)
	assert.Equal(t, 1, p.resumed)

	_, err = r.OpenModal("admin", ModalReminder, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, p.paused)
	assert.Equal(t, 1, p.resumed)
}

func TestRegistry_RunJanitorStops(t *testing.T) {
	r, _, _ := newRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestParse(t *testing.T) {
	s, err := ParseSection("memberships")
	require.NoError(t, err)
	assert.Equal(t, SectionMemberships, s)

	_, err = ParseModal("none")
	require.ErrorIs(t, err, ErrUnknownModal)

	m, err := ParseModal("reminder")
	require.NoError(t, err)
	assert.Equal(t, ModalReminder, m)
}
