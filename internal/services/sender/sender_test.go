package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/lib/smtp"
	"github.com/magabrotheeeer/gym-console/internal/metrics"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/storage"
)

type ChannelMock struct{ mock.Mock }

func (m *ChannelMock) Name() string { return "mock" }

func (m *ChannelMock) Deliver(ctx context.Context, job models.ReminderJob) error {
	return m.Called(ctx, job).Error(0)
}

type DeliveriesMock struct{ mock.Mock }

func (m *DeliveriesMock) MarkDelivered(ctx context.Context, id, channel string, at time.Time) error {
	return m.Called(ctx, id, channel, at).Error(0)
}

type ReminderSenderMock struct{ mock.Mock }

func (m *ReminderSenderMock) SendReminder(ctx context.Context, userID int64) (models.ReminderStatus, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.ReminderStatus), args.Error(1)
}

type ResendMock struct{ mock.Mock }

func (m *ResendMock) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*resend.SendEmailResponse)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func jobBody(t *testing.T, job models.ReminderJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

var job = models.ReminderJob{
	ID: "job-1", UserID: 7, FullName: "Ravi Kumar", Email: "ravi@example.com",
	Plan: "Gold", DaysLeft: 3, Kind: models.ReminderExpiring,
}

func TestHandle_DeliversAndMarks(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Deliver", mock.Anything, job).Return(nil).Once()
	d := new(DeliveriesMock)
	d.On("MarkDelivered", mock.Anything, "job-1", "mock", mock.Anything).Return(nil).Once()
	m := metrics.New(prometheus.NewRegistry())

	s := NewSenderService(newNoopLogger(), ch, d, m)
	require.NoError(t, s.Handle(context.Background(), jobBody(t, job)))

	ch.AssertExpectations(t)
	d.AssertExpectations(t)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RemindersSent.WithLabelValues("expiring", "mock")), 0)
}

func TestHandle_DeliveryErrorRequeues(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Deliver", mock.Anything, job).Return(errors.New("smtp down")).Once()
	d := new(DeliveriesMock)

	s := NewSenderService(newNoopLogger(), ch, d, nil)
	err := s.Handle(context.Background(), jobBody(t, job))
	require.Error(t, err)
	d.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_DropsMalformedAndNoEmail(t *testing.T) {
	ch := new(ChannelMock)
	s := NewSenderService(newNoopLogger(), ch, nil, nil)
	require.NoError(t, s.Handle(context.Background(), []byte("{not json")))
	ch.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)

	ch.On("Deliver", mock.Anything, mock.Anything).Return(fmt.Errorf("x: %w", ErrNoEmail)).Once()
	require.NoError(t, s.Handle(context.Background(), jobBody(t, job)))
}

func TestHandle_LedgerMissIsNotFatal(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Deliver", mock.Anything, job).Return(nil)
	d := new(DeliveriesMock)
	d.On("MarkDelivered", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ErrNotFound)

	s := NewSenderService(newNoopLogger(), ch, d, nil)
	require.NoError(t, s.Handle(context.Background(), jobBody(t, job)))
}

func TestRenderer(t *testing.T) {
	r := NewRenderer("VipGym")

	email, err := r.Render(job)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", email.To)
	assert.Equal(t, "Your Gold membership is expiring soon", email.Subject)
	assert.Contains(t, email.HTML, "<strong>Ravi Kumar</strong>")
	assert.Contains(t, email.HTML, "will expire in 3 days")
	assert.Contains(t, email.HTML, "<em>Gold</em>")

	expired := job
	expired.Kind = models.ReminderExpired
	expired.DaysLeft = -5
	email, err = r.Render(expired)
	require.NoError(t, err)
	assert.Equal(t, "Your Gold membership has expired", email.Subject)
	assert.Contains(t, email.HTML, "expired 5 days ago")

	_, err = r.Render(models.ReminderJob{Kind: "weekly"})
	require.Error(t, err)
}

func TestRenderer_EscapesMarkup(t *testing.T) {
	j := job
	j.FullName = "<script>x</script>"
	email, err := NewRenderer("VipGym").Render(j)
	require.NoError(t, err)
	assert.NotContains(t, email.HTML, "<script>")
}

func TestBackendChannel(t *testing.T) {
	b := new(ReminderSenderMock)
	b.On("SendReminder", mock.Anything, int64(7)).Return(models.ReminderStatus{Status: "Email sent"}, nil).Once()
	require.NoError(t, NewBackendChannel(b).Deliver(context.Background(), job))

	b.On("SendReminder", mock.Anything, int64(8)).Return(models.ReminderStatus{}, errors.New("404")).Once()
	other := job
	other.UserID = 8
	require.Error(t, NewBackendChannel(b).Deliver(context.Background(), other))
}

func TestResendChannel(t *testing.T) {
	rm := new(ResendMock)
	rm.On("SendWithContext", mock.Anything, mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
		return p.From == "gym@example.com" &&
			len(p.To) == 1 && p.To[0] == "ravi@example.com" &&
			p.Subject == "Your Gold membership is expiring soon" &&
			p.Html != ""
	})).Return(&resend.SendEmailResponse{Id: "re_1"}, nil).Once()

	c := NewResendChannel(rm, "gym@example.com", NewRenderer("VipGym"))
	assert.Equal(t, "resend", c.Name())
	require.NoError(t, c.Deliver(context.Background(), job))
	rm.AssertExpectations(t)

	noEmail := job
	noEmail.Email = ""
	require.ErrorIs(t, c.Deliver(context.Background(), noEmail), ErrNoEmail)
}

type fakeClient struct {
	from, to string
	data     bytes.Buffer
}

func (c *fakeClient) Mail(from string) error { c.from = from; return nil }
func (c *fakeClient) Rcpt(to string) error { c.to = to; return nil }
func (c *fakeClient) Data() (io.WriteCloser, error) { return nopWriteCloser{&c.data}, nil }
func (c *fakeClient) Quit() error { return nil }
func (c *fakeClient) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type fakeDialer struct{ client *fakeClient }

func (d fakeDialer) Connect() (smtp.Client, error) { return d.client, nil }
func (d fakeDialer) From() string { return "gym@example.com" }

func TestSMTPChannel(t *testing.T) {
	client := &fakeClient{}
	c := NewSMTPChannel(fakeDialer{client: client}, NewRenderer("VipGym"))

	require.NoError(t, c.Deliver(context.Background(), job))
	assert.Equal(t, "gym@example.com", client.from)
	assert.Equal(t, "ravi@example.com", client.to)
	assert.Contains(t, client.data.String(), "Subject: Your Gold membership is expiring soon")
	assert.Contains(t, client.data.String(), "<strong>Ravi Kumar</strong>")

	noEmail := job
	noEmail.Email = "  "
	require.ErrorIs(t, c.Deliver(context.Background(), noEmail), ErrNoEmail)
}
