package smtp

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ClientMock struct{ mock.Mock }

func (m *ClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *ClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	w, _ := args.Get(0).(io.WriteCloser)
	return w, args.Error(1)
}
func (m *ClientMock) Quit() error  { return m.Called().Error(0) }
func (m *ClientMock) Close() error { return m.Called().Error(0) }

type DialerMock struct{ mock.Mock }

func (m *DialerMock) Connect() (Client, error) {
	args := m.Called()
	c, _ := args.Get(0).(Client)
	return c, args.Error(1)
}
func (m *DialerMock) From() string { return m.Called().String(0) }

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestSend_Success(t *testing.T) {
	buf := &bufferCloser{}
	client := new(ClientMock)
	client.On("Mail", "gym@example.com").Return(nil)
	client.On("Rcpt", "ravi@example.com").Return(nil)
	client.On("Data").Return(buf, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	dialer := new(DialerMock)
	dialer.On("Connect").Return(client, nil)
	dialer.On("From").Return("gym@example.com")

	err := Send(dialer, "ravi@example.com", "Membership reminder", "<p>Hi</p>")
	require.NoError(t, err)

	assert.True(t, buf.closed)
	assert.Contains(t, buf.String(), "Subject: Membership reminder\r\n")
	assert.Contains(t, buf.String(), "Content-Type: text/html")
	assert.Contains(t, buf.String(), "\r\n\r\n<p>Hi</p>")
	client.AssertExpectations(t)
}

func TestSend_ConnectError(t *testing.T) {
	dialer := new(DialerMock)
	dialer.On("Connect").Return(nil, errors.New("dial tcp: refused"))

	err := Send(dialer, "ravi@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.Send")
}

func TestSend_RcptError(t *testing.T) {
	client := new(ClientMock)
	client.On("Mail", "gym@example.com").Return(nil)
	client.On("Rcpt", "bad").Return(errors.New("550 no such user"))
	client.On("Close").Return(nil)

	dialer := new(DialerMock)
	dialer.On("Connect").Return(client, nil)
	dialer.On("From").Return("gym@example.com")

	err := Send(dialer, "bad", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rcpt to")
	client.AssertNotCalled(t, "Data")
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("a@x", "b@y", "Hello", "<b>x</b>")
	assert.Equal(t, "From: a@x\r\nTo: b@y\r\nSubject: Hello\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n<b>x</b>", msg)
}

func TestBuildMessage_StripsHeaderNewlines(t *testing.T) {
	msg := BuildMessage("a@x", "b@y\r\nCc: c@z", "Gold\r\nBcc: evil@z", "<b>x</b>")
	headers, _, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "From: a@x\r\nTo: b@yCc: c@z\r\nSubject: GoldBcc: evil@z\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"", headers)
}

func TestBuildMessage_EncodesNonASCIISubject(t *testing.T) {
	msg := BuildMessage("a@x", "b@y", "Абонемент Gold истекает", "<b>x</b>")
	var subject string
	for _, line := range strings.Split(msg, "\r\n") {
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			subject = v
		}
	}
	require.True(t, strings.HasPrefix(subject, "=?utf-8?q?"), subject)

	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, "Абонемент Gold истекает", decoded)
}
