package sender

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/config"
)

func TestNewChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "default is backend", cfg: config.Config{}, want: "backend"},
		{name: "smtp", cfg: config.Config{Reminder: config.Reminder{Channel: config.ChannelSMTP}}, want: "smtp"},
		{
			name: "resend",
			cfg: config.Config{
				Reminder: config.Reminder{Channel: config.ChannelResend},
				Resend:   config.Resend{APIKey: "re_test", From: "gym@example.com"},
			},
			want: "resend",
		},
		{name: "resend without key", cfg: config.Config{Reminder: config.Reminder{Channel: config.ChannelResend}}, wantErr: true},
		{name: "unknown", cfg: config.Config{Reminder: config.Reminder{Channel: "pigeon"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := NewChannel(&tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ch.Name())
		})
	}
}
