package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func startPoller(t *testing.T, interval time.Duration, fn RefreshFunc) *Poller {
	t.Helper()
	p := New(newNoopLogger(), interval, fn)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

func TestRun_ImmediateAndPeriodic(t *testing.T) {
	var calls atomic.Int32
	startPoller(t, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRun_ErrorsDoNotStopPolling(t *testing.T) {
	var calls atomic.Int32
	startPoller(t, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("backend down")
	})

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestPause_SkipsTicksButNotTriggers(t *testing.T) {
	var calls atomic.Int32
	p := New(newNoopLogger(), 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	p.Pause()
	p.Pause()
	p.Resume()
	require.True(t, p.Paused(), "pauses are counted")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "ticks are skipped while paused")

	p.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	p.Resume()
	assert.False(t, p.Paused())
	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
}

func TestResume_NeverNegative(t *testing.T) {
	p := New(newNoopLogger(), time.Second, func(context.Context) error { return nil })
	p.Resume()
	p.Pause()
	assert.True(t, p.Paused())
}

func TestTrigger_Coalesces(t *testing.T) {
	p := New(newNoopLogger(), time.Hour, func(context.Context) error { return nil })
	p.Trigger()
	p.Trigger()
	p.Trigger()
	assert.Len(t, p.trigger, 1)
}
