// Package poller периодически обновляет данные дашборда.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/gym-console/internal/lib/sl"
)

// RefreshFunc одно обновление.
type RefreshFunc func(ctx context.Context) error

// Poller вызывает refresh сразу при старте и затем на каждом тике.
// Пока счётчик пауз больше нуля, тики пропускаются; ручные запросы выполняются.
type Poller struct {
	log      *slog.Logger
	interval time.Duration
	refresh  RefreshFunc

	trigger chan struct{}

	mu     sync.Mutex
	paused int
}

// New создает новый экземпляр Poller.
func New(log *slog.Logger, interval time.Duration, refresh RefreshFunc) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		log:      log,
		interval: interval,
		refresh:  refresh,
		trigger:  make(chan struct{}, 1),
	}
}

// Run блокируется до отмены ctx.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("starting dashboard poller", slog.Duration("interval", p.interval))
	p.run(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("dashboard poller stopped")
			return
		case <-ticker.C:
			if p.Paused() {
				p.log.Debug("poll skipped while paused")
				continue
			}
			p.run(ctx)
		case <-p.trigger:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if err := p.refresh(ctx); err != nil {
		p.log.Warn("dashboard refresh failed", sl.Err(err))
	}
}

// Trigger запрашивает внеочередное обновление. Повторные запросы до его
// выполнения сливаются в один.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Pause приостанавливает обновления по таймеру. Вызовы вкладываются.
func (p *Poller) Pause() {
	p.mu.Lock()
	p.paused++
	p.mu.Unlock()
}

// Resume снимает одну паузу.
func (p *Poller) Resume() {
	p.mu.Lock()
	if p.paused > 0 {
		p.paused--
	}
	p.mu.Unlock()
}

// Paused сообщает, приостановлен ли опрос.
func (p *Poller) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused > 0
}
