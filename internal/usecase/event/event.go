// Package event dispatches timeline change notifications (new item landed,
// notification received) to pluggable hooks, per SPEC_FULL.md §11's
// SSE-stub supplement. Grounded on the teacher's internal/usecase/notify
// package: same per-channel worker pool, timeout, and circuit breaker
// pattern, generalized from "send an article to Discord/Slack" to "tell a
// hook a channel's timeline changed", and reduced to the one concrete
// LogChannel this system ships (no Discord/Slack specifics survive; see
// DESIGN.md).
package event

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"microsubd/internal/domain/entity"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 5 * time.Minute
	workerPoolTimeout       = 5 * time.Second
	dispatchTimeout         = 10 * time.Second
)

// Kind identifies what changed.
type Kind string

const (
	KindNewItem      Kind = "new_item"
	KindNotification Kind = "notification"
)

// TimelineEvent describes a change to a channel's timeline.
type TimelineEvent struct {
	Kind      Kind
	ChannelID int64
	Owner     string
	Item      *entity.Item
}

// Hook receives timeline events. Implementations must be safe for
// concurrent use and must respect context cancellation.
type Hook interface {
	Name() string
	IsEnabled() bool
	Handle(ctx context.Context, ev TimelineEvent) error
}

// Publisher fans TimelineEvents out to all enabled hooks asynchronously;
// a slow or failing hook never blocks the Processor/Webmention verifier
// that published the event.
type Publisher struct {
	hooks      []Hook
	workerPool chan struct{}

	healthMu sync.Mutex
	health   map[string]*hookHealth

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

type hookHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
}

func NewPublisher(hooks []Hook, maxConcurrent int) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		hooks:          hooks,
		workerPool:     make(chan struct{}, maxConcurrent),
		health:         make(map[string]*hookHealth),
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
	for _, h := range hooks {
		p.health[h.Name()] = &hookHealth{}
	}
	return p
}

// Publish dispatches ev to every enabled hook in its own goroutine. It never
// blocks on a hook and never returns an error: publication is best-effort.
func (p *Publisher) Publish(ev TimelineEvent) {
	for _, h := range p.hooks {
		if !h.IsEnabled() {
			continue
		}
		hook := h
		p.wg.Add(1)
		go p.dispatch(hook, ev)
	}
}

func (p *Publisher) dispatch(hook Hook, ev TimelineEvent) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in timeline event hook",
				slog.String("hook", hook.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case p.workerPool <- struct{}{}:
		defer func() { <-p.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("timeline event dropped: worker pool full", slog.String("hook", hook.Name()))
		return
	}

	p.healthMu.Lock()
	h := p.health[hook.Name()]
	if time.Now().Before(h.disabledUntil) {
		p.healthMu.Unlock()
		slog.Warn("timeline event hook circuit open, dropping event", slog.String("hook", hook.Name()))
		return
	}
	p.healthMu.Unlock()

	ctx, cancel := context.WithTimeout(p.shutdownCtx, dispatchTimeout)
	defer cancel()

	err := hook.Handle(ctx, ev)

	p.healthMu.Lock()
	if err != nil {
		h.consecutiveFailures++
		if h.consecutiveFailures >= circuitBreakerThreshold {
			h.disabledUntil = time.Now().Add(circuitBreakerTimeout)
			slog.Error("timeline event hook circuit breaker opened", slog.String("hook", hook.Name()))
		}
	} else {
		h.consecutiveFailures = 0
	}
	p.healthMu.Unlock()

	if err != nil {
		slog.Warn("timeline event hook failed",
			slog.String("hook", hook.Name()),
			slog.String("kind", string(ev.Kind)),
			slog.Int64("channel_id", ev.ChannelID),
			slog.Any("error", err))
	}
}

// Shutdown waits for in-flight dispatches to finish or ctx to expire.
func (p *Publisher) Shutdown(ctx context.Context) error {
	p.shutdownCancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
