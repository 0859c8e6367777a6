// Package publisher drives the generator on a fixed cadence and fans every
// emitted event out to the store and the configured sinks.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/generator"
	"sentinel/generator/internal/metrics"
	"sentinel/generator/internal/sink"
	"sentinel/generator/internal/store"
)

// DefaultInterval is the emission cadence when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Publisher owns the only runtime reference to the engine and serializes
// every call into it. Generation and fan-out happen under the same lock, so
// the store and every sink see events in the order the engine produced them.
type Publisher struct {
	mu     sync.Mutex // guards engine and emission order
	engine *generator.Engine
	store  *store.Store
	sinks  []sink.Sink
	logger *slog.Logger

	stateMu  sync.RWMutex
	interval time.Duration
	paused   bool
	reset    chan struct{}
}

// New creates a Publisher. A non-positive interval selects DefaultInterval.
func New(engine *generator.Engine, s *store.Store, sinks []sink.Sink, interval time.Duration, logger *slog.Logger) *Publisher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		engine:   engine,
		store:    s,
		sinks:    sinks,
		logger:   logger,
		interval: interval,
		reset:    make(chan struct{}, 1),
	}
}

// Run emits one event per interval until ctx is cancelled. Ticks are skipped
// while paused.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.logger.Info("publisher started", "interval", p.Interval().String())
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopped")
			return ctx.Err()
		case <-p.reset:
			ticker.Reset(p.Interval())
		case <-ticker.C:
			if p.Paused() {
				continue
			}
			if _, err := p.Tick(ctx); err != nil {
				p.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// Tick emits the next event immediately.
func (p *Publisher) Tick(ctx context.Context) (domain.LabeledEvent, error) {
	start := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := p.engine.NextLabeled()
	err := p.emit(ctx, ev, p.engine.Pending())
	metrics.TickDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	return ev, err
}

// Trigger forces pattern pt and emits its first event. The rest of a burst
// follows on subsequent ticks. Returns generator.ErrBurstInProgress while an
// earlier burst is still buffered.
func (p *Publisher) Trigger(ctx context.Context, pt domain.Pattern) (domain.LabeledEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, err := p.engine.Trigger(pt)
	if err != nil {
		return domain.LabeledEvent{}, err
	}

	pending := p.engine.Pending()
	p.logger.Info("pattern triggered", "pattern", pt.String(), "pending", pending)
	return ev, p.emit(ctx, ev, pending)
}

// emit records ev and hands it to every sink. Callers hold p.mu. Sink
// failures are logged and counted; they never abort the fan-out. The
// returned error is non-nil only when the store refuses the event.
func (p *Publisher) emit(ctx context.Context, ev domain.LabeledEvent, pending int) error {
	metrics.PendingEvents.Set(float64(pending))

	if err := p.store.Save(ev); err != nil {
		return err
	}
	metrics.EventsEmitted.WithLabelValues(ev.Pattern.String()).Inc()

	batch := []domain.LabeledEvent{ev}
	for _, s := range p.sinks {
		if err := s.Put(ctx, batch); err != nil {
			metrics.SinkWrites.WithLabelValues(s.Name(), "error").Inc()
			p.logger.Warn("sink write failed",
				"sink", s.Name(),
				"transaction_id", ev.Event.TransactionID,
				"error", err,
			)
			continue
		}
		metrics.SinkWrites.WithLabelValues(s.Name(), "ok").Inc()
	}

	p.logger.Info("emitted transaction",
		"transaction_id", ev.Event.TransactionID,
		"pattern", ev.Pattern.String(),
		"amount", ev.Event.Amount,
	)
	return nil
}

// Pending returns the engine's buffered event count.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Pending()
}

// ─── Runtime controls ────────────────────────────────────────────────────────

// Interval returns the current cadence.
func (p *Publisher) Interval() time.Duration {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.interval
}

// SetInterval changes the cadence of a running loop. Non-positive values are ignored.
func (p *Publisher) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.stateMu.Lock()
	changed := p.interval != d
	p.interval = d
	p.stateMu.Unlock()
	if !changed {
		return
	}
	p.logger.Info("publisher interval changed", "interval", d.String())
	select {
	case p.reset <- struct{}{}:
	default:
	}
}

// Pause stops the loop from emitting until Resume. Tick and Trigger still work.
func (p *Publisher) Pause() { p.setPaused(true) }

// Resume restarts emission after Pause.
func (p *Publisher) Resume() { p.setPaused(false) }

// Paused reports whether the loop is paused.
func (p *Publisher) Paused() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.paused
}

func (p *Publisher) setPaused(v bool) {
	p.stateMu.Lock()
	changed := p.paused != v
	p.paused = v
	p.stateMu.Unlock()
	if changed {
		p.logger.Info("publisher state changed", "paused", v)
	}
}

// Close closes every sink.
func (p *Publisher) Close() error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
