// Package webhook delivers generated events to registered webhook URLs.
//
// Deliveries run in goroutines so they never block the publisher. Each
// endpoint has its own token bucket; events arriving while it is empty are
// dropped and counted. Failed deliveries are logged but not retried.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/metrics"
	"sentinel/generator/internal/store"
)

// EventName is the payload's event field and the X-Sentinel-Event header.
const EventName = "transaction_generated"

const (
	deliveryTimeout = 5 * time.Second
	defaultRate     = 10
	defaultBurst    = 20
)

// Notifier sends webhook payloads to every matching endpoint: the ones
// registered through the API plus the ones fixed in configuration.
type Notifier struct {
	store  *store.Store
	static []*domain.WebhookConfig
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	inflight sync.WaitGroup
}

// New creates a Notifier. static hooks are always active.
func New(s *store.Store, static []*domain.WebhookConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:  s,
		static: static,
		client: &http.Client{
			Timeout: deliveryTimeout,
		},
		logger:   logger,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Name implements sink.Sink.
func (n *Notifier) Name() string { return "webhook" }

// Put schedules deliveries for every event and hook pair that matches.
// It never blocks on the network.
func (n *Notifier) Put(_ context.Context, events []domain.LabeledEvent) error {
	hooks := n.hooks()
	limiters := n.limitersFor(hooks)
	for _, ev := range events {
		for i, wh := range hooks {
			if !wh.Matches(ev.Pattern) {
				continue
			}
			if !limiters[i].Allow() {
				metrics.WebhookDropped.Inc()
				n.logger.Debug("webhook: rate limited, dropping",
					"webhook_id", wh.ID,
					"transaction_id", ev.Event.TransactionID,
				)
				continue
			}
			n.inflight.Add(1)
			go func(wh *domain.WebhookConfig, ev domain.LabeledEvent) {
				defer n.inflight.Done()
				n.send(wh, ev)
			}(wh, ev)
		}
	}
	return nil
}

// Close waits for in-flight deliveries to finish.
func (n *Notifier) Close() error {
	n.inflight.Wait()
	return nil
}

func (n *Notifier) hooks() []*domain.WebhookConfig {
	var hooks []*domain.WebhookConfig
	if n.store != nil {
		hooks = n.store.ListActiveWebhooks()
	}
	return append(hooks, n.static...)
}

// limitersFor returns the token bucket of each hook, in order, creating
// missing ones. Buckets of hooks that are no longer listed are dropped.
func (n *Notifier) limitersFor(hooks []*domain.WebhookConfig) []*rate.Limiter {
	n.mu.Lock()
	defer n.mu.Unlock()
	live := make(map[string]*rate.Limiter, len(hooks))
	out := make([]*rate.Limiter, len(hooks))
	for i, wh := range hooks {
		l, ok := live[wh.ID]
		if !ok {
			if l, ok = n.limiters[wh.ID]; !ok {
				l = newLimiter(wh)
			}
			live[wh.ID] = l
		}
		out[i] = l
	}
	n.limiters = live
	return out
}

func newLimiter(wh *domain.WebhookConfig) *rate.Limiter {
	perSecond := wh.RatePerSec
	if perSecond <= 0 {
		perSecond = defaultRate
	}
	burst := wh.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// send delivers a single webhook call and logs the outcome.
func (n *Notifier) send(wh *domain.WebhookConfig, ev domain.LabeledEvent) {
	payload := domain.WebhookPayload{
		Event:       EventName,
		Pattern:     ev.Pattern,
		TriggeredAt: n.now().UTC(),
		Transaction: ev.Event,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("webhook: failed to marshal payload", "webhook_id", wh.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("webhook: failed to build request", "webhook_id", wh.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sentinel-Event", EventName)

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.SinkWrites.WithLabelValues(n.Name(), "error").Inc()
		n.logger.Warn("webhook: delivery failed", "webhook_id", wh.ID, "url", wh.URL, "error", err)
		return
	}
	defer resp.Body.Close()

	metrics.SinkWrites.WithLabelValues(n.Name(), "delivered").Inc()
	n.logger.Info("webhook: delivered",
		"webhook_id", wh.ID,
		"url", wh.URL,
		"status", resp.StatusCode,
		"transaction_id", ev.Event.TransactionID,
		"pattern", ev.Pattern.String(),
	)
}
