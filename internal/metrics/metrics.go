package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_events_emitted_total",
		Help: "Total number of transaction events emitted, labelled by pattern.",
	}, []string{"pattern"})

	ChaosDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_chaos_decisions_total",
		Help: "Fresh generation decisions, labelled by outcome (legitimate or fraud pattern).",
	}, []string{"outcome"})

	PendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_pending_events",
		Help: "Buffered burst events waiting to be emitted.",
	})

	SinkWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_sink_writes_total",
		Help: "Sink write attempts, labelled by sink and status.",
	}, []string{"sink", "status"})

	WebhookDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_webhook_dropped_total",
		Help: "Webhook deliveries skipped because the endpoint's rate limit was exhausted.",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_tick_duration_ms",
		Help:    "Time spent generating and fanning out one event, in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})
)
