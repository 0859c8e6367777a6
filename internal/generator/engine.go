// Package generator is the event sequencer: on every call it either drains
// the pending burst buffer or rolls the chaos dice and builds a fresh event,
// legitimate or one of the fraud archetypes.
//
// An Engine is a single producer. It is not safe for concurrent use; callers
// that share one across goroutines must serialize access.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sentinel/generator/internal/actors"
	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/fakedata"
	"sentinel/generator/internal/metrics"
)

var (
	// ErrPoolNotInitialized is returned by New when the actor pool is empty.
	ErrPoolNotInitialized = errors.New("generator: actor pool not initialized")
	// ErrBurstInProgress is returned by Trigger while buffered events remain.
	ErrBurstInProgress = errors.New("generator: buffered events pending")
)

// Legitimate-path tuning.
const (
	legitMinAmount = 500
	legitMaxAmount = 15000
	locationJitter = 0.0001 // standard deviation in degrees
)

// Engine owns the actor pool, the pending-event buffer and the random source.
type Engine struct {
	pool     *actors.Pool
	provider fakedata.Provider
	rng      *rand.Rand
	clock    func() time.Time
	pending  fifo[domain.LabeledEvent]
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed seeds the engine's random source so runs are reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand uses r as the random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock overrides the wall clock used to stamp fresh events.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// New creates an Engine. The pool must already be initialized.
func New(pool *actors.Pool, provider fakedata.Provider, opts ...Option) (*Engine, error) {
	if !pool.Initialized() {
		return nil, ErrPoolNotInitialized
	}
	if provider == nil {
		return nil, fmt.Errorf("generator: data provider is required")
	}
	e := &Engine{
		pool:     pool,
		provider: provider,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e, nil
}

// Next returns the next event to emit.
func (e *Engine) Next() domain.TransactionEvent {
	return e.NextLabeled().Event
}

// NextLabeled returns the next event together with the pattern that built it.
// Buffered events are returned first, in the order they were queued, without
// drawing any randomness.
func (e *Engine) NextLabeled() domain.LabeledEvent {
	if e.pool == nil {
		panic(ErrPoolNotInitialized)
	}
	if ev, ok := e.pending.pop(); ok {
		return ev
	}

	user := e.pool.PickUser(e.rng)
	merchant := e.pool.PickMerchant(e.rng)
	now := e.clock()

	if e.rng.Float64() < domain.ChaosThreshold {
		p := domain.FraudPatterns[e.rng.Intn(len(domain.FraudPatterns))]
		metrics.ChaosDecisions.WithLabelValues(p.String()).Inc()
		return e.dispatch(p, user, merchant, now)
	}
	metrics.ChaosDecisions.WithLabelValues(domain.PatternLegitimate.String()).Inc()
	return e.legitimate(user, merchant, now)
}

// Trigger forces pattern p as if the chaos roll had selected it. It refuses
// while a previous burst is still buffered.
func (e *Engine) Trigger(p domain.Pattern) (domain.LabeledEvent, error) {
	if !p.Valid() {
		return domain.LabeledEvent{}, fmt.Errorf("generator: unknown pattern %d", int(p))
	}
	if e.pending.len() > 0 {
		return domain.LabeledEvent{}, ErrBurstInProgress
	}

	user := e.pool.PickUser(e.rng)
	merchant := e.pool.PickMerchant(e.rng)
	now := e.clock()
	if p == domain.PatternLegitimate {
		return e.legitimate(user, merchant, now), nil
	}
	return e.dispatch(p, user, merchant, now), nil
}

// Pending returns how many buffered events are waiting to be emitted.
func (e *Engine) Pending() int {
	return e.pending.len()
}

func (e *Engine) dispatch(p domain.Pattern, user domain.User, merchant domain.Merchant, now time.Time) domain.LabeledEvent {
	switch p {
	case domain.PatternImpossibleTraveler:
		return e.impossibleTraveler(user, merchant, now)
	case domain.PatternSmurfing:
		return e.smurfing(user, merchant, now)
	case domain.PatternMoneyLaundering:
		return e.moneyLaundering(now)
	case domain.PatternWalletHoarder:
		return e.walletHoarder(merchant, now)
	default:
		panic(fmt.Sprintf("generator: no dispatch for pattern %s", p))
	}
}

func (e *Engine) legitimate(user domain.User, merchant domain.Merchant, now time.Time) domain.LabeledEvent {
	// Gaussian noise is not clamped; rare large draws are kept as-is.
	lat := merchant.BaseLat + e.rng.NormFloat64()*locationJitter
	lon := merchant.BaseLon + e.rng.NormFloat64()*locationJitter
	amount := e.between(legitMinAmount, legitMaxAmount)
	return e.label(domain.PatternLegitimate, e.build(user, merchant, amount, lat, lon, now))
}

// build assembles one event with a fresh transaction id and IP address.
func (e *Engine) build(user domain.User, merchant domain.Merchant, amount int64, lat, lon float64, ts time.Time) domain.TransactionEvent {
	return domain.TransactionEvent{
		TransactionID: e.newUUID().String(),
		UserID:        user.UserID,
		CardToken:     user.CardToken,
		CardBIN:       user.CardBIN,
		Amount:        amount,
		Currency:      domain.Currency,
		MerchantDetails: domain.MerchantDetails{
			MerchantID: merchant.MerchantID,
			MCC:        merchant.MCC,
			Name:       merchant.Name,
		},
		Location:  domain.Location{Lat: lat, Lon: lon},
		IPAddress: e.provider.IPv4(),
		Timestamp: domain.FormatTimestamp(ts),
	}
}

func (e *Engine) label(p domain.Pattern, ev domain.TransactionEvent) domain.LabeledEvent {
	return domain.LabeledEvent{Event: ev, Pattern: p}
}

// between draws uniformly from [lo, hi).
func (e *Engine) between(lo, hi int64) int64 {
	return lo + e.rng.Int63n(hi-lo)
}

// newUUID draws a version 4 UUID from the engine's random source so seeded runs
// stay reproducible.
func (e *Engine) newUUID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(e.rng)
	if err != nil {
		// math/rand readers never fail.
		panic(fmt.Sprintf("generator: uuid: %v", err))
	}
	return id
}

// randomHex returns n lower-case hex characters (n <= 32).
func (e *Engine) randomHex(n int) string {
	id := e.newUUID()
	return fmt.Sprintf("%x", id[:])[:n]
}
