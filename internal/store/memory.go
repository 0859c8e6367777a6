// Package store provides thread-safe, in-memory storage of recently emitted
// events and registered webhooks.
//
// The store is bounded: once capacity is reached the oldest event is evicted
// together with its secondary index entries. Nothing is persisted; durable
// output is the job of the sinks.
package store

import (
	"errors"
	"sync"

	"sentinel/generator/internal/domain"
)

// DefaultCapacity is the number of events retained when none is configured.
const DefaultCapacity = 10_000

// ErrDuplicateEvent is returned when a transaction ID is saved twice.
var ErrDuplicateEvent = errors.New("event already exists")

// Store is a thread-safe in-memory data store.
type Store struct {
	mu sync.RWMutex

	capacity int
	ring     []string // transaction IDs in insertion order, oldest at head
	head     int
	events   map[string]*domain.LabeledEvent
	webhooks map[string]*domain.WebhookConfig

	// Secondary indexes: entity value → transaction IDs, oldest first.
	// Maintained on every write and eviction so reads stay fast.
	byUser     map[string][]string
	byMerchant map[string][]string
	byBIN      map[string][]string

	// Lifetime tallies; unaffected by eviction.
	total     int
	byPattern map[domain.Pattern]int
}

// New creates an empty store retaining at most capacity events.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity:   capacity,
		ring:       make([]string, 0, capacity),
		events:     make(map[string]*domain.LabeledEvent),
		webhooks:   make(map[string]*domain.WebhookConfig),
		byUser:     make(map[string][]string),
		byMerchant: make(map[string][]string),
		byBIN:      make(map[string][]string),
		byPattern:  make(map[domain.Pattern]int),
	}
}

// ─── Events ──────────────────────────────────────────────────────────────────

// Save records an emitted event, evicting the oldest one when full.
// Returns ErrDuplicateEvent if the ID is already retained.
func (s *Store) Save(ev domain.LabeledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ev.Event.TransactionID
	if _, exists := s.events[id]; exists {
		return ErrDuplicateEvent
	}

	if len(s.ring) < s.capacity {
		s.ring = append(s.ring, id)
	} else {
		s.evict(s.ring[s.head])
		s.ring[s.head] = id
		s.head = (s.head + 1) % s.capacity
	}

	stored := ev
	s.events[id] = &stored
	s.byUser[ev.Event.UserID] = append(s.byUser[ev.Event.UserID], id)
	s.byMerchant[ev.Event.MerchantDetails.MerchantID] = append(s.byMerchant[ev.Event.MerchantDetails.MerchantID], id)
	s.byBIN[ev.Event.CardBIN] = append(s.byBIN[ev.Event.CardBIN], id)

	s.total++
	s.byPattern[ev.Pattern]++
	return nil
}

// evict drops id from the primary map and every index.
// Must be called with the write lock held.
func (s *Store) evict(id string) {
	ev, ok := s.events[id]
	if !ok {
		return
	}
	delete(s.events, id)
	removeID(s.byUser, ev.Event.UserID, id)
	removeID(s.byMerchant, ev.Event.MerchantDetails.MerchantID, id)
	removeID(s.byBIN, ev.Event.CardBIN, id)
}

// removeID deletes id from index[key]. Evictions always hit the oldest
// entry, so the common case is a prefix trim.
func removeID(index map[string][]string, key, id string) {
	ids := index[key]
	for i, v := range ids {
		if v != id {
			continue
		}
		ids = append(ids[:i:i], ids[i+1:]...)
		break
	}
	if len(ids) == 0 {
		delete(index, key)
		return
	}
	index[key] = ids
}

// Get retrieves a retained event by transaction ID.
func (s *Store) Get(id string) (domain.LabeledEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return domain.LabeledEvent{}, false
	}
	return *ev, true
}

// ByUser returns retained events of a user, oldest first.
func (s *Store) ByUser(userID string) []domain.LabeledEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byUser[userID])
}

// ByMerchant returns retained events at a merchant, oldest first.
func (s *Store) ByMerchant(merchantID string) []domain.LabeledEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byMerchant[merchantID])
}

// ByBIN returns retained events using a card BIN, oldest first.
func (s *Store) ByBIN(bin string) []domain.LabeledEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byBIN[bin])
}

// Recent returns up to n of the newest retained events, newest first.
func (s *Store) Recent(n int) []domain.LabeledEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.ring) {
		n = len(s.ring)
	}
	result := make([]domain.LabeledEvent, 0, n)
	for i := 0; i < n; i++ {
		// Newest entry sits just before head once the ring has wrapped.
		idx := (s.head - 1 - i + 2*len(s.ring)) % len(s.ring)
		if len(s.ring) < s.capacity {
			idx = len(s.ring) - 1 - i
		}
		if ev, ok := s.events[s.ring[idx]]; ok {
			result = append(result, *ev)
		}
	}
	return result
}

// Stats returns lifetime counts per pattern plus the retained count.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domain.Stats{
		Total:     s.total,
		ByPattern: make(map[string]int, len(s.byPattern)),
		Retained:  len(s.events),
	}
	fraud := 0
	for p, n := range s.byPattern {
		st.ByPattern[p.String()] = n
		if p.IsFraud() {
			fraud += n
		}
	}
	if s.total > 0 {
		st.FraudRatio = float64(fraud) / float64(s.total)
	}
	return st
}

// resolve maps IDs to events. Must be called with at least a read-lock held.
func (s *Store) resolve(ids []string) []domain.LabeledEvent {
	result := make([]domain.LabeledEvent, 0, len(ids))
	for _, id := range ids {
		if ev, ok := s.events[id]; ok {
			result = append(result, *ev)
		}
	}
	return result
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// SaveWebhook persists a webhook configuration.
func (s *Store) SaveWebhook(wh *domain.WebhookConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[wh.ID] = wh
}

// DeleteWebhook removes a webhook by ID. Returns false if not found.
func (s *Store) DeleteWebhook(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.webhooks[id]
	if exists {
		delete(s.webhooks, id)
	}
	return exists
}

// ListActiveWebhooks returns all webhooks that are currently active.
func (s *Store) ListActiveWebhooks() []*domain.WebhookConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WebhookConfig
	for _, wh := range s.webhooks {
		if wh.Active {
			result = append(result, wh)
		}
	}
	return result
}
