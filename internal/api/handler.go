package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sentinel/generator/internal/actors"
	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/generator"
	"sentinel/generator/internal/publisher"
	"sentinel/generator/internal/store"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	store     *store.Store
	publisher *publisher.Publisher
	pool      *actors.Pool
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(s *store.Store, p *publisher.Publisher, pool *actors.Pool) *Handler {
	return &Handler{store: s, publisher: p, pool: pool}
}

// ─── POST /api/v1/events/next ────────────────────────────────────────────────

// NextEvent emits one event immediately, outside the publisher cadence.
func (h *Handler) NextEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.publisher.Tick(r.Context())
	if err != nil {
		slog.Error("api: tick failed", "error", err)
		fail(w, http.StatusInternalServerError, codeInternal, "event generation failed")
		return
	}
	reply(w, http.StatusCreated, ev)
}

// ─── POST /api/v1/patterns/{pattern} ─────────────────────────────────────────

// TriggerPattern forces a pattern and returns the first event it produced.
// The rest of a burst is emitted by subsequent ticks.
func (h *Handler) TriggerPattern(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pattern")
	p, err := domain.ParsePattern(name)
	if err != nil {
		fail(w, http.StatusBadRequest, "INVALID_PATTERN", fmt.Sprintf("unknown pattern '%s'", name))
		return
	}

	ev, err := h.publisher.Trigger(r.Context(), p)
	switch {
	case errors.Is(err, generator.ErrBurstInProgress):
		fail(w, http.StatusConflict, codeBurstInProgress, fmt.Sprintf("%d buffered events must be emitted first", h.publisher.Pending()))
		return
	case err != nil:
		slog.Error("api: trigger failed", "pattern", p.String(), "error", err)
		fail(w, http.StatusInternalServerError, codeInternal, "event generation failed")
		return
	}
	reply(w, http.StatusCreated, ev)
}

// ─── GET /api/v1/events ──────────────────────────────────────────────────────

// ListEvents returns the most recently emitted events, newest first.
//
// Query params:
//
//	limit: number of events (default: 50, max: 1000)
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > maxRecentLimit {
			fail(w, http.StatusBadRequest, "INVALID_PARAM", fmt.Sprintf("limit must be an integer between 1 and %d", maxRecentLimit))
			return
		}
		limit = parsed
	}
	reply(w, http.StatusOK, h.store.Recent(limit))
}

// ─── GET /api/v1/events/{id} ─────────────────────────────────────────────────

// GetEvent retrieves a retained event by its transaction ID.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, exists := h.store.Get(id)
	if !exists {
		fail(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("event '%s' not found", id))
		return
	}
	reply(w, http.StatusOK, ev)
}

// ─── GET /api/v1/entities/{type}/{value} ─────────────────────────────────────

// GetEntitySummary returns the retained activity of a user, merchant or card BIN.
func (h *Handler) GetEntitySummary(w http.ResponseWriter, r *http.Request) {
	entityType := strings.ToLower(chi.URLParam(r, "type"))
	entityValue, _ := url.PathUnescape(chi.URLParam(r, "value"))

	var events []domain.LabeledEvent
	switch entityType {
	case domain.EntityUser:
		events = h.store.ByUser(entityValue)
	case domain.EntityMerchant:
		events = h.store.ByMerchant(entityValue)
	case domain.EntityBIN:
		events = h.store.ByBIN(entityValue)
	default:
		fail(w, http.StatusBadRequest, "INVALID_ENTITY_TYPE", "entity type must be one of: user, merchant, bin")
		return
	}

	reply(w, http.StatusOK, buildEntitySummary(entityType, entityValue, events))
}

// buildEntitySummary aggregates events (oldest first) into a summary listing
// the transactions newest first.
func buildEntitySummary(entityType, entityValue string, events []domain.LabeledEvent) domain.EntitySummary {
	summary := domain.EntitySummary{
		EntityType:   entityType,
		EntityValue:  entityValue,
		TotalCount:   len(events),
		Patterns:     make(map[string]int),
		Transactions: make([]domain.TransactionEvent, 0, len(events)),
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		summary.TotalAmount += ev.Event.Amount
		summary.Patterns[ev.Pattern.String()]++
		if ev.Pattern.IsFraud() {
			summary.FraudCount++
		}
		summary.Transactions = append(summary.Transactions, ev.Event)
	}
	return summary
}

// ─── GET /api/v1/stats ───────────────────────────────────────────────────────

// GetStats reports emission counts plus the generator's live state.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()
	st.Pending = h.publisher.Pending()
	st.Paused = h.publisher.Paused()
	st.Users = h.pool.Users()
	st.Merchants = h.pool.Merchants()
	reply(w, http.StatusOK, st)
}

// ─── Publisher controls ──────────────────────────────────────────────────────

// PausePublisher stops the background cadence.
func (h *Handler) PausePublisher(w http.ResponseWriter, r *http.Request) {
	h.publisher.Pause()
	reply(w, http.StatusOK, map[string]bool{"paused": true})
}

// ResumePublisher restarts the background cadence.
func (h *Handler) ResumePublisher(w http.ResponseWriter, r *http.Request) {
	h.publisher.Resume()
	reply(w, http.StatusOK, map[string]bool{"paused": false})
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// RegisterWebhook adds a new webhook endpoint.
func (h *Handler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL        string   `json:"url"`
		Patterns   []string `json:"patterns"`
		RatePerSec float64  `json:"rate_per_sec"`
		Burst      int      `json:"burst"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if req.URL == "" {
		fail(w, http.StatusBadRequest, "MISSING_URL", "url is required")
		return
	}
	if u, err := url.Parse(req.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		fail(w, http.StatusBadRequest, "INVALID_URL", "url must be an absolute http(s) URL")
		return
	}
	for _, name := range req.Patterns {
		if name == "*" {
			continue
		}
		if _, err := domain.ParsePattern(name); err != nil {
			fail(w, http.StatusBadRequest, "INVALID_PATTERN", fmt.Sprintf("unknown pattern '%s'", name))
			return
		}
	}
	if req.RatePerSec < 0 || req.Burst < 0 {
		fail(w, http.StatusBadRequest, "INVALID_RATE", "rate_per_sec and burst must not be negative")
		return
	}

	wh := &domain.WebhookConfig{
		ID:         uuid.NewString(),
		URL:        req.URL,
		Patterns:   req.Patterns,
		RatePerSec: req.RatePerSec,
		Burst:      req.Burst,
		CreatedAt:  time.Now().UTC(),
		Active:     true,
	}
	h.store.SaveWebhook(wh)
	reply(w, http.StatusCreated, wh)
}

// DeleteWebhook removes a registered webhook.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.DeleteWebhook(id) {
		fail(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("webhook '%s' not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
