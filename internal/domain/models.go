// Package domain contains all core types used across the generator.
// Keeping domain types in one place makes the emitted wire format easy to audit.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ─── Constants ───────────────────────────────────────────────────────────────

// Currency is the only currency the generator emits.
const Currency = "EUR"

// Actor pool sizes. Both pools are populated once at startup.
const (
	UserPoolSize     = 1000
	MerchantPoolSize = 50
)

// ChaosThreshold is the probability that a fresh (non-buffered) event is
// replaced by one of the fraud patterns.
const ChaosThreshold = 0.03

// Entity types used in entity-summary lookups.
const (
	EntityUser     = "user"
	EntityMerchant = "merchant"
	EntityBIN      = "bin"
)

// ─── Patterns ────────────────────────────────────────────────────────────────

// Pattern identifies which behaviour produced an event.
type Pattern int

const (
	PatternLegitimate Pattern = iota
	PatternImpossibleTraveler
	PatternSmurfing
	PatternMoneyLaundering
	PatternWalletHoarder
)

// FraudPatterns lists the patterns selectable by a chaos roll, in roll order.
var FraudPatterns = [...]Pattern{
	PatternImpossibleTraveler,
	PatternSmurfing,
	PatternMoneyLaundering,
	PatternWalletHoarder,
}

var patternNames = map[Pattern]string{
	PatternLegitimate:         "legitimate",
	PatternImpossibleTraveler: "impossible_traveler",
	PatternSmurfing:           "smurfing",
	PatternMoneyLaundering:    "money_laundering",
	PatternWalletHoarder:      "wallet_hoarder",
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// IsFraud reports whether p is one of the injected fraud archetypes.
func (p Pattern) IsFraud() bool {
	return p != PatternLegitimate && p.Valid()
}

// Valid reports whether p is a known pattern.
func (p Pattern) Valid() bool {
	_, ok := patternNames[p]
	return ok
}

// MarshalText renders the pattern as its snake_case name.
func (p Pattern) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown pattern %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText parses a snake_case pattern name.
func (p *Pattern) UnmarshalText(b []byte) error {
	parsed, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePattern converts a pattern name (case-insensitive, '-' or '_') into a Pattern.
func ParsePattern(s string) (Pattern, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for p, n := range patternNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

// ─── Actors ──────────────────────────────────────────────────────────────────

// User is a synthetic card holder. A pattern may build a variant sharing the
// UserID with a different card; pool entries are never modified.
type User struct {
	UserID    string `json:"user_id"`
	CardToken string `json:"card_token"`
	CardBIN   string `json:"card_bin"` // first 6 digits of the card number
}

// WithCard returns a copy of u carrying a different card instrument.
func (u User) WithCard(token, bin string) User {
	u.CardToken = token
	u.CardBIN = bin
	return u
}

// Merchant is a synthetic acceptor with a home location.
type Merchant struct {
	MerchantID string  `json:"merchant_id"`
	Name       string  `json:"name"`
	MCC        string  `json:"mcc"` // 4-digit merchant category code
	BaseLat    float64 `json:"base_latitude"`
	BaseLon    float64 `json:"base_longitude"`
}

// ─── Events ──────────────────────────────────────────────────────────────────

// MerchantDetails is the merchant block embedded in every event.
type MerchantDetails struct {
	MerchantID string `json:"merchant_id"`
	MCC        string `json:"mcc"`
	Name       string `json:"name"`
}

// Location is where the transaction took place.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TransactionEvent is the unit emitted by the generator. Amount is in minor
// currency units. Timestamp is an RFC 3339 instant in UTC.
type TransactionEvent struct {
	TransactionID   string          `json:"transaction_id"`
	UserID          string          `json:"user_id"`
	CardToken       string          `json:"card_token"`
	CardBIN         string          `json:"card_bin"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	MerchantDetails MerchantDetails `json:"merchant_details"`
	Location        Location        `json:"location"`
	IPAddress       string          `json:"ip_address"`
	Timestamp       string          `json:"timestamp"`
}

// Time parses the event timestamp.
func (e TransactionEvent) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// FormatTimestamp renders t the way events carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// LabeledEvent pairs an event with the pattern that produced it. The label
// is never part of the event's wire format.
type LabeledEvent struct {
	Event   TransactionEvent `json:"transaction"`
	Pattern Pattern          `json:"pattern"`
}

// ─── Webhooks ─────────────────────────────────────────────────────────────────

// WebhookConfig is a registered callback receiving generated events.
// An empty Patterns list means every fraud pattern; "*" means every event.
type WebhookConfig struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Patterns   []string  `json:"patterns,omitempty"`
	RatePerSec float64   `json:"rate_per_sec"`
	Burst      int       `json:"burst"`
	CreatedAt  time.Time `json:"created_at"`
	Active     bool      `json:"active"`
}

// Matches reports whether the webhook wants events of pattern p.
func (w *WebhookConfig) Matches(p Pattern) bool {
	if len(w.Patterns) == 0 {
		return p.IsFraud()
	}
	for _, name := range w.Patterns {
		if name == "*" {
			return true
		}
		if q, err := ParsePattern(name); err == nil && q == p {
			return true
		}
	}
	return false
}

// WebhookPayload is the body sent to registered webhook URLs.
type WebhookPayload struct {
	Event       string           `json:"event"` // always "transaction_generated"
	Pattern     Pattern          `json:"pattern"`
	TriggeredAt time.Time        `json:"triggered_at"`
	Transaction TransactionEvent `json:"transaction"`
}

// ─── Reporting ────────────────────────────────────────────────────────────────

// EntitySummary provides aggregated activity for a user, merchant, or card BIN.
type EntitySummary struct {
	EntityType   string             `json:"entity_type"`
	EntityValue  string             `json:"entity_value"`
	TotalCount   int                `json:"total_count"`
	FraudCount   int                `json:"fraud_count"`
	TotalAmount  int64              `json:"total_amount"`
	Patterns     map[string]int     `json:"patterns"`
	Transactions []TransactionEvent `json:"transactions"`
}

// Stats is the generator's running tally.
type Stats struct {
	Total      int            `json:"total"`
	ByPattern  map[string]int `json:"by_pattern"`
	FraudRatio float64        `json:"fraud_ratio"`
	Retained   int            `json:"retained"`
	Pending    int            `json:"pending"`
	Users      int            `json:"users"`
	Merchants  int            `json:"merchants"`
	Paused     bool           `json:"paused"`
}
