// Package actors maintains the fixed pools of synthetic users and merchants
// the generator draws from. Pools are filled once at startup and never
// modified afterwards; repeated picks give every actor a behavioural history.
package actors

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/fakedata"
)

var (
	// ErrNotInitialized is the panic value when a pool is used before Initialize.
	ErrNotInitialized = errors.New("actors: pool not initialized")
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("actors: pool already initialized")
)

// freshUserAttempts bounds the redraws FreshUser makes to avoid a pool id.
const freshUserAttempts = 16

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Pool holds the user and merchant pools.
type Pool struct {
	provider  fakedata.Provider
	users     []domain.User
	merchants []domain.Merchant
	userIDs   map[string]struct{}
}

// NewPool creates an empty pool backed by provider. Call Initialize before use.
func NewPool(provider fakedata.Provider) *Pool {
	return &Pool{provider: provider}
}

// Initialize populates the pools. It may run only once.
func (p *Pool) Initialize() error {
	if p.Initialized() {
		return ErrAlreadyInitialized
	}

	users := make([]domain.User, 0, domain.UserPoolSize)
	ids := make(map[string]struct{}, domain.UserPoolSize)
	for i := 0; i < domain.UserPoolSize; i++ {
		u, err := p.NewUser()
		if err != nil {
			return fmt.Errorf("actors: create user %d: %w", i, err)
		}
		users = append(users, u)
		ids[u.UserID] = struct{}{}
	}

	merchants := make([]domain.Merchant, 0, domain.MerchantPoolSize)
	for i := 0; i < domain.MerchantPoolSize; i++ {
		m, err := p.NewMerchant()
		if err != nil {
			return fmt.Errorf("actors: create merchant %d: %w", i, err)
		}
		merchants = append(merchants, m)
	}

	// Publish only once both pools are complete.
	p.users, p.merchants, p.userIDs = users, merchants, ids
	return nil
}

// Initialized reports whether Initialize has completed.
func (p *Pool) Initialized() bool {
	return p != nil && len(p.users) > 0 && len(p.merchants) > 0
}

// Users returns the number of pooled users.
func (p *Pool) Users() int { return len(p.users) }

// Merchants returns the number of pooled merchants.
func (p *Pool) Merchants() int { return len(p.merchants) }

// Contains reports whether userID belongs to a pooled user.
func (p *Pool) Contains(userID string) bool {
	_, ok := p.userIDs[userID]
	return ok
}

// Merchant looks up a pooled merchant by id.
func (p *Pool) Merchant(id string) (domain.Merchant, bool) {
	for _, m := range p.merchants {
		if m.MerchantID == id {
			return m, true
		}
	}
	return domain.Merchant{}, false
}

// PickUser returns a uniformly random pooled user (with replacement).
func (p *Pool) PickUser(rng *rand.Rand) domain.User {
	p.mustBeInitialized()
	return p.users[rng.Intn(len(p.users))]
}

// PickMerchant returns a uniformly random pooled merchant (with replacement).
func (p *Pool) PickMerchant(rng *rand.Rand) domain.Merchant {
	p.mustBeInitialized()
	return p.merchants[rng.Intn(len(p.merchants))]
}

func (p *Pool) mustBeInitialized() {
	if !p.Initialized() {
		panic(ErrNotInitialized)
	}
}

// ─── Actor synthesis ─────────────────────────────────────────────────────────

// NewUser synthesizes a user with a card on a randomly drawn network.
// The user is not added to the pool.
func (p *Pool) NewUser() (domain.User, error) {
	network := p.provider.PickNetwork()
	number := p.provider.CreditCard(network)
	if len(number) < 10 {
		return domain.User{}, fmt.Errorf("card number %q for %s is too short", number, network)
	}

	bin := number[:6]
	last4 := number[len(number)-4:]
	return domain.User{
		UserID:    "u_" + p.provider.Digits(8),
		CardToken: fmt.Sprintf("tok_%s_%s", network.TokenName(), last4),
		CardBIN:   bin,
	}, nil
}

// FreshUser synthesizes a one-off identity whose id is not in the pool.
func (p *Pool) FreshUser() (domain.User, error) {
	for i := 0; i < freshUserAttempts; i++ {
		u, err := p.NewUser()
		if err != nil {
			return domain.User{}, err
		}
		if !p.Contains(u.UserID) {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("actors: no fresh user id after %d attempts", freshUserAttempts)
}

// NewMerchant synthesizes a merchant at a random location.
func (p *Pool) NewMerchant() (domain.Merchant, error) {
	name := p.provider.Company()
	latRaw, lonRaw := p.provider.Coordinates()

	lat, err := ParseCoordinate(latRaw)
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("merchant %q latitude: %w", name, err)
	}
	lon, err := ParseCoordinate(lonRaw)
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("merchant %q longitude: %w", name, err)
	}

	return domain.Merchant{
		MerchantID: fmt.Sprintf("m_%s_%s", Slugify(name), p.provider.Digits(4)),
		Name:       name,
		MCC:        fmt.Sprintf("%04d", p.provider.Number(5000, 5999)),
		BaseLat:    lat,
		BaseLon:    lon,
	}, nil
}

// Slugify lower-cases s, collapses every run of non-alphanumerics into a
// single underscore and trims underscores from both ends.
func Slugify(s string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(slug, "_")
}

// ParseCoordinate parses a decimal coordinate that may use a comma separator.
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	return v, nil
}
