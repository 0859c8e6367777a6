package generator

import (
	"fmt"
	"strconv"
	"time"

	"sentinel/generator/internal/domain"
)

// Fixed actors used by the fraud archetypes.
var (
	// newYorkMerchant is the far-away acceptor of the impossible traveler.
	newYorkMerchant = domain.Merchant{
		MerchantID: "m_starbucks_ny",
		Name:       "Starbucks NY",
		MCC:        "5812",
		BaseLat:    40.7128,
		BaseLon:    -74.0060,
	}
)

const (
	casinoName = "Royal Casino Online"
	casinoMCC  = "7995"
	casinoLat  = 45.4642
	casinoLon  = 9.1900
)

// Pattern parameters.
const (
	travelerMinAmount = 1000
	travelerMaxAmount = 5000
	travelerDelay     = 5 * time.Second

	smurfBurst     = 10
	smurfMinAmount = 100
	smurfMaxAmount = 1000
	smurfSpacing   = 100 * time.Millisecond

	launderMinAmount = 2_000_000
	launderMaxAmount = 5_000_000

	hoarderCards     = 4
	hoarderMinAmount = 2000
	hoarderMaxAmount = 8000
	hoarderSpacing   = 10 * time.Second
	hoarderMinBIN    = 100000
	hoarderMaxBIN    = 999999
)

// impossibleTraveler emits a purchase at the merchant's home location and
// buffers a second one for the same user in New York five seconds later.
func (e *Engine) impossibleTraveler(user domain.User, merchant domain.Merchant, now time.Time) domain.LabeledEvent {
	home := e.build(user, merchant, e.between(travelerMinAmount, travelerMaxAmount),
		merchant.BaseLat, merchant.BaseLon, now)

	away := e.build(user, newYorkMerchant, e.between(travelerMinAmount, travelerMaxAmount),
		newYorkMerchant.BaseLat, newYorkMerchant.BaseLon, now.Add(travelerDelay))
	e.pending.push(e.label(domain.PatternImpossibleTraveler, away))

	return e.label(domain.PatternImpossibleTraveler, home)
}

// smurfing buffers a burst of low-value purchases 100ms apart and returns
// the first of them.
func (e *Engine) smurfing(user domain.User, merchant domain.Merchant, now time.Time) domain.LabeledEvent {
	for i := 0; i < smurfBurst; i++ {
		ev := e.build(user, merchant, e.between(smurfMinAmount, smurfMaxAmount),
			merchant.BaseLat, merchant.BaseLon, now.Add(time.Duration(i)*smurfSpacing))
		e.pending.push(e.label(domain.PatternSmurfing, ev))
	}
	first, _ := e.pending.pop()
	return first
}

// moneyLaundering emits one huge casino payment from a brand-new identity.
func (e *Engine) moneyLaundering(now time.Time) domain.LabeledEvent {
	user, err := e.pool.FreshUser()
	if err != nil {
		panic(fmt.Errorf("generator: money laundering identity: %w", err))
	}
	casino := domain.Merchant{
		MerchantID: "m_casino_" + e.randomHex(5),
		Name:       casinoName,
		MCC:        casinoMCC,
		BaseLat:    casinoLat,
		BaseLon:    casinoLon,
	}
	ev := e.build(user, casino, e.between(launderMinAmount, launderMaxAmount),
		casino.BaseLat, casino.BaseLon, now)
	return e.label(domain.PatternMoneyLaundering, ev)
}

// walletHoarder picks one pooled identity and cycles it through several
// stolen cards at the same merchant, ten seconds apart.
func (e *Engine) walletHoarder(merchant domain.Merchant, now time.Time) domain.LabeledEvent {
	victim := e.pool.PickUser(e.rng)

	usedBINs := make(map[string]struct{}, hoarderCards)
	for i := 0; i < hoarderCards; i++ {
		token := "tok_stolen_" + e.randomHex(8)
		bin := e.stolenBIN(usedBINs)
		card := victim.WithCard(token, bin)

		ev := e.build(card, merchant, e.between(hoarderMinAmount, hoarderMaxAmount),
			merchant.BaseLat, merchant.BaseLon, now.Add(time.Duration(i)*hoarderSpacing))
		e.pending.push(e.label(domain.PatternWalletHoarder, ev))
	}
	first, _ := e.pending.pop()
	return first
}

// stolenBIN draws a 6-digit BIN not yet used in the current burst.
func (e *Engine) stolenBIN(used map[string]struct{}) string {
	for {
		bin := strconv.FormatInt(e.between(hoarderMinBIN, hoarderMaxBIN), 10)
		if _, dup := used[bin]; !dup {
			used[bin] = struct{}{}
			return bin
		}
	}
}
