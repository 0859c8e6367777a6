// Package fakedata adapts a realistic fake-data library to the small surface
// the generator needs: IPs, company names, coordinates, card numbers, digits.
package fakedata

import (
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// CardNetwork is a card scheme a user's card can belong to.
type CardNetwork string

const (
	Visa            CardNetwork = "visa"
	Mastercard      CardNetwork = "mastercard"
	AmericanExpress CardNetwork = "american-express"
)

// Networks is the closed set of card networks drawn for new users.
var Networks = []CardNetwork{Visa, Mastercard, AmericanExpress}

// TokenName is the network as it appears inside a card token (tok_<name>_<last4>).
func (n CardNetwork) TokenName() string {
	return strings.ReplaceAll(string(n), "-", "_")
}

// Provider is the realistic data capability consumed by the actor pools and
// the engine. Implementations need not be safe for concurrent use.
type Provider interface {
	// IPv4 returns a dotted-quad IPv4 address.
	IPv4() string
	// Company returns a company name.
	Company() string
	// Coordinates returns latitude and longitude as decimal strings. The
	// decimal separator may be a comma depending on the locale.
	Coordinates() (lat, lon string)
	// CreditCard returns a full card number for the given network.
	CreditCard(network CardNetwork) string
	// Digits returns n random decimal digits.
	Digits(n int) string
	// Number returns an integer in [min, max].
	Number(min, max int) int
	// PickNetwork picks uniformly among Networks.
	PickNetwork() CardNetwork
}

// Gofakeit is a Provider backed by gofakeit.
type Gofakeit struct {
	faker        *gofakeit.Faker
	decimalComma bool
}

// Option configures a Gofakeit provider.
type Option func(*Gofakeit)

// WithDecimalComma renders coordinates with a comma decimal separator, the
// way continental European locales print them.
func WithDecimalComma() Option {
	return func(g *Gofakeit) { g.decimalComma = true }
}

// NewGofakeit creates a provider. A zero seed picks a random one.
func NewGofakeit(seed uint64, opts ...Option) *Gofakeit {
	g := &Gofakeit{faker: gofakeit.New(seed)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gofakeit) IPv4() string { return g.faker.IPv4Address() }

func (g *Gofakeit) Company() string { return g.faker.Company() }

func (g *Gofakeit) Coordinates() (string, string) {
	addr := g.faker.Address()
	return g.formatCoordinate(addr.Latitude), g.formatCoordinate(addr.Longitude)
}

func (g *Gofakeit) formatCoordinate(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	if g.decimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func (g *Gofakeit) CreditCard(network CardNetwork) string {
	return g.faker.CreditCardNumber(&gofakeit.CreditCardOptions{
		Types: []string{string(network)},
	})
}

func (g *Gofakeit) Digits(n int) string {
	if n <= 0 {
		return ""
	}
	return g.faker.DigitN(uint(n))
}

func (g *Gofakeit) Number(min, max int) int { return g.faker.Number(min, max) }

func (g *Gofakeit) PickNetwork() CardNetwork {
	names := make([]string, len(Networks))
	for i, n := range Networks {
		names[i] = string(n)
	}
	return CardNetwork(g.faker.RandomString(names))
}
