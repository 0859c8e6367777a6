// Package fakedatatest provides a deterministic fakedata.Provider for tests.
package fakedatatest

import (
	"fmt"
	"strings"

	"sentinel/generator/internal/fakedata"
)

// Stub returns predictable, counter-based values. Every call produces a new
// value so ids stay unique across a test run.
type Stub struct {
	// Lat and Lon, when set, are returned verbatim by Coordinates.
	Lat, Lon string

	ips       int
	companies int
	digits    int
	cards     int
	networks  int
	coords    int
}

var _ fakedata.Provider = (*Stub)(nil)

func (s *Stub) IPv4() string {
	s.ips++
	return fmt.Sprintf("10.0.%d.%d", (s.ips/250)%250, s.ips%250+1)
}

func (s *Stub) Company() string {
	s.companies++
	return fmt.Sprintf("Acme & Sons %d, Ltd.", s.companies)
}

func (s *Stub) Coordinates() (string, string) {
	if s.Lat != "" || s.Lon != "" {
		return s.Lat, s.Lon
	}
	s.coords++
	return fmt.Sprintf("45,%06d", s.coords), fmt.Sprintf("9.%06d", s.coords)
}

func (s *Stub) CreditCard(network fakedata.CardNetwork) string {
	s.cards++
	prefix := "4"
	switch network {
	case fakedata.Mastercard:
		prefix = "5"
	case fakedata.AmericanExpress:
		prefix = "37"
	}
	return prefix + fmt.Sprintf("%015d", s.cards)[len(prefix)-1:]
}

// Digits counts upward so consecutive ids never collide.
func (s *Stub) Digits(n int) string {
	s.digits++
	d := fmt.Sprintf("%0*d", n, s.digits)
	return d[len(d)-n:]
}

func (s *Stub) Number(min, max int) int {
	return min + s.digits%(max-min+1)
}

func (s *Stub) PickNetwork() fakedata.CardNetwork {
	n := fakedata.Networks[s.networks%len(fakedata.Networks)]
	s.networks++
	return n
}

// Repeating wraps a Stub and answers the next Repeat digit requests of
// len(Value) with Value, forcing id collisions.
type Repeating struct {
	*Stub
	Value  string
	Repeat int
}

func (r *Repeating) Digits(n int) string {
	if r.Repeat > 0 && n == len(r.Value) {
		r.Repeat--
		return r.Value
	}
	return r.Stub.Digits(n)
}

// IsStubIP reports whether ip came from a Stub.
func IsStubIP(ip string) bool {
	return strings.HasPrefix(ip, "10.0.")
}
