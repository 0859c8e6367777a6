package fakedata_test

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/fakedata"
)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

func TestGofakeit_IPv4IsParseable(t *testing.T) {
	p := fakedata.NewGofakeit(7)
	for i := 0; i < 20; i++ {
		ip := net.ParseIP(p.IPv4())
		require.NotNil(t, ip)
		assert.NotNil(t, ip.To4())
	}
}

func TestGofakeit_CreditCardMatchesNetworkPrefix(t *testing.T) {
	p := fakedata.NewGofakeit(11)

	visa := p.CreditCard(fakedata.Visa)
	require.Regexp(t, digitsRe, visa)
	assert.True(t, strings.HasPrefix(visa, "4"), "visa numbers start with 4, got %s", visa)

	amex := p.CreditCard(fakedata.AmericanExpress)
	require.Regexp(t, digitsRe, amex)
	assert.True(t, strings.HasPrefix(amex, "34") || strings.HasPrefix(amex, "37"), "amex prefix, got %s", amex)
}

func TestGofakeit_Digits(t *testing.T) {
	p := fakedata.NewGofakeit(3)
	d := p.Digits(8)
	assert.Len(t, d, 8)
	assert.Regexp(t, digitsRe, d)
	assert.Equal(t, "", p.Digits(0))
}

func TestGofakeit_NumberWithinBounds(t *testing.T) {
	p := fakedata.NewGofakeit(5)
	for i := 0; i < 200; i++ {
		n := p.Number(5000, 5999)
		assert.GreaterOrEqual(t, n, 5000)
		assert.LessOrEqual(t, n, 5999)
	}
}

func TestGofakeit_PickNetworkIsKnown(t *testing.T) {
	p := fakedata.NewGofakeit(9)
	seen := map[fakedata.CardNetwork]bool{}
	for i := 0; i < 300; i++ {
		seen[p.PickNetwork()] = true
	}
	for n := range seen {
		assert.Contains(t, fakedata.Networks, n)
	}
	assert.Len(t, seen, len(fakedata.Networks), "all networks should appear over 300 draws")
}

func TestGofakeit_CoordinatesDecimalComma(t *testing.T) {
	p := fakedata.NewGofakeit(13, fakedata.WithDecimalComma())
	lat, lon := p.Coordinates()
	assert.Contains(t, lat, ",")
	assert.Contains(t, lon, ",")

	_, err := strconv.ParseFloat(strings.Replace(lat, ",", ".", 1), 64)
	assert.NoError(t, err)
}

func TestGofakeit_SameSeedSameData(t *testing.T) {
	a := fakedata.NewGofakeit(42)
	b := fakedata.NewGofakeit(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Company(), b.Company())
		assert.Equal(t, a.IPv4(), b.IPv4())
	}
}

func TestCardNetwork_TokenName(t *testing.T) {
	assert.Equal(t, "american_express", fakedata.AmericanExpress.TokenName())
	assert.Equal(t, "visa", fakedata.Visa.TokenName())
}
