package actors_test

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/actors"
	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/fakedata"
	"sentinel/generator/internal/fakedata/fakedatatest"
)

var (
	userIDRe   = regexp.MustCompile(`^u_[0-9]{8}$`)
	tokenRe    = regexp.MustCompile(`^tok_(visa|mastercard|american_express)_[0-9]{4}$`)
	binRe      = regexp.MustCompile(`^[0-9]{6}$`)
	merchantRe = regexp.MustCompile(`^m_[a-z0-9_]+_[0-9]{4}$`)
)

func newPool(t *testing.T) *actors.Pool {
	t.Helper()
	p := actors.NewPool(&fakedatatest.Stub{})
	require.NoError(t, p.Initialize())
	return p
}

// ─── Initialize ──────────────────────────────────────────────────────────────

func TestInitialize_PopulatesFixedSizes(t *testing.T) {
	p := newPool(t)
	assert.Equal(t, domain.UserPoolSize, p.Users())
	assert.Equal(t, domain.MerchantPoolSize, p.Merchants())
	assert.True(t, p.Initialized())
}

func TestInitialize_Twice_ReturnsError(t *testing.T) {
	p := newPool(t)
	assert.ErrorIs(t, p.Initialize(), actors.ErrAlreadyInitialized)
}

func TestInitialize_BadCoordinate_IsFatal(t *testing.T) {
	p := actors.NewPool(&fakedatatest.Stub{Lat: "north", Lon: "9.19"})
	err := p.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
	assert.False(t, p.Initialized(), "a failed initialization must leave the pool unusable")
}

func TestInitialize_RealProvider(t *testing.T) {
	p := actors.NewPool(fakedata.NewGofakeit(1, fakedata.WithDecimalComma()))
	require.NoError(t, p.Initialize())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		u := p.PickUser(rng)
		assert.Regexp(t, userIDRe, u.UserID)
		assert.Regexp(t, tokenRe, u.CardToken)
		assert.Regexp(t, binRe, u.CardBIN)

		m := p.PickMerchant(rng)
		assert.Regexp(t, merchantRe, m.MerchantID)
		assert.Len(t, m.MCC, 4)
		assert.GreaterOrEqual(t, m.BaseLat, -90.0)
		assert.LessOrEqual(t, m.BaseLat, 90.0)
	}
}

// ─── Picking ─────────────────────────────────────────────────────────────────

func TestPick_BeforeInitialize_Panics(t *testing.T) {
	p := actors.NewPool(&fakedatatest.Stub{})
	rng := rand.New(rand.NewSource(1))
	assert.PanicsWithValue(t, actors.ErrNotInitialized, func() { p.PickUser(rng) })
	assert.PanicsWithValue(t, actors.ErrNotInitialized, func() { p.PickMerchant(rng) })
}

func TestPick_ReturnsPoolMembers(t *testing.T) {
	p := newPool(t)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		assert.True(t, p.Contains(p.PickUser(rng).UserID))
	}
}

func TestPick_WithReplacement_RepeatsUsers(t *testing.T) {
	p := newPool(t)
	rng := rand.New(rand.NewSource(5))
	seen := map[string]int{}
	for i := 0; i < 5000; i++ {
		seen[p.PickUser(rng).UserID]++
	}
	repeated := 0
	for _, n := range seen {
		if n > 1 {
			repeated++
		}
	}
	assert.Greater(t, repeated, 0)
}

// ─── Synthesis ───────────────────────────────────────────────────────────────

func TestNewUser_DerivesBinAndToken(t *testing.T) {
	p := actors.NewPool(&fakedatatest.Stub{})
	u, err := p.NewUser()
	require.NoError(t, err)

	// Stub hands out visa first: "4" followed by a zero-padded counter.
	assert.Equal(t, "400000", u.CardBIN)
	assert.Equal(t, "tok_visa_0001", u.CardToken)
	assert.Regexp(t, userIDRe, u.UserID)
}

func TestFreshUser_AvoidsPoolIDs(t *testing.T) {
	stub := &fakedatatest.Repeating{Stub: &fakedatatest.Stub{}}
	p := actors.NewPool(stub)
	require.NoError(t, p.Initialize())

	taken := p.PickUser(rand.New(rand.NewSource(1))).UserID
	stub.Value = strings.TrimPrefix(taken, "u_")
	stub.Repeat = 3

	u, err := p.FreshUser()
	require.NoError(t, err)
	assert.NotEqual(t, taken, u.UserID)
	assert.False(t, p.Contains(u.UserID))
	assert.Equal(t, domain.UserPoolSize, p.Users(), "fresh users are never pooled")
}

func TestNewMerchant_SlugAndCommaCoordinates(t *testing.T) {
	p := actors.NewPool(&fakedatatest.Stub{Lat: "45,4642", Lon: "9,1900"})
	m, err := p.NewMerchant()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^m_acme_sons_1_ltd_[0-9]{4}$`), m.MerchantID)
	assert.Equal(t, "Acme & Sons 1, Ltd.", m.Name)
	assert.InDelta(t, 45.4642, m.BaseLat, 1e-9)
	assert.InDelta(t, 9.19, m.BaseLon, 1e-9)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":             "acme_corp",
		"  --Hello,  World!-- ": "hello_world",
		"Schmidt-Müller GmbH":   "schmidt_m_ller_gmbh",
		"ABC123":                "abc123",
		"___":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, actors.Slugify(in), "Slugify(%q)", in)
	}
}

func TestParseCoordinate(t *testing.T) {
	v, err := actors.ParseCoordinate("-74,0060")
	require.NoError(t, err)
	assert.InDelta(t, -74.006, v, 1e-9)

	_, err = actors.ParseCoordinate("abc")
	assert.Error(t, err)
}
