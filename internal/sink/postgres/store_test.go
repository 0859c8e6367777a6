package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/domain"
)

func sample() domain.LabeledEvent {
	return domain.LabeledEvent{
		Event: domain.TransactionEvent{
			TransactionID: "5f0c2b1e-0000-4000-8000-000000000001",
			UserID:        "u_00000001",
			CardToken:     "tok_mastercard_1234",
			CardBIN:       "512345",
			Amount:        4200000,
			Currency:      domain.Currency,
			MerchantDetails: domain.MerchantDetails{
				MerchantID: "m_casino_abcde",
				MCC:        "7995",
				Name:       "Royal Casino Online",
			},
			Location:  domain.Location{Lat: 45.4642, Lon: 9.19},
			IPAddress: "10.0.0.7",
			Timestamp: "2026-03-14T09:26:53.5Z",
		},
		Pattern: domain.PatternMoneyLaundering,
	}
}

func TestInsertArgs_FlattensEvent(t *testing.T) {
	args, err := insertArgs(sample())
	require.NoError(t, err)
	require.Len(t, args, 14)

	assert.Equal(t, "m_casino_abcde", args[6])
	assert.Equal(t, "7995", args[7])
	assert.Equal(t, int64(4200000), args[4])
	assert.Equal(t, time.Date(2026, 3, 14, 9, 26, 53, 500_000_000, time.UTC), args[12])
	assert.Equal(t, "money_laundering", args[13])
}

func TestInsertArgs_BadTimestamp(t *testing.T) {
	ev := sample()
	ev.Event.Timestamp = "yesterday"
	_, err := insertArgs(ev)
	assert.Error(t, err)
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "", 0)
	assert.Error(t, err)
}

// TestStore_Roundtrip runs only when SENTINEL_TEST_PG_DSN points at a database.
func TestStore_Roundtrip(t *testing.T) {
	dsn := os.Getenv("SENTINEL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("SENTINEL_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, dsn, 2)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	ev := sample()
	require.NoError(t, s.Put(ctx, []domain.LabeledEvent{ev, ev, ev}))

	var n int
	require.NoError(t, s.pool.QueryRow(ctx,
		`SELECT count(*) FROM transaction_events WHERE transaction_id = $1`,
		ev.Event.TransactionID).Scan(&n))
	assert.Equal(t, 1, n)
}
