package sink_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/sink"
)

func event(id string, p domain.Pattern) domain.LabeledEvent {
	return domain.LabeledEvent{
		Event: domain.TransactionEvent{
			TransactionID: id,
			UserID:        "u_12345678",
			CardToken:     "tok_visa_4242",
			CardBIN:       "424242",
			Amount:        2599,
			Currency:      domain.Currency,
			MerchantDetails: domain.MerchantDetails{
				MerchantID: "m_acme_0001",
				MCC:        "5411",
				Name:       "Acme",
			},
			Location:  domain.Location{Lat: 45.4642, Lon: 9.19},
			IPAddress: "10.0.0.1",
			Timestamp: "2026-03-14T09:26:53Z",
		},
		Pattern: p,
	}
}

func TestWriter_OneObjectPerLine_NoLabel(t *testing.T) {
	var buf bytes.Buffer
	s := sink.NewWriter(&buf)
	require.Equal(t, "stdout", s.Name())

	err := s.Put(context.Background(), []domain.LabeledEvent{
		event("a", domain.PatternLegitimate),
		event("b", domain.PatternSmurfing),
	})
	require.NoError(t, err)

	sc := bufio.NewScanner(&buf)
	var got []map[string]any
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		got = append(got, m)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["transaction_id"])
	assert.Equal(t, "b", got[1]["transaction_id"])
	assert.NotContains(t, got[1], "pattern")
	assert.Equal(t, "EUR", got[0]["currency"])

	details, ok := got[0]["merchant_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5411", details["mcc"])
	require.NoError(t, s.Close())
}

func TestWriter_EmptyBatchWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.NewWriter(&buf).Put(context.Background(), nil))
	assert.Zero(t, buf.Len())
}

func TestJSONL_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s, err := sink.NewJSONL(sink.JSONLOptions{Path: path, MaxSizeMB: 1})
	require.NoError(t, err)
	assert.Equal(t, "jsonl", s.Name())

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, []domain.LabeledEvent{event("1", domain.PatternLegitimate)}))
	require.NoError(t, s.Put(ctx, []domain.LabeledEvent{event("2", domain.PatternWalletHoarder)}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var ev domain.TransactionEvent
	require.NoError(t, json.Unmarshal(lines[1], &ev))
	assert.Equal(t, "2", ev.TransactionID)
	assert.Equal(t, "424242", ev.CardBIN)
}

func TestJSONL_RequiresPath(t *testing.T) {
	_, err := sink.NewJSONL(sink.JSONLOptions{})
	assert.Error(t, err)
}
