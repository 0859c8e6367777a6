package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/domain"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func decodeLines(t *testing.T, data []byte) []domain.TransactionEvent {
	t.Helper()
	var out []domain.TransactionEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var ev domain.TransactionEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		out = append(out, ev)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestGenerate_WritesCountLines(t *testing.T) {
	var buf bytes.Buffer
	opts := generateOptions{
		Count: 600,
		Seed:  5,
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:  500 * time.Millisecond,
	}
	require.NoError(t, generate(context.Background(), opts, &buf, quiet))

	events := decodeLines(t, buf.Bytes())
	require.Len(t, events, 600)

	first, err := events[0].Time()
	require.NoError(t, err)
	assert.Equal(t, opts.Start, first)
	for _, ev := range events {
		assert.Equal(t, domain.Currency, ev.Currency)
		assert.NotEmpty(t, ev.TransactionID)
	}
}

func TestGenerate_SameSeedSameOutput(t *testing.T) {
	opts := generateOptions{
		Count: 300,
		Seed:  2024,
		Start: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Step:  time.Second,
	}
	var a, b bytes.Buffer
	require.NoError(t, generate(context.Background(), opts, &a, quiet))
	require.NoError(t, generate(context.Background(), opts, &b, quiet))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerate_ZeroCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(context.Background(), generateOptions{Seed: 1, Step: time.Second}, &buf, quiet))
	assert.Zero(t, buf.Len())
}

func TestGenerateCmd_WritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	root := newRootCmd()
	root.SetArgs([]string{"generate", "--count", "25", "--seed", "9", "--out", out, "--start", "2026-01-01T00:00:00Z"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, data), 25)
}

func TestGenerateCmd_RejectsBadStart(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--count", "1", "--start", "yesterday"})
	assert.Error(t, root.Execute())
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", "json", io.Discard)
	assert.NoError(t, err)
	_, err = newLogger("loud", "text", io.Discard)
	assert.Error(t, err)
	_, err = newLogger("info", "xml", io.Discard)
	assert.Error(t, err)
}
