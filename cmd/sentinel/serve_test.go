package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/generator/internal/config"
	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/publisher"
	"sentinel/generator/internal/sink"
	"sentinel/generator/internal/store"
)

// lifecycleSink notes every write that arrives after Close.
type lifecycleSink struct {
	mu         sync.Mutex
	puts       int
	closed     bool
	lateWrites int
}

func (s *lifecycleSink) Name() string { return "lifecycle" }

func (s *lifecycleSink) Put(_ context.Context, events []domain.LabeledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.lateWrites++
	}
	s.puts += len(events)
	return nil
}

func (s *lifecycleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *lifecycleSink) snapshot() (puts, late int, closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.lateWrites, s.closed
}

func newServePublisher(t *testing.T, out sink.Sink) *publisher.Publisher {
	t.Helper()
	engine, _, err := buildEngine(3, nil, quiet)
	require.NoError(t, err)
	return publisher.New(engine, store.New(1000), []sink.Sink{out}, time.Millisecond, quiet)
}

func TestStartPublisher_StopsLoopBeforeClosingSinks(t *testing.T) {
	out := &lifecycleSink{}
	stop := startPublisher(context.Background(), newServePublisher(t, out), quiet)

	require.Eventually(t, func() bool {
		puts, _, _ := out.snapshot()
		return puts > 0
	}, time.Second, time.Millisecond)
	stop()

	puts, late, closed := out.snapshot()
	assert.True(t, closed)
	assert.Zero(t, late, "sink written after close")

	time.Sleep(20 * time.Millisecond)
	after, _, _ := out.snapshot()
	assert.Equal(t, puts, after, "loop kept emitting after stop")
}

func TestStartPublisher_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := &lifecycleSink{}
	stop := startPublisher(ctx, newServePublisher(t, out), quiet)
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after the parent context was cancelled")
	}
	_, late, closed := out.snapshot()
	assert.True(t, closed)
	assert.Zero(t, late)
}

func TestCloseSinks(t *testing.T) {
	a, b := &lifecycleSink{}, &lifecycleSink{}
	closeSinks([]sink.Sink{a, b}, quiet)
	_, _, aClosed := a.snapshot()
	_, _, bClosed := b.snapshot()
	assert.True(t, aClosed)
	assert.True(t, bClosed)
}

func TestBuildSinks_PostgresFailureReturnsNoSinks(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks.Stdout = false
	cfg.Sinks.JSONL.Enabled = true
	cfg.Sinks.JSONL.Path = filepath.Join(t.TempDir(), "events.jsonl")
	cfg.Sinks.Postgres.DSN = "postgres://localhost:notaport/db"

	sinks, err := buildSinks(context.Background(), cfg, store.New(10), quiet)
	assert.Error(t, err)
	assert.Nil(t, sinks)
}

func TestBuildSinks_WebhookAlwaysPresent(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks.Stdout = false

	sinks, err := buildSinks(context.Background(), cfg, store.New(10), quiet)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "webhook", sinks[0].Name())
	closeSinks(sinks, quiet)
}
