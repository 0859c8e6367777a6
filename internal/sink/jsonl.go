package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"sentinel/generator/internal/domain"
)

// JSONLOptions configures the rotation of a JSONL file sink.
type JSONLOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// JSONL writes one transaction event per line. Only the wire format is
// written; pattern labels stay internal.
type JSONL struct {
	name string
	mu   sync.Mutex
	w    io.Writer
	c    io.Closer
}

// NewJSONL opens a size-rotated JSONL file.
func NewJSONL(opts JSONLOptions) (*JSONL, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sink: jsonl path is required")
	}
	dir := filepath.Dir(opts.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return &JSONL{name: "jsonl", w: lj, c: lj}, nil
}

// NewWriter writes JSON lines to w, e.g. os.Stdout. Close does not close w.
func NewWriter(w io.Writer) *JSONL {
	return &JSONL{name: "stdout", w: w}
}

// Name implements Sink.
func (s *JSONL) Name() string { return s.name }

// Put appends a batch of events as JSON lines.
func (s *JSONL) Put(_ context.Context, events []domain.LabeledEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writer := bufio.NewWriter(s.w)
	for _, ev := range events {
		line, err := json.Marshal(ev.Event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.Event.TransactionID, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONL) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
