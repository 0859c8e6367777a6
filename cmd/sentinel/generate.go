package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sentinel/generator/internal/config"
	"sentinel/generator/internal/domain"
	"sentinel/generator/internal/sink"
)

const generateBatch = 256

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a batch of events as JSON lines without sleeping",
		RunE:  runGenerate,
	}
	cmd.Flags().Int("count", 1000, "number of events to write")
	cmd.Flags().Int64("seed", 0, "random seed (0 = time-based)")
	cmd.Flags().String("out", "-", "output file, - for stdout")
	cmd.Flags().String("start", "", "RFC 3339 timestamp of the first event (default now)")
	cmd.Flags().Duration("step", config.DefaultIntervalMs*time.Millisecond, "simulated time between events")
	return cmd
}

// generateOptions drives a batch run.
type generateOptions struct {
	Count int
	Seed  int64
	Start time.Time
	Step  time.Duration
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	loader, err := config.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	cfg := loader.Config()

	opts := generateOptions{Seed: cfg.Generator.Seed, Start: time.Now().UTC()}
	opts.Count, _ = cmd.Flags().GetInt("count")
	opts.Step, _ = cmd.Flags().GetDuration("step")
	if cmd.Flags().Changed("seed") {
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		if opts.Start, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if opts.Count < 0 {
		return fmt.Errorf("--count must not be negative")
	}

	// stdout may carry the events, so logs go to stderr.
	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	out, _ := cmd.Flags().GetString("out")
	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	if err := generate(cmd.Context(), opts, bw, logger); err != nil {
		return err
	}
	return bw.Flush()
}

// generate writes opts.Count events to w. The engine clock starts at
// opts.Start and advances by opts.Step per fresh decision, simulating the
// publisher cadence.
func generate(ctx context.Context, opts generateOptions, w io.Writer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tick := 0
	clock := func() time.Time {
		t := opts.Start.Add(time.Duration(tick) * opts.Step)
		tick++
		return t
	}
	engine, _, err := buildEngine(opts.Seed, clock, logger)
	if err != nil {
		return err
	}

	out := sink.NewWriter(w)
	counts := make(map[domain.Pattern]int)
	batch := make([]domain.LabeledEvent, 0, generateBatch)
	for i := 0; i < opts.Count; i++ {
		ev := engine.NextLabeled()
		counts[ev.Pattern]++
		batch = append(batch, ev)
		if len(batch) == cap(batch) {
			if err := out.Put(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := out.Put(ctx, batch); err != nil {
		return err
	}

	attrs := []any{"count", opts.Count}
	for p, n := range counts {
		attrs = append(attrs, p.String(), n)
	}
	logger.Info("generation complete", attrs...)
	return nil
}
