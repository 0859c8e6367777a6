package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sentinel/generator/internal/api"
	"sentinel/generator/internal/config"
	"sentinel/generator/internal/publisher"
	"sentinel/generator/internal/sink"
	"sentinel/generator/internal/sink/postgres"
	"sentinel/generator/internal/store"
	"sentinel/generator/internal/webhook"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Emit events on a cadence and serve the control API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().Duration("interval", config.DefaultIntervalMs*time.Millisecond, "emission interval")
	cmd.Flags().Int64("seed", 0, "random seed (0 = time-based)")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	return cmd
}

// applyServeFlags copies explicitly set flags over the file config. The PORT
// environment variable, injected by most PaaS platforms, wins over both.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("interval") {
		d, _ := flags.GetDuration("interval")
		cfg.Publisher.IntervalMs = int(d / time.Millisecond)
	}
	if flags.Changed("seed") {
		cfg.Generator.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	loader, err := config.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	cfg := *loader.Config()
	applyServeFlags(cmd.Flags(), &cfg)
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	// Events own stdout when the stdout sink is on.
	logOut := os.Stdout
	if cfg.Sinks.Stdout {
		logOut = os.Stderr
	}
	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Wire dependencies ─────────────────────────────────────────────────────
	engine, pool, err := buildEngine(cfg.Generator.Seed, nil, logger)
	if err != nil {
		return err
	}
	st := store.New(cfg.Store.Capacity)
	sinks, err := buildSinks(ctx, &cfg, st, logger)
	if err != nil {
		return err
	}
	pub := publisher.New(engine, st, sinks, cfg.Publisher.Interval(), logger)
	if cfg.Publisher.Paused {
		pub.Pause()
	}
	defer startPublisher(ctx, pub, logger)()

	// ── Hot reload ────────────────────────────────────────────────────────────
	intervalPinned := cmd.Flags().Changed("interval")
	loader.OnChange(func(c *config.Config) {
		if !intervalPinned {
			pub.SetInterval(c.Publisher.Interval())
		}
		if c.Publisher.Paused {
			pub.Pause()
		} else {
			pub.Resume()
		}
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		return err
	}
	defer stopWatch()

	// ── Start HTTP server ─────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(api.NewHandler(st, pub, pool)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "config", cfgFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// startPublisher runs pub's loop in the background. The returned function
// stops the loop, waits for it to return and only then closes the sinks.
func startPublisher(ctx context.Context, pub *publisher.Publisher, logger *slog.Logger) func() {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pub.Run(runCtx)
	}()
	return func() {
		cancel()
		<-done
		if err := pub.Close(); err != nil {
			logger.Error("close sinks", "error", err)
		}
	}
}

// closeSinks releases sinks opened before a later one failed.
func closeSinks(sinks []sink.Sink, logger *slog.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Warn("close sink", "sink", s.Name(), "error", err)
		}
	}
}

// buildSinks opens every output enabled in cfg. The webhook notifier is always
// present so hooks registered through the API receive events.
func buildSinks(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) ([]sink.Sink, error) {
	var sinks []sink.Sink
	if cfg.Sinks.Stdout {
		sinks = append(sinks, sink.NewWriter(os.Stdout))
	}
	if j := cfg.Sinks.JSONL; j.Enabled {
		out, err := sink.NewJSONL(sink.JSONLOptions{
			Path:       j.Path,
			MaxSizeMB:  j.MaxSizeMB,
			MaxBackups: j.MaxBackups,
			MaxAgeDays: j.MaxAgeDays,
			Compress:   j.Compress,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, out)
		logger.Info("jsonl sink enabled", "path", j.Path)
	}
	if pg := cfg.Sinks.Postgres; pg.DSN != "" {
		db, err := postgres.NewStore(ctx, pg.DSN, pg.BatchSize)
		if err != nil {
			closeSinks(sinks, logger)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			closeSinks(sinks, logger)
			return nil, err
		}
		sinks = append(sinks, db)
		logger.Info("postgres sink enabled", "batch_size", pg.BatchSize)
	}
	sinks = append(sinks, webhook.New(st, cfg.Sinks.StaticWebhooks(), logger))
	return sinks, nil
}
