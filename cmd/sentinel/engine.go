package main

import (
	"fmt"
	"log/slog"
	"time"

	"sentinel/generator/internal/actors"
	"sentinel/generator/internal/fakedata"
	"sentinel/generator/internal/generator"
)

// buildEngine wires provider → pool → engine. A zero seed is replaced by a
// time-based one, which is logged so the run can be reproduced.
func buildEngine(seed int64, clock func() time.Time, logger *slog.Logger) (*generator.Engine, *actors.Pool, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	provider := fakedata.NewGofakeit(uint64(seed))

	pool := actors.NewPool(provider)
	if err := pool.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize actor pools: %w", err)
	}

	opts := []generator.Option{generator.WithSeed(seed)}
	if clock != nil {
		opts = append(opts, generator.WithClock(clock))
	}
	engine, err := generator.New(pool, provider, opts...)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("actor pools ready",
		"seed", seed,
		"users", pool.Users(),
		"merchants", pool.Merchants(),
	)
	return engine, pool, nil
}
