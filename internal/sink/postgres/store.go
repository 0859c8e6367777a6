// Package postgres persists generated events to a transaction_events table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinel/generator/internal/domain"
)

// DefaultBatchSize caps how many events are queued in one pgx batch.
const DefaultBatchSize = 100

const schema = `
CREATE TABLE IF NOT EXISTS transaction_events (
	transaction_id TEXT PRIMARY KEY,
	user_id        TEXT        NOT NULL,
	card_token     TEXT        NOT NULL,
	card_bin       TEXT        NOT NULL,
	amount         BIGINT      NOT NULL,
	currency       TEXT        NOT NULL,
	merchant_id    TEXT        NOT NULL,
	merchant_mcc   TEXT        NOT NULL,
	merchant_name  TEXT        NOT NULL,
	lat            DOUBLE PRECISION NOT NULL,
	lon            DOUBLE PRECISION NOT NULL,
	ip_address     TEXT        NOT NULL,
	event_ts       TIMESTAMPTZ NOT NULL,
	pattern        TEXT        NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transaction_events_user_idx ON transaction_events (user_id);
CREATE INDEX IF NOT EXISTS transaction_events_pattern_idx ON transaction_events (pattern);
`

const insertEvent = `
	INSERT INTO transaction_events (
		transaction_id, user_id, card_token, card_bin, amount, currency,
		merchant_id, merchant_mcc, merchant_name, lat, lon, ip_address, event_ts, pattern
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (transaction_id) DO NOTHING
`

// Store provides Postgres persistence for labeled events.
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewStore connects to dsn. A non-positive batchSize selects DefaultBatchSize.
func NewStore(ctx context.Context, dsn string, batchSize int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{pool: pool, batchSize: batchSize}, nil
}

// EnsureSchema creates the events table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Name implements sink.Sink.
func (s *Store) Name() string { return "postgres" }

// Put inserts events, skipping ids that already exist.
func (s *Store) Put(ctx context.Context, events []domain.LabeledEvent) error {
	for start := 0; start < len(events); start += s.batchSize {
		end := min(start+s.batchSize, len(events))
		if err := s.putBatch(ctx, events[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) putBatch(ctx context.Context, events []domain.LabeledEvent) error {
	batch := &pgx.Batch{}
	for _, ev := range events {
		args, err := insertArgs(ev)
		if err != nil {
			return err
		}
		batch.Queue(insertEvent, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert transaction event: %w", err)
		}
	}
	return nil
}

// insertArgs flattens an event into the positional arguments of insertEvent.
func insertArgs(ev domain.LabeledEvent) ([]any, error) {
	ts, err := ev.Event.Time()
	if err != nil {
		return nil, fmt.Errorf("event %s timestamp: %w", ev.Event.TransactionID, err)
	}
	e := ev.Event
	return []any{
		e.TransactionID,
		e.UserID,
		e.CardToken,
		e.CardBIN,
		e.Amount,
		e.Currency,
		e.MerchantDetails.MerchantID,
		e.MerchantDetails.MCC,
		e.MerchantDetails.Name,
		e.Location.Lat,
		e.Location.Lon,
		e.IPAddress,
		ts,
		ev.Pattern.String(),
	}, nil
}

// Close implements sink.Sink.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
