// Package sink defines the destinations generated events are written to.
package sink

import (
	"context"

	"sentinel/generator/internal/domain"
)

// Sink receives batches of emitted events.
type Sink interface {
	Name() string
	Put(ctx context.Context, events []domain.LabeledEvent) error
	Close() error
}
