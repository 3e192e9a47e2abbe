// Package outbox relays audit events written to the transactional outbox to a message
// broker. Entries are published in creation order and marked published in the same
// transaction that locked them, so a failed publish leaves them for the next run.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Store reads and acknowledges outbox entries.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

// Publisher delivers entries to the broker. Publish returns only once every entry is
// acknowledged.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}

type Relay struct {
	store     Store
	publisher Publisher
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithBatchSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(store Store, publisher Publisher, opts ...Option) (*Relay, error) {
	if store == nil {
		return nil, errors.New("outbox store is required")
	}
	if publisher == nil {
		return nil, errors.New("outbox publisher is required")
	}
	r := &Relay{
		store:     store,
		publisher: publisher,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RelayOnce publishes one batch and returns how many entries were published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var published int
	err := r.store.InTx(ctx, func(ctx context.Context) error {
		entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := r.publisher.Publish(ctx, entries); err != nil {
			return fmt.Errorf("publish outbox entries: %w", err)
		}
		ids := make([]uuid.UUID, len(entries))
		for i, entry := range entries {
			ids[i] = entry.ID
		}
		if err := r.store.MarkPublished(ctx, ids, time.Now().UTC()); err != nil {
			return err
		}
		published = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 {
		r.logger.DebugContext(ctx, "outbox entries relayed", "count", published)
	}
	return published, nil
}
