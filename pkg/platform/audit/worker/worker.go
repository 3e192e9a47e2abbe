package worker

import (
	"context"
	"log/slog"
	"time"
)

// Relay publishes one batch of outbox entries.
type Relay interface {
	RelayOnce(ctx context.Context) (int, error)
}

// Worker drains the audit outbox on an interval. A full batch is followed immediately
// by the next one; errors are logged and retried on the next tick.
type Worker struct {
	relay     Relay
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewWorker(relay Relay, interval time.Duration, batchSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{relay: relay, interval: interval, batchSize: batchSize, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		n, err := w.relay.RelayOnce(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
			}
			return
		}
		if n == 0 || n < w.batchSize {
			return
		}
	}
}
