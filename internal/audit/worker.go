package audit

import (
	"context"
	"log/slog"
)

// Sink receives events after they are persisted, for fan-out to external
// systems such as Kafka.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the publisher inbox and persists them.
// Persistence failures are logged and skipped; the trail is best-effort ops
// telemetry, not a ledger.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"merchant_id", event.MerchantID,
					"error", err,
				)
				continue
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.WarnContext(ctx, "failed to publish audit event to sink",
						"action", event.Action,
						"merchant_id", event.MerchantID,
						"error", err,
					)
				}
			}
		}
	}
}
