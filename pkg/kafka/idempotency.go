package kafka

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDuplicate marks an event that was already handled. The consumer treats
// it as success.
var ErrDuplicate = errors.New("kafka: duplicate event")

// IdempotencyStore remembers handled event IDs. Implementations must be safe
// for concurrent use.
type IdempotencyStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string) error
}

// IdempotentHandler skips events whose ID is already in store and records
// IDs only after inner succeeds. A failing store lookup does not block
// processing.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.ID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Seen(ctx, event.ID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed, processing anyway",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		} else if seen {
			logger.DebugContext(ctx, "skipping duplicate event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.Type),
			)
			return ErrDuplicate
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if err := store.MarkSeen(ctx, event.ID); err != nil {
			logger.WarnContext(ctx, "failed to record handled event",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}
