// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"log/slog"
	"time"

	"kakeibo/internal/core"
)

// EventPublisher publishes transaction lifecycle events after commit.
// actorID is the user whose action produced the event.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, actorID string, t core.Transaction) error
	PublishTransactionDeleted(ctx context.Context, actorID string, t core.Transaction) error
}

// publisher wraps an optional EventPublisher. Publishing is best effort:
// the rows are already committed, so failures are only logged.
type publisher struct {
	events EventPublisher
}

func (p publisher) created(ctx context.Context, actorID string, rows ...core.Transaction) {
	if p.events == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping created events", "count", len(rows))
		return
	}
	for _, t := range rows {
		if err := p.events.PublishTransactionCreated(ctx, actorID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction created event",
				"transaction_id", t.ID, "error", err)
		}
	}
}

func (p publisher) deleted(ctx context.Context, actorID string, rows ...core.Transaction) {
	if p.events == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping deleted events", "count", len(rows))
		return
	}
	for _, t := range rows {
		if err := p.events.PublishTransactionDeleted(ctx, actorID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction deleted event",
				"transaction_id", t.ID, "error", err)
		}
	}
}

// today returns the calendar day of now in UTC.
func today(now func() time.Time) core.Date {
	return core.DateOf(now().UTC())
}
