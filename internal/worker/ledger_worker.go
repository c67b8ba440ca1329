package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/metrics"
	"kakeibo/internal/sheets"
	"kakeibo/internal/storage"
)

// AlertHandler evaluates a created row for budget and partner alerts.
type AlertHandler interface {
	HandleCreated(ctx context.Context, actorID string, t core.Transaction) ([]core.NotificationLog, error)
}

// TransactionSource lists stored rows, used to repair the mirror.
type TransactionSource interface {
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
}

// LedgerWorker consumes transaction events: it keeps the ledger mirror in
// step with the database and writes alert notifications for new expenses.
type LedgerWorker struct {
	mirror  sheets.LedgerMirror
	alerts  AlertHandler
	source  TransactionSource
	metrics *metrics.Metrics
}

func NewLedgerWorker(mirror sheets.LedgerMirror, alerts AlertHandler, source TransactionSource, m *metrics.Metrics) *LedgerWorker {
	return &LedgerWorker{
		mirror:  mirror,
		alerts:  alerts,
		source:  source,
		metrics: m,
	}
}

// HandleEvent processes one event. A returned error makes the consumer
// requeue the message; both steps are safe to repeat.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	err := w.handle(ctx, ev)
	w.metrics.EventConsumed(ev.Type, err)
	return err
}

func (w *LedgerWorker) handle(ctx context.Context, ev *amqp.TransactionEvent) error {
	t, err := ev.Transaction.Transaction()
	if err != nil {
		return fmt.Errorf("decode transaction %s: %w", ev.Transaction.ID, err)
	}

	slog.InfoContext(ctx, "Processing transaction event",
		"type", ev.Type,
		"transaction_id", t.ID,
		"actor_id", ev.ActorID)

	switch ev.Type {
	case amqp.EventTransactionCreated:
		ref, err := w.mirror.Append(ctx, t)
		if err != nil {
			return fmt.Errorf("mirror transaction %s: %w", t.ID, err)
		}
		slog.DebugContext(ctx, "Transaction mirrored", "transaction_id", t.ID, "ref", ref)

		if w.alerts == nil {
			return nil
		}
		written, err := w.alerts.HandleCreated(ctx, ev.ActorID, t)
		w.metrics.NotificationsWritten(written)
		if err != nil {
			return fmt.Errorf("alerts for transaction %s: %w", t.ID, err)
		}

	case amqp.EventTransactionDeleted:
		if err := w.mirror.Delete(ctx, t); err != nil {
			return fmt.Errorf("remove mirrored transaction %s: %w", t.ID, err)
		}
		slog.DebugContext(ctx, "Mirrored transaction removed", "transaction_id", t.ID)

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// ReconcileResult counts the repairs made by Reconcile.
type ReconcileResult struct {
	Appended int
	Removed  int
}

// Reconcile brings the mirror of one month in line with the database,
// recovering from events lost while the worker or the broker was down.
func (w *LedgerWorker) Reconcile(ctx context.Context, year, month int) (ReconcileResult, error) {
	var res ReconcileResult
	if w.source == nil {
		return res, fmt.Errorf("reconcile: no transaction source")
	}
	from, to := core.MonthRange(year, month)
	stored, err := w.source.ListTransactions(ctx, storage.TransactionFilter{From: from, To: to})
	if err != nil {
		return res, fmt.Errorf("list stored transactions: %w", err)
	}
	mirrored, err := w.mirror.ListMonth(ctx, year, month)
	if err != nil {
		return res, fmt.Errorf("list mirrored transactions: %w", err)
	}

	inDB := make(map[string]struct{}, len(stored))
	for _, t := range stored {
		inDB[t.ID] = struct{}{}
	}
	inMirror := make(map[string]struct{}, len(mirrored))
	for _, t := range mirrored {
		inMirror[t.ID] = struct{}{}
	}

	// stored rows come newest first; mirror them in date order
	for i := len(stored) - 1; i >= 0; i-- {
		t := stored[i]
		if _, ok := inMirror[t.ID]; ok {
			continue
		}
		if _, err := w.mirror.Append(ctx, t); err != nil {
			return res, fmt.Errorf("mirror transaction %s: %w", t.ID, err)
		}
		res.Appended++
	}
	for _, t := range mirrored {
		if _, ok := inDB[t.ID]; ok {
			continue
		}
		if err := w.mirror.Delete(ctx, t); err != nil {
			return res, fmt.Errorf("remove mirrored transaction %s: %w", t.ID, err)
		}
		res.Removed++
	}

	slog.InfoContext(ctx, "Ledger reconciled",
		"year", year,
		"month", month,
		"stored", len(stored),
		"mirrored", len(mirrored),
		"appended", res.Appended,
		"removed", res.Removed)
	return res, nil
}
