package worker

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/sheets/memory"
	"kakeibo/internal/storage"
)

type fakeAlerts struct {
	calls  []string
	actors []string
	err    error
}

func (f *fakeAlerts) HandleCreated(_ context.Context, actorID string, t core.Transaction) ([]core.NotificationLog, error) {
	f.calls = append(f.calls, t.ID)
	f.actors = append(f.actors, actorID)
	return []core.NotificationLog{{UserID: "bob", Type: core.AlertPartnerExpense}}, f.err
}

type fakeSource struct {
	rows   []core.Transaction
	filter storage.TransactionFilter
}

func (f *fakeSource) ListTransactions(_ context.Context, filter storage.TransactionFilter) ([]core.Transaction, error) {
	f.filter = filter
	return f.rows, nil
}

func row(id string, day int) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "alice",
		Kind:     core.Expense,
		Category: "食費",
		Amount:   core.Money{Cents: 1000},
		Date:     core.NewDate(2025, 3, day),
	}
}

func TestLedgerWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	alerts := &fakeAlerts{}
	w := NewLedgerWorker(mirror, alerts, nil, nil)

	created := amqp.NewTransactionEvent(amqp.EventTransactionCreated, "alice", row("t1", 15))
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatalf("HandleEvent(created): %v", err)
	}
	// redelivery is harmless for the mirror
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatalf("HandleEvent(created again): %v", err)
	}
	if mirror.Len() != 1 {
		t.Errorf("mirror rows = %d, want 1", mirror.Len())
	}
	if len(alerts.calls) != 2 || alerts.actors[0] != "alice" {
		t.Errorf("alerts calls = %v actors = %v", alerts.calls, alerts.actors)
	}

	deleted := amqp.NewTransactionEvent(amqp.EventTransactionDeleted, "alice", row("t1", 15))
	if err := w.HandleEvent(ctx, deleted); err != nil {
		t.Fatalf("HandleEvent(deleted): %v", err)
	}
	if mirror.Len() != 0 {
		t.Errorf("mirror rows after delete = %d, want 0", mirror.Len())
	}
	if len(alerts.calls) != 2 {
		t.Errorf("delete should not run alerts, calls = %v", alerts.calls)
	}
}

func TestLedgerWorker_HandleEventErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		ev     *amqp.TransactionEvent
		alerts *fakeAlerts
	}{
		{
			name:   "unknown type",
			ev:     &amqp.TransactionEvent{Type: "transaction.updated", Transaction: amqp.SnapshotOf(row("t1", 1))},
			alerts: &fakeAlerts{},
		},
		{
			name:   "bad date",
			ev:     &amqp.TransactionEvent{Type: amqp.EventTransactionCreated, Transaction: amqp.TransactionSnapshot{ID: "t1", Date: "?"}},
			alerts: &fakeAlerts{},
		},
		{
			name:   "invalid row",
			ev:     amqp.NewTransactionEvent(amqp.EventTransactionCreated, "alice", core.Transaction{ID: "t1", Date: core.NewDate(2025, 3, 1)}),
			alerts: &fakeAlerts{},
		},
		{
			name:   "alerts fail",
			ev:     amqp.NewTransactionEvent(amqp.EventTransactionCreated, "alice", row("t1", 1)),
			alerts: &fakeAlerts{err: errors.New("database is locked")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewLedgerWorker(memory.New(), tt.alerts, nil, nil)
			if err := w.HandleEvent(ctx, tt.ev); err == nil {
				t.Error("HandleEvent() should fail")
			}
		})
	}
}

func TestLedgerWorker_Reconcile(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	stale := row("gone", 2)
	for _, r := range []core.Transaction{row("t1", 1), stale} {
		if _, err := mirror.Append(ctx, r); err != nil {
			t.Fatalf("seed mirror: %v", err)
		}
	}
	source := &fakeSource{rows: []core.Transaction{row("t3", 20), row("t2", 10), row("t1", 1)}}
	w := NewLedgerWorker(mirror, nil, source, nil)

	res, err := w.Reconcile(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Appended != 2 || res.Removed != 1 {
		t.Errorf("Reconcile() = %+v, want 2 appended and 1 removed", res)
	}
	if source.filter.From != core.NewDate(2025, 3, 1) || source.filter.To != core.NewDate(2025, 3, 31) {
		t.Errorf("source filter = %+v", source.filter)
	}

	rows, _ := mirror.ListMonth(ctx, 2025, 3)
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	want := []string{"t1", "t2", "t3"}
	if len(ids) != len(want) {
		t.Fatalf("mirror ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("mirror ids = %v, want %v", ids, want)
			break
		}
	}

	again, err := w.Reconcile(ctx, 2025, 3)
	if err != nil || again != (ReconcileResult{}) {
		t.Errorf("second Reconcile() = %+v, %v; want no changes", again, err)
	}

	if _, err := NewLedgerWorker(mirror, nil, nil, nil).Reconcile(ctx, 2025, 3); err == nil {
		t.Error("Reconcile without a source should fail")
	}
}
