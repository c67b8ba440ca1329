package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"kakeibo/internal/core"
)

// Event types, also used as routing keys.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionSnapshot is the wire form of a ledger row. Deleted rows are
// gone from the database by the time the event is consumed, so the event
// carries the full row rather than just its id.
type TransactionSnapshot struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	CoupleID            string `json:"couple_id,omitempty"`
	Kind                string `json:"kind"`
	Category            string `json:"category"`
	AmountCents         int64  `json:"amount_cents"`
	Date                string `json:"date"`
	Description         string `json:"description,omitempty"`
	IsSplit             bool   `json:"is_split"`
	OriginalAmountCents int64  `json:"original_amount_cents,omitempty"`
	PaidByUserID        string `json:"paid_by_user_id,omitempty"`
	SplitGroupID        string `json:"split_group_id,omitempty"`
}

// TransactionEvent is published after a ledger row is created or deleted.
// ActorID is the user whose request produced the row, which differs from
// the row owner for the partner half of a split.
type TransactionEvent struct {
	Type        string              `json:"type"`
	ActorID     string              `json:"actor_id"`
	Transaction TransactionSnapshot `json:"transaction"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewTransactionEvent(eventType, actorID string, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:        eventType,
		ActorID:     actorID,
		Transaction: SnapshotOf(t),
		Timestamp:   time.Now().UTC(),
	}
}

// SnapshotOf converts a ledger row to its wire form.
func SnapshotOf(t core.Transaction) TransactionSnapshot {
	return TransactionSnapshot{
		ID:                  t.ID,
		UserID:              t.UserID,
		CoupleID:            t.CoupleID,
		Kind:                string(t.Kind),
		Category:            t.Category,
		AmountCents:         t.Amount.Cents,
		Date:                t.Date.String(),
		Description:         t.Description,
		IsSplit:             t.IsSplit,
		OriginalAmountCents: t.OriginalAmount.Cents,
		PaidByUserID:        t.PaidByUserID,
		SplitGroupID:        t.SplitGroupID,
	}
}

// Transaction converts the snapshot back to a ledger row.
func (s TransactionSnapshot) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(s.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:             s.ID,
		UserID:         s.UserID,
		CoupleID:       s.CoupleID,
		Kind:           core.Kind(s.Kind),
		Category:       s.Category,
		Amount:         core.Money{Cents: s.AmountCents},
		Date:           date,
		Description:    s.Description,
		IsSplit:        s.IsSplit,
		OriginalAmount: core.Money{Cents: s.OriginalAmountCents},
		PaidByUserID:   s.PaidByUserID,
		SplitGroupID:   s.SplitGroupID,
	}, nil
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event and rejects unknown types.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case EventTransactionCreated, EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.Transaction.ID == "" {
		return nil, fmt.Errorf("event %s without transaction id", ev.Type)
	}
	return &ev, nil
}
