package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// CreateTransactionRequest is the input of TransactionService.Create.
// For split expenses Amount is the full amount before splitting.
type CreateTransactionRequest struct {
	Kind         core.Kind
	Category     string
	Amount       core.Money
	Date         core.Date
	Description  string
	Scope        core.Scope // personal when empty
	IsSplit      bool
	PaidByUserID string
}

// UpdateTransactionRequest carries the fields to change; nil fields are kept.
// On a split row Amount is the new full amount, re-split across both rows.
type UpdateTransactionRequest struct {
	Category     *string
	Amount       *core.Money
	Date         *core.Date
	Description  *string
	PaidByUserID *string
}

// ListTransactionsRequest filters the transactions visible to a user.
type ListTransactionsRequest struct {
	Scope    core.Scope // personal when empty
	Kind     core.Kind
	Category string
	From     core.Date
	To       core.Date
	Limit    int
	Offset   int
}

// TransactionService orchestrates ledger rows across SQLite and the event bus.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	splits     *SplitGenerator
	categories core.Categories
	publisher
	now func() time.Time
}

func NewTransactionService(
	storage *storage.SQLiteRepository,
	splits *SplitGenerator,
	categories core.Categories,
	events EventPublisher,
) *TransactionService {
	return &TransactionService{
		storage:    storage,
		splits:     splits,
		categories: categories,
		publisher:  publisher{events: events},
		now:        time.Now,
	}
}

// Create records a transaction for userID. A split expense also records the
// partner's share and returns the caller's row.
func (s *TransactionService) Create(ctx context.Context, userID string, req CreateTransactionRequest) (core.Transaction, error) {
	if err := req.Kind.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if req.IsSplit && req.Kind != core.Expense {
		return core.Transaction{}, fmt.Errorf("only expenses can be split: %w", core.ErrInvalidOperation)
	}
	if err := s.categories.Validate(req.Kind, req.Category); err != nil {
		return core.Transaction{}, err
	}
	scope := req.Scope
	if scope == "" {
		scope = core.ScopePersonal
	}
	if err := scope.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created []core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if req.IsSplit {
			couple, err := coupleOf(ctx, q, userID)
			if err != nil {
				return err
			}
			res, err := s.splits.Create(ctx, q, SplitRequest{
				OwnerID:        userID,
				CoupleID:       couple.ID,
				Kind:           req.Kind,
				Category:       req.Category,
				OriginalAmount: req.Amount,
				Date:           req.Date,
				Description:    req.Description,
				PayerID:        req.PaidByUserID,
			})
			if err != nil {
				return err
			}
			created = res.Rows()
			return nil
		}

		t := core.Transaction{
			UserID:      userID,
			Kind:        req.Kind,
			Category:    req.Category,
			Amount:      req.Amount,
			Date:        req.Date,
			Description: req.Description,
		}
		if scope == core.ScopeCouple {
			couple, err := coupleOf(ctx, q, userID)
			if err != nil {
				return err
			}
			t.CoupleID = couple.ID
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if err := q.InsertTransaction(ctx, &t); err != nil {
			return err
		}
		created = []core.Transaction{t}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created[0].ID,
		"user_id", userID,
		"kind", req.Kind,
		"amount_cents", created[0].Amount.Cents,
		"split", req.IsSplit,
		"rows", len(created))

	s.created(ctx, userID, created...)
	return created[0], nil
}

// Get returns a transaction owned by userID.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return ownedTransaction(ctx, s.storage.Queries, userID, id)
}

// List returns the transactions of userID (personal scope) or of the user's
// couple (couple scope), newest first. A user without a couple sees an empty
// couple scope.
func (s *TransactionService) List(ctx context.Context, userID string, req ListTransactionsRequest) ([]core.Transaction, error) {
	f, ok, err := s.filter(ctx, userID, req.Scope)
	if err != nil || !ok {
		return nil, err
	}
	f.Kind, f.Category, f.From, f.To = req.Kind, req.Category, req.From, req.To
	f.Limit, f.Offset = clampPage(req.Limit, req.Offset)
	return s.storage.ListTransactions(ctx, f)
}

// Summary totals the transactions List would return, without paging.
func (s *TransactionService) Summary(ctx context.Context, userID string, req ListTransactionsRequest) (core.TransactionSummary, error) {
	f, ok, err := s.filter(ctx, userID, req.Scope)
	if err != nil || !ok {
		return core.TransactionSummary{}, err
	}
	f.Kind, f.Category, f.From, f.To = req.Kind, req.Category, req.From, req.To
	return s.storage.SummarizeTransactions(ctx, f)
}

func (s *TransactionService) filter(ctx context.Context, userID string, scope core.Scope) (storage.TransactionFilter, bool, error) {
	switch scope {
	case "", core.ScopePersonal:
		return storage.TransactionFilter{UserID: userID}, true, nil
	case core.ScopeCouple:
		couple, err := coupleOf(ctx, s.storage.Queries, userID)
		if errors.Is(err, core.ErrNotInCouple) {
			return storage.TransactionFilter{}, false, nil
		}
		if err != nil {
			return storage.TransactionFilter{}, false, err
		}
		return storage.TransactionFilter{CoupleID: couple.ID}, true, nil
	}
	return storage.TransactionFilter{}, false, core.ErrInvalidScope
}

// Update changes a transaction owned by userID. Changes to a split row are
// mirrored on its sibling so that both halves keep sharing category, date,
// payer and full amount.
func (s *TransactionService) Update(ctx context.Context, userID, id string, req UpdateTransactionRequest) (core.Transaction, error) {
	var updated core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		t, err := ownedTransaction(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if req.Category != nil {
			if err := s.categories.Validate(t.Kind, *req.Category); err != nil {
				return err
			}
			t.Category = *req.Category
		}
		if req.Date != nil {
			t.Date = *req.Date
		}
		if req.Description != nil {
			t.Description = *req.Description
		}

		if !t.IsSplit {
			if req.Amount != nil {
				t.Amount = *req.Amount
			}
			if err := t.Validate(); err != nil {
				return err
			}
			updated = t
			return q.UpdateTransaction(ctx, &updated)
		}

		sib, hasSibling, err := s.splits.Sibling(ctx, q, t)
		if err != nil {
			return err
		}
		if req.PaidByUserID != nil {
			couple, err := q.GetCouple(ctx, t.CoupleID)
			if err != nil {
				return err
			}
			if !couple.Has(*req.PaidByUserID) {
				return fmt.Errorf("payer %s is not a couple member: %w", *req.PaidByUserID, core.ErrInvalidOperation)
			}
			t.PaidByUserID = *req.PaidByUserID
		}
		if req.Amount != nil {
			if err := req.Amount.Validate(); err != nil {
				return err
			}
			if req.Amount.Cents < core.MinSplitCents {
				return fmt.Errorf("amount too small to split: %w", core.ErrInvalidAmount)
			}
			t.OriginalAmount = *req.Amount
		}
		original := t.Original()
		mine, theirs := core.SplitShares(original)
		if hasSibling {
			creator, err := s.splits.creatorRow(ctx, q, t, sib)
			if err != nil {
				return err
			}
			if creator != t.ID {
				mine, theirs = theirs, mine
			}
		}
		t.OriginalAmount = original
		t.Amount = mine
		if err := t.Validate(); err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, &t); err != nil {
			return err
		}
		updated = t

		if !hasSibling {
			return nil
		}
		sib.Category, sib.Date, sib.PaidByUserID = t.Category, t.Date, t.PaidByUserID
		sib.OriginalAmount, sib.Amount = original, theirs
		if sib.SplitGroupID == "" {
			sib.SplitGroupID = t.SplitGroupID
		}
		return q.UpdateTransaction(ctx, &sib)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "user_id", userID)
	return updated, nil
}

// Delete removes a transaction owned by userID together with its split
// sibling.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	var deleted []core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		t, err := ownedTransaction(ctx, q, userID, id)
		if err != nil {
			return err
		}
		sib, ok, err := s.splits.Sibling(ctx, q, t)
		if err != nil {
			return err
		}
		if ok {
			if err := q.DeleteTransaction(ctx, sib.ID); err != nil {
				return err
			}
			deleted = append(deleted, sib)
		}
		if err := q.DeleteTransaction(ctx, t.ID); err != nil {
			return err
		}
		deleted = append(deleted, t)
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "user_id", userID, "rows", len(deleted))
	s.deleted(ctx, userID, deleted...)
	return nil
}

func ownedTransaction(ctx context.Context, q *storage.Queries, userID, id string) (core.Transaction, error) {
	t, err := q.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

// coupleOf returns the couple of userID or core.ErrNotInCouple.
func coupleOf(ctx context.Context, q *storage.Queries, userID string) (core.Couple, error) {
	c, err := q.GetCoupleByUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Couple{}, core.ErrNotInCouple
	}
	return c, err
}

func clampPage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}
