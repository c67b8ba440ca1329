package services

import (
	"context"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// SettlementService loads the split expenses of a couple and settles them.
type SettlementService struct {
	storage *storage.SQLiteRepository
}

func NewSettlementService(storage *storage.SQLiteRepository) *SettlementService {
	return &SettlementService{storage: storage}
}

// Settle computes what userID owes or is owed by the partner over the
// split expenses dated within [from, to]. Zero bounds are open.
func (s *SettlementService) Settle(ctx context.Context, userID string, from, to core.Date) (core.Settlement, error) {
	couple, err := coupleOf(ctx, s.storage.Queries, userID)
	if err != nil {
		return core.Settlement{}, err
	}
	rows, err := s.storage.ListTransactions(ctx, storage.TransactionFilter{
		UserID:    userID,
		CoupleID:  couple.ID,
		Kind:      core.Expense,
		SplitOnly: true,
		WithPayer: true,
		From:      from,
		To:        to,
	})
	if err != nil {
		return core.Settlement{}, err
	}
	return core.Settle(userID, rows), nil
}
