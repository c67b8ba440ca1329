package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// SplitRequest describes one shared expense to be recorded for both partners.
type SplitRequest struct {
	OwnerID        string
	CoupleID       string
	Kind           core.Kind
	Category       string
	OriginalAmount core.Money
	Date           core.Date
	Description    string
	PayerID        string // defaults to OwnerID
	OwnerMarker    string // appended to the owner's description when set
	PartnerMarker  string // defaults to core.SplitMarker
}

// SplitResult holds the rows written for a split. Partner is nil when the
// partner could not be resolved.
type SplitResult struct {
	Owner   core.Transaction
	Partner *core.Transaction
}

// Rows returns the written rows, owner first.
func (r SplitResult) Rows() []core.Transaction {
	if r.Partner == nil {
		return []core.Transaction{r.Owner}
	}
	return []core.Transaction{r.Owner, *r.Partner}
}

// SplitGenerator turns one shared expense into a pair of sibling rows and
// finds the sibling of an existing split row.
type SplitGenerator struct {
	categories core.Categories
}

func NewSplitGenerator(categories core.Categories) *SplitGenerator {
	return &SplitGenerator{categories: categories}
}

// Validate runs the checks that do not need the database.
func (g *SplitGenerator) Validate(req SplitRequest) error {
	if req.Kind != core.Expense {
		return fmt.Errorf("only expenses can be split: %w", core.ErrInvalidOperation)
	}
	if err := req.OriginalAmount.Validate(); err != nil {
		return err
	}
	if req.OriginalAmount.Cents < core.MinSplitCents {
		return fmt.Errorf("amount too small to split: %w", core.ErrInvalidAmount)
	}
	if err := req.Date.Validate(); err != nil {
		return err
	}
	return g.categories.Validate(core.Expense, req.Category)
}

// Create writes the owner row and, when the partner resolves, the partner
// row through q. The caller owns the surrounding transaction.
func (g *SplitGenerator) Create(ctx context.Context, q *storage.Queries, req SplitRequest) (SplitResult, error) {
	if err := g.Validate(req); err != nil {
		return SplitResult{}, err
	}

	couple, err := q.GetCouple(ctx, req.CoupleID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && !couple.Has(req.OwnerID)) {
		return SplitResult{}, core.ErrNotInCouple
	}
	if err != nil {
		return SplitResult{}, err
	}

	payer := req.PayerID
	if payer == "" {
		payer = req.OwnerID
	}
	if !couple.Has(payer) {
		return SplitResult{}, fmt.Errorf("payer %s is not a couple member: %w", payer, core.ErrInvalidOperation)
	}

	ownerShare, partnerShare := core.SplitShares(req.OriginalAmount)
	groupID := uuid.New().String()

	ownerDesc := req.Description
	if req.OwnerMarker != "" {
		ownerDesc = core.Annotate(req.Description, req.OwnerMarker)
	}
	partnerMarker := req.PartnerMarker
	if partnerMarker == "" {
		partnerMarker = core.SplitMarker
	}

	owner := core.Transaction{
		UserID:         req.OwnerID,
		CoupleID:       couple.ID,
		Kind:           core.Expense,
		Category:       req.Category,
		Amount:         ownerShare,
		Date:           req.Date,
		Description:    ownerDesc,
		IsSplit:        true,
		OriginalAmount: req.OriginalAmount,
		PaidByUserID:   payer,
		SplitGroupID:   groupID,
	}
	if err := owner.Validate(); err != nil {
		return SplitResult{}, err
	}

	partnerID, ok := core.FindPartner(couple, req.OwnerID)
	var partner *core.Transaction
	if ok {
		p := owner
		p.UserID = partnerID
		p.Amount = partnerShare
		p.Description = core.Annotate(req.Description, partnerMarker)
		if err := p.Validate(); err != nil {
			return SplitResult{}, err
		}
		partner = &p
	}

	if err := q.InsertTransaction(ctx, &owner); err != nil {
		return SplitResult{}, err
	}
	if partner == nil {
		slog.WarnContext(ctx, "Partner not resolvable, split recorded for owner only",
			"couple_id", couple.ID, "owner_id", req.OwnerID, "error", core.ErrInconsistentState)
		return SplitResult{Owner: owner}, nil
	}
	if err := q.InsertTransaction(ctx, partner); err != nil {
		return SplitResult{}, err
	}
	return SplitResult{Owner: owner, Partner: partner}, nil
}

// Sibling returns the other half of split row t. ok is false when t is not
// coupled to a sibling; a sibling that should exist but does not is logged.
func (g *SplitGenerator) Sibling(ctx context.Context, q *storage.Queries, t core.Transaction) (sib core.Transaction, ok bool, err error) {
	if !t.IsSplit || t.CoupleID == "" {
		return core.Transaction{}, false, nil
	}

	if t.SplitGroupID != "" {
		rows, err := q.ListSplitGroup(ctx, t.SplitGroupID)
		if err != nil {
			return core.Transaction{}, false, err
		}
		for _, r := range rows {
			if r.ID != t.ID && r.CoupleID == t.CoupleID {
				return r, true, nil
			}
		}
		logMissingSibling(ctx, t)
		return core.Transaction{}, false, nil
	}

	couple, err := q.GetCouple(ctx, t.CoupleID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logMissingSibling(ctx, t)
			return core.Transaction{}, false, nil
		}
		return core.Transaction{}, false, err
	}
	partnerID, found := core.FindPartner(couple, t.UserID)
	if !found {
		logMissingSibling(ctx, t)
		return core.Transaction{}, false, nil
	}
	sib, err = q.FindLegacySibling(ctx, t, partnerID)
	if errors.Is(err, core.ErrNotFound) {
		logMissingSibling(ctx, t)
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, err
	}
	return sib, true, nil
}

// creatorRow returns the id of the row that keeps the rounded-up share of
// the split pair t, sib: the row written first for the split group. Legacy
// pairs without a group fall back to the larger share, then the payer's row.
func (g *SplitGenerator) creatorRow(ctx context.Context, q *storage.Queries, t, sib core.Transaction) (string, error) {
	if t.SplitGroupID != "" && sib.SplitGroupID == t.SplitGroupID {
		rows, err := q.ListSplitGroup(ctx, t.SplitGroupID)
		if err != nil {
			return "", err
		}
		if len(rows) > 0 {
			return rows[0].ID, nil
		}
	}
	switch {
	case t.Amount.Cents > sib.Amount.Cents:
		return t.ID, nil
	case sib.Amount.Cents > t.Amount.Cents:
		return sib.ID, nil
	case sib.UserID == sib.PaidByUserID:
		return sib.ID, nil
	}
	return t.ID, nil
}

func logMissingSibling(ctx context.Context, t core.Transaction) {
	slog.WarnContext(ctx, "Split sibling not found, continuing with single row",
		"transaction_id", t.ID,
		"split_group_id", t.SplitGroupID,
		"couple_id", t.CoupleID,
		"error", core.ErrInconsistentState)
}
