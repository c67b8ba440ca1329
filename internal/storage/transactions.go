package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const transactionColumns = `id, user_id, couple_id, kind, category, amount_cents, date, description,
	is_split, original_amount_cents, paid_by_user_id, split_group_id, created_at, updated_at`

// TransactionFilter selects transaction rows. Zero values leave a field
// unconstrained; Limit 0 returns every match.
type TransactionFilter struct {
	UserID       string
	CoupleID     string
	PersonalOnly bool // only rows without a couple
	Kind         core.Kind
	Category     string
	From         core.Date // inclusive
	To           core.Date // inclusive
	SplitOnly    bool
	WithPayer    bool // only rows with paid_by_user_id set
	Limit        int
	Offset       int
}

func (f TransactionFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg ...any) {
		conds = append(conds, cond)
		args = append(args, arg...)
	}
	if f.UserID != "" {
		add("user_id = ?", f.UserID)
	}
	if f.CoupleID != "" {
		add("couple_id = ?", f.CoupleID)
	}
	if f.PersonalOnly {
		add("couple_id IS NULL")
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if !f.From.IsZero() {
		add("date >= ?", f.From.String())
	}
	if !f.To.IsZero() {
		add("date <= ?", f.To.String())
	}
	if f.SplitOnly {
		add("is_split = 1")
	}
	if f.WithPayer {
		add("paid_by_user_id IS NOT NULL AND paid_by_user_id <> ''")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InsertTransaction stores t, filling in its id and timestamps.
func (q *Queries) InsertTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := q.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, nullString(t.CoupleID), string(t.Kind), t.Category, t.Amount.Cents,
		t.Date.String(), t.Description, boolInt(t.IsSplit), nullCents(t.OriginalAmount),
		nullString(t.PaidByUserID), nullString(t.SplitGroupID),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return t, nil
}

// UpdateTransaction rewrites the mutable fields of t.
func (q *Queries) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	t.UpdatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions
		    SET couple_id = ?, kind = ?, category = ?, amount_cents = ?, date = ?, description = ?,
		        is_split = ?, original_amount_cents = ?, paid_by_user_id = ?, split_group_id = ?, updated_at = ?
		  WHERE id = ?`,
		nullString(t.CoupleID), string(t.Kind), t.Category, t.Amount.Cents, t.Date.String(), t.Description,
		boolInt(t.IsSplit), nullCents(t.OriginalAmount), nullString(t.PaidByUserID), nullString(t.SplitGroupID),
		formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return rowsAffectedOrNotFound(res, "transaction")
}

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return rowsAffectedOrNotFound(res, "transaction")
}

// ListTransactions returns matching rows, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := f.where()
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// SummarizeTransactions totals income and expense over the matching rows.
// Limit and Offset are ignored.
func (q *Queries) SummarizeTransactions(ctx context.Context, f TransactionFilter) (core.TransactionSummary, error) {
	where, args := f.where()
	rows, err := q.db.QueryContext(ctx,
		`SELECT kind, COALESCE(SUM(amount_cents), 0), COUNT(*) FROM transactions`+where+` GROUP BY kind`,
		args...,
	)
	if err != nil {
		return core.TransactionSummary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	defer rows.Close()

	var s core.TransactionSummary
	for rows.Next() {
		var (
			kind  string
			cents int64
			count int
		)
		if err := rows.Scan(&kind, &cents, &count); err != nil {
			return core.TransactionSummary{}, fmt.Errorf("scan summary: %w", err)
		}
		switch core.Kind(kind) {
		case core.Income:
			s.TotalIncome = core.Money{Cents: cents}
		case core.Expense:
			s.TotalExpense = core.Money{Cents: cents}
		}
		s.Count += count
	}
	if err := rows.Err(); err != nil {
		return core.TransactionSummary{}, fmt.Errorf("iterate summary: %w", err)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s, nil
}

// SumExpenses returns the total and the number of expense rows matching f.
func (q *Queries) SumExpenses(ctx context.Context, f TransactionFilter) (core.Money, int, error) {
	f.Kind = core.Expense
	where, args := f.where()
	var (
		cents int64
		count int
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM transactions`+where,
		args...,
	).Scan(&cents, &count)
	if err != nil {
		return core.Money{}, 0, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, count, nil
}

// ListSplitGroup returns every row of a split group in insertion order, so
// the creator's row comes first.
func (q *Queries) ListSplitGroup(ctx context.Context, groupID string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE split_group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list split group: %w", err)
	}
	return collectTransactions(rows)
}

// FindLegacySibling looks up the partner half of a split row stored without
// a split group, by matching its shared attributes. The match is ambiguous
// when the couple logged identical split expenses on the same day; the
// oldest candidate wins.
func (q *Queries) FindLegacySibling(ctx context.Context, t core.Transaction, partnerID string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		  WHERE user_id = ? AND couple_id = ? AND date = ? AND category = ?
		    AND is_split = 1 AND split_group_id IS NULL AND id <> ?
		    AND COALESCE(original_amount_cents, 0) = ?
		  ORDER BY created_at LIMIT 1`,
		partnerID, t.CoupleID, t.Date.String(), t.Category, t.ID, t.OriginalAmount.Cents,
	)
	sib, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "split sibling")
	}
	return sib, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                         core.Transaction
		coupleID, paidBy, groupID sql.NullString
		original                  sql.NullInt64
		kind, date                string
		isSplit                   int
		created, updated          string
	)
	err := s.Scan(&t.ID, &t.UserID, &coupleID, &kind, &t.Category, &t.Amount.Cents, &date,
		&t.Description, &isSplit, &original, &paidBy, &groupID, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CoupleID = coupleID.String
	t.Kind = core.Kind(kind)
	t.IsSplit = isSplit != 0
	t.OriginalAmount = core.Money{Cents: original.Int64}
	t.PaidByUserID = paidBy.String
	t.SplitGroupID = groupID.String

	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
