package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const budgetColumns = `id, scope, budget_type, category, amount_cents, year, month, is_active,
	user_id, couple_id, created_at, updated_at`

// BudgetFilter selects budgets of one owner, optionally narrowed to a month.
type BudgetFilter struct {
	UserID     string
	CoupleID   string
	Year       int
	Month      int
	ActiveOnly bool
}

// CreateBudget stores b. An active budget with the same owner, type,
// category and period yields core.ErrConflict.
func (q *Queries) CreateBudget(ctx context.Context, b *core.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := q.now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, string(b.Scope), string(b.Type), b.Category, b.Amount.Cents, b.Year, b.Month, boolInt(b.IsActive),
		nullString(b.UserID), nullString(b.CoupleID), formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("budget already exists for this period: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (q *Queries) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return b, nil
}

func (q *Queries) ListBudgets(ctx context.Context, f BudgetFilter) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE `
	var args []any
	if f.CoupleID != "" {
		query += `couple_id = ?`
		args = append(args, f.CoupleID)
	} else {
		query += `user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Year != 0 {
		query += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		query += ` AND month = ?`
		args = append(args, f.Month)
	}
	if f.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY year DESC, month DESC, budget_type, category`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (q *Queries) UpdateBudget(ctx context.Context, b *core.Budget) error {
	b.UpdatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, amount_cents = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		b.Category, b.Amount.Cents, boolInt(b.IsActive), formatTime(b.UpdatedAt), b.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("budget already exists for this period: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return rowsAffectedOrNotFound(res, "budget")
}

func (q *Queries) DeleteBudget(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return rowsAffectedOrNotFound(res, "budget")
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                core.Budget
		scope, btype     string
		isActive         int
		userID, coupleID sql.NullString
		created, updated string
	)
	err := s.Scan(&b.ID, &scope, &btype, &b.Category, &b.Amount.Cents, &b.Year, &b.Month, &isActive,
		&userID, &coupleID, &created, &updated)
	if err != nil {
		return core.Budget{}, err
	}
	b.Scope = core.Scope(scope)
	b.Type = core.BudgetType(btype)
	b.IsActive = isActive != 0
	b.UserID = userID.String
	b.CoupleID = coupleID.String

	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
