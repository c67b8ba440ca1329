package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const recurringColumns = `id, user_id, kind, category, amount_cents, description, frequency,
	day_of_month, day_of_week, is_split, is_active, last_created_at, next_due_date, created_at, updated_at`

func (q *Queries) CreateRecurringTemplate(ctx context.Context, rt *core.RecurringTemplate) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	now := q.now().UTC()
	rt.CreatedAt, rt.UpdatedAt = now, now

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (`+recurringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.UserID, string(rt.Kind), rt.Category, rt.Amount.Cents, rt.Description, string(rt.Frequency),
		nullInt(rt.DayOfMonth), nullInt(rt.DayOfWeek), boolInt(rt.IsSplit), boolInt(rt.IsActive),
		nullTime(rt.LastCreatedAt), rt.NextDueDate.String(), formatTime(rt.CreatedAt), formatTime(rt.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert recurring template: %w", err)
	}
	return nil
}

func (q *Queries) GetRecurringTemplate(ctx context.Context, id string) (core.RecurringTemplate, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_templates WHERE id = ?`, id)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTemplate{}, notFound(err, "recurring template")
	}
	return rt, nil
}

func (q *Queries) ListRecurringTemplates(ctx context.Context, userID string) ([]core.RecurringTemplate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_templates WHERE user_id = ? ORDER BY next_due_date, created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return collectRecurring(rows)
}

// ListDueTemplates returns the active templates whose next due date is on or
// before today.
func (q *Queries) ListDueTemplates(ctx context.Context, today core.Date) ([]core.RecurringTemplate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_templates
		  WHERE is_active = 1 AND next_due_date <= ?
		  ORDER BY next_due_date, created_at`,
		today.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}
	return collectRecurring(rows)
}

// UpdateRecurringTemplate rewrites the editable fields of rt.
func (q *Queries) UpdateRecurringTemplate(ctx context.Context, rt *core.RecurringTemplate) error {
	rt.UpdatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE recurring_templates
		    SET kind = ?, category = ?, amount_cents = ?, description = ?, frequency = ?,
		        day_of_month = ?, day_of_week = ?, is_split = ?, is_active = ?, next_due_date = ?, updated_at = ?
		  WHERE id = ?`,
		string(rt.Kind), rt.Category, rt.Amount.Cents, rt.Description, string(rt.Frequency),
		nullInt(rt.DayOfMonth), nullInt(rt.DayOfWeek), boolInt(rt.IsSplit), boolInt(rt.IsActive),
		rt.NextDueDate.String(), formatTime(rt.UpdatedAt), rt.ID,
	)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	return rowsAffectedOrNotFound(res, "recurring template")
}

// MarkTemplateExecuted records a generation run and moves the template to
// its next due date.
func (q *Queries) MarkTemplateExecuted(ctx context.Context, id string, next core.Date) error {
	now := formatTime(q.now())
	res, err := q.db.ExecContext(ctx,
		`UPDATE recurring_templates SET last_created_at = ?, next_due_date = ?, updated_at = ? WHERE id = ?`,
		now, next.String(), now, id,
	)
	if err != nil {
		return fmt.Errorf("mark template executed: %w", err)
	}
	return rowsAffectedOrNotFound(res, "recurring template")
}

func (q *Queries) DeleteRecurringTemplate(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring template: %w", err)
	}
	return rowsAffectedOrNotFound(res, "recurring template")
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTemplate, error) {
	defer rows.Close()
	var out []core.RecurringTemplate
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring templates: %w", err)
	}
	return out, nil
}

func scanRecurring(s scanner) (core.RecurringTemplate, error) {
	var (
		rt                  core.RecurringTemplate
		kind, freq, nextDue string
		dom, dow            sql.NullInt64
		isSplit, isActive   int
		lastCreated         sql.NullString
		created, updated    string
	)
	err := s.Scan(&rt.ID, &rt.UserID, &kind, &rt.Category, &rt.Amount.Cents, &rt.Description, &freq,
		&dom, &dow, &isSplit, &isActive, &lastCreated, &nextDue, &created, &updated)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.Kind = core.Kind(kind)
	rt.Frequency = core.Frequency(freq)
	rt.DayOfMonth = intPtr(dom)
	rt.DayOfWeek = intPtr(dow)
	rt.IsSplit = isSplit != 0
	rt.IsActive = isActive != 0

	if rt.LastCreatedAt, err = parseNullTime(lastCreated); err != nil {
		return core.RecurringTemplate{}, err
	}
	if rt.NextDueDate, err = core.ParseDate(nextDue); err != nil {
		return core.RecurringTemplate{}, err
	}
	if rt.CreatedAt, err = parseTime(created); err != nil {
		return core.RecurringTemplate{}, err
	}
	if rt.UpdatedAt, err = parseTime(updated); err != nil {
		return core.RecurringTemplate{}, err
	}
	return rt, nil
}
