package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const coupleColumns = `c.id, c.user1_id, c.user2_id, c.created_at`

// CreateCouple pairs two users. Either user already belonging to a couple
// yields core.ErrConflict.
func (q *Queries) CreateCouple(ctx context.Context, c *core.Couple) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = q.now().UTC()
	}

	if _, err := q.db.ExecContext(ctx,
		`INSERT INTO couples (id, user1_id, user2_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.User1ID, c.User2ID, formatTime(c.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert couple: %w", err)
	}

	for _, member := range []string{c.User1ID, c.User2ID} {
		_, err := q.db.ExecContext(ctx,
			`INSERT INTO couple_members (user_id, couple_id) VALUES (?, ?)`,
			member, c.ID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already in a couple: %w", member, core.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert couple member: %w", err)
		}
	}
	return nil
}

// GetCoupleByUser returns the couple userID belongs to.
func (q *Queries) GetCoupleByUser(ctx context.Context, userID string) (core.Couple, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+coupleColumns+`
		   FROM couples c
		   JOIN couple_members m ON m.couple_id = c.id
		  WHERE m.user_id = ?`,
		userID,
	)
	c, err := scanCouple(row)
	if err != nil {
		return core.Couple{}, notFound(err, "couple")
	}
	return c, nil
}

func (q *Queries) GetCouple(ctx context.Context, id string) (core.Couple, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+coupleColumns+` FROM couples c WHERE c.id = ?`, id)
	c, err := scanCouple(row)
	if err != nil {
		return core.Couple{}, notFound(err, "couple")
	}
	return c, nil
}

// DeleteCouple removes the couple, its couple budgets and the couple link
// of its transactions.
func (q *Queries) DeleteCouple(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET couple_id = NULL, updated_at = ? WHERE couple_id = ?`,
		formatTime(q.now()), id,
	); err != nil {
		return fmt.Errorf("unlink couple transactions: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE couple_id = ?`, id); err != nil {
		return fmt.Errorf("delete couple budgets: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM couple_members WHERE couple_id = ?`, id); err != nil {
		return fmt.Errorf("delete couple members: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM couples WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete couple: %w", err)
	}
	return rowsAffectedOrNotFound(res, "couple")
}

func scanCouple(s scanner) (core.Couple, error) {
	var (
		c       core.Couple
		created string
	)
	if err := s.Scan(&c.ID, &c.User1ID, &c.User2ID, &created); err != nil {
		return core.Couple{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return core.Couple{}, err
	}
	c.CreatedAt = t
	return c, nil
}

// CreateInviteCode stores a freshly generated code. A code collision yields
// core.ErrConflict so the caller can retry with another code.
func (q *Queries) CreateInviteCode(ctx context.Context, ic *core.InviteCode) error {
	if ic.CreatedAt.IsZero() {
		ic.CreatedAt = q.now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO invite_codes (code, user_id, expires_at, used, created_at) VALUES (?, ?, ?, 0, ?)`,
		ic.Code, ic.UserID, formatTime(ic.ExpiresAt), formatTime(ic.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("invite code collision: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert invite code: %w", err)
	}
	return nil
}

func (q *Queries) GetInviteCode(ctx context.Context, code string) (core.InviteCode, error) {
	var (
		ic               core.InviteCode
		expires, created string
		used             int
	)
	row := q.db.QueryRowContext(ctx,
		`SELECT code, user_id, expires_at, used, COALESCE(used_by, ''), created_at FROM invite_codes WHERE code = ?`,
		code,
	)
	if err := row.Scan(&ic.Code, &ic.UserID, &expires, &used, &ic.UsedBy, &created); err != nil {
		return core.InviteCode{}, notFound(err, "invite code")
	}
	ic.Used = used != 0

	var err error
	if ic.ExpiresAt, err = parseTime(expires); err != nil {
		return core.InviteCode{}, err
	}
	if ic.CreatedAt, err = parseTime(created); err != nil {
		return core.InviteCode{}, err
	}
	return ic, nil
}

// MarkInviteCodeUsed consumes an unused code. A code that was consumed
// concurrently yields core.ErrNotFound.
func (q *Queries) MarkInviteCodeUsed(ctx context.Context, code, usedBy string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE invite_codes SET used = 1, used_by = ? WHERE code = ? AND used = 0`,
		usedBy, code,
	)
	if err != nil {
		return fmt.Errorf("mark invite code used: %w", err)
	}
	return rowsAffectedOrNotFound(res, "invite code")
}
