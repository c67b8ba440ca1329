package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const userColumns = `id, email, display_name, password_hash, created_at`

// CreateUser inserts u, generating its id and creation time when unset.
// A duplicate email yields core.ErrConflict.
func (q *Queries) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = q.now().UTC()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s already registered: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := s.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &created); err != nil {
		return core.User{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}
