package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

func (q *Queries) InsertNotificationLog(ctx context.Context, n *core.NotificationLog) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = q.now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO notification_logs (id, user_id, type, title, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// ListNotificationLogs returns the latest limit entries of userID, newest first.
func (q *Queries) ListNotificationLogs(ctx context.Context, userID string, limit int) ([]core.NotificationLog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, body, created_at FROM notification_logs
		  WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	defer rows.Close()

	var out []core.NotificationLog
	for rows.Next() {
		var (
			n       core.NotificationLog
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &created); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		if n.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification logs: %w", err)
	}
	return out, nil
}

// HasNotificationSince reports whether userID already got a notification of
// the given type and title at or after since.
func (q *Queries) HasNotificationSince(ctx context.Context, userID, typ, title string, since time.Time) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_logs WHERE user_id = ? AND type = ? AND title = ? AND created_at >= ?`,
		userID, typ, title, formatTime(since),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count notification logs: %w", err)
	}
	return n > 0, nil
}
