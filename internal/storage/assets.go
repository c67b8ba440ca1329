package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

const assetColumns = `id, user_id, name, asset_type, amount_cents, description, created_at, updated_at`

func (q *Queries) CreateAsset(ctx context.Context, a *core.Asset) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := q.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Amount.Cents, a.Description,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (q *Queries) GetAsset(ctx context.Context, id string) (core.Asset, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err != nil {
		return core.Asset{}, notFound(err, "asset")
	}
	return a, nil
}

func (q *Queries) ListAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE user_id = ? ORDER BY asset_type, name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

func (q *Queries) UpdateAsset(ctx context.Context, a *core.Asset) error {
	a.UpdatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`UPDATE assets SET name = ?, asset_type = ?, amount_cents = ?, description = ?, updated_at = ? WHERE id = ?`,
		a.Name, string(a.Type), a.Amount.Cents, a.Description, formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return rowsAffectedOrNotFound(res, "asset")
}

func (q *Queries) DeleteAsset(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return rowsAffectedOrNotFound(res, "asset")
}

func scanAsset(s scanner) (core.Asset, error) {
	var (
		a                core.Asset
		atype            string
		created, updated string
	)
	err := s.Scan(&a.ID, &a.UserID, &a.Name, &atype, &a.Amount.Cents, &a.Description, &created, &updated)
	if err != nil {
		return core.Asset{}, err
	}
	a.Type = core.AssetType(atype)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return core.Asset{}, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}
