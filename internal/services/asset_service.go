package services

import (
	"context"
	"fmt"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// AssetTotals sums the assets of a user.
type AssetTotals struct {
	Total  core.Money
	ByType map[core.AssetType]core.Money
	Count  int
}

// AssetService manages non-liquid assets.
type AssetService struct {
	storage *storage.SQLiteRepository
}

func NewAssetService(storage *storage.SQLiteRepository) *AssetService {
	return &AssetService{storage: storage}
}

func (s *AssetService) Create(ctx context.Context, userID string, a core.Asset) (core.Asset, error) {
	a.ID = ""
	a.UserID = userID
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	if err := s.storage.CreateAsset(ctx, &a); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

func (s *AssetService) List(ctx context.Context, userID string) ([]core.Asset, error) {
	return s.storage.ListAssets(ctx, userID)
}

func (s *AssetService) Get(ctx context.Context, userID, id string) (core.Asset, error) {
	a, err := s.storage.GetAsset(ctx, id)
	if err != nil {
		return core.Asset{}, err
	}
	if a.UserID != userID {
		return core.Asset{}, fmt.Errorf("asset %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

// Update replaces the editable fields of an asset owned by userID.
func (s *AssetService) Update(ctx context.Context, userID, id string, in core.Asset) (core.Asset, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Asset{}, err
	}
	a.Name = strings.TrimSpace(in.Name)
	a.Type = in.Type
	a.Amount = in.Amount
	a.Description = in.Description
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	if err := s.storage.UpdateAsset(ctx, &a); err != nil {
		return core.Asset{}, err
	}
	return a, nil
}

func (s *AssetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.storage.DeleteAsset(ctx, id)
}

// Totals sums the assets of userID overall and per type.
func (s *AssetService) Totals(ctx context.Context, userID string) (AssetTotals, error) {
	assets, err := s.storage.ListAssets(ctx, userID)
	if err != nil {
		return AssetTotals{}, err
	}
	return SumAssets(assets), nil
}

// SumAssets totals assets overall and per type.
func SumAssets(assets []core.Asset) AssetTotals {
	t := AssetTotals{ByType: make(map[core.AssetType]core.Money)}
	for _, a := range assets {
		t.Total = t.Total.Add(a.Amount)
		t.ByType[a.Type] = t.ByType[a.Type].Add(a.Amount)
		t.Count++
	}
	return t
}
