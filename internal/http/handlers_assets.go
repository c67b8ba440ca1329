package http

import (
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/authn"
)

type assetRequest struct {
	Name        string         `json:"name"`
	Type        core.AssetType `json:"asset_type"`
	Amount      string         `json:"amount"`
	Description string         `json:"description"`
}

// toAsset parses the request. Assets may be worth zero, so "0" is accepted.
func (req assetRequest) toAsset() (core.Asset, error) {
	a := core.Asset{
		Name:        sanitizeInput(req.Name),
		Type:        req.Type,
		Description: sanitizeInput(req.Description),
	}
	if amount := sanitizeInput(req.Amount); amount != "0" && amount != "0.00" {
		m, err := ParseAmount(amount)
		if err != nil {
			return core.Asset{}, err
		}
		a.Amount = m
	}
	return a, nil
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "create_asset", err)
		return
	}
	in, err := req.toAsset()
	if err != nil {
		ServiceError(w, r, "create_asset", err)
		return
	}
	a, err := s.svc.Assets.Create(r.Context(), authn.UserID(r.Context()), in)
	if err != nil {
		ServiceError(w, r, "create_asset", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toAssetJSON(a)).Write(w)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.svc.Assets.List(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "list_assets", err)
		return
	}
	out := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetJSON(a))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleAssetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.Assets.Totals(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "asset_totals", err)
		return
	}
	NewJSONResponse().Body(toAssetTotalsJSON(totals)).Write(w)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Assets.Get(r.Context(), authn.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, "get_asset", err)
		return
	}
	NewJSONResponse().Body(toAssetJSON(a)).Write(w)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "update_asset", err)
		return
	}
	in, err := req.toAsset()
	if err != nil {
		ServiceError(w, r, "update_asset", err)
		return
	}
	a, err := s.svc.Assets.Update(r.Context(), authn.UserID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		ServiceError(w, r, "update_asset", err)
		return
	}
	NewJSONResponse().Body(toAssetJSON(a)).Write(w)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Assets.Delete(r.Context(), authn.UserID(r.Context()), r.PathValue("id")); err != nil {
		ServiceError(w, r, "delete_asset", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
