package http

import (
	"net/http"
	"strconv"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/authn"
	"kakeibo/internal/services"
)

type createBudgetRequest struct {
	Scope    core.Scope      `json:"scope"`
	Type     core.BudgetType `json:"budget_type"`
	Category string          `json:"category"`
	Amount   string          `json:"amount"`
	Year     int             `json:"year"`
	Month    int             `json:"month"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "create_budget", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "create_budget", err)
		return
	}
	now := s.now()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}

	v, err := s.svc.Budgets.Create(r.Context(), authn.UserID(r.Context()), services.CreateBudgetRequest{
		Scope:    req.Scope,
		Type:     req.Type,
		Category: sanitizeInput(req.Category),
		Amount:   amount,
		Year:     req.Year,
		Month:    req.Month,
	})
	if err != nil {
		ServiceError(w, r, "create_budget", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toBudgetJSON(v)).Write(w)
}

// handleListBudgets lists budgets, filtered by year and month only when
// those parameters are given.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var year, month int
	if query.Has("year") || query.Has("month") {
		params, err := ParseMonthParams(query, s.now())
		if err != nil {
			ServiceError(w, r, "list_budgets", err)
			return
		}
		year, month = params.Year, params.Month
	}
	activeOnly, _ := strconv.ParseBool(strings.TrimSpace(query.Get("active")))

	views, err := s.svc.Budgets.List(r.Context(), authn.UserID(r.Context()), year, month, activeOnly)
	if err != nil {
		ServiceError(w, r, "list_budgets", err)
		return
	}
	NewJSONResponse().Body(toBudgetsJSON(views)).Write(w)
}

func (s *Server) handleCurrentBudgets(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.Budgets.Current(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "current_budgets", err)
		return
	}
	NewJSONResponse().Body(toBudgetsJSON(views)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Budgets.Get(r.Context(), authn.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, "get_budget", err)
		return
	}
	NewJSONResponse().Body(toBudgetJSON(v)).Write(w)
}

type updateBudgetRequest struct {
	Amount   *string `json:"amount"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req updateBudgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "update_budget", err)
		return
	}
	amount, err := optionalAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "update_budget", err)
		return
	}
	v, err := s.svc.Budgets.Update(r.Context(), authn.UserID(r.Context()), r.PathValue("id"), services.UpdateBudgetRequest{
		Amount:   amount,
		Category: sanitizePtr(req.Category),
		IsActive: req.IsActive,
	})
	if err != nil {
		ServiceError(w, r, "update_budget", err)
		return
	}
	NewJSONResponse().Body(toBudgetJSON(v)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.Delete(r.Context(), authn.UserID(r.Context()), r.PathValue("id")); err != nil {
		ServiceError(w, r, "delete_budget", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Get(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "dashboard", err)
		return
	}
	NewJSONResponse().Body(toDashboardJSON(d)).Write(w)
}
