package http

import (
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/authn"
	"kakeibo/internal/services"
)

type createTemplateRequest struct {
	Kind        core.Kind      `json:"kind"`
	Category    string         `json:"category"`
	Amount      string         `json:"amount"`
	Description string         `json:"description"`
	Frequency   core.Frequency `json:"frequency"`
	DayOfMonth  *int           `json:"day_of_month"`
	DayOfWeek   *int           `json:"day_of_week"`
	IsSplit     bool           `json:"is_split"`
	IsActive    *bool          `json:"is_active"` // true when omitted
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "create_template", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "create_template", err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rt, err := s.svc.Recurring.Create(r.Context(), authn.UserID(r.Context()), core.RecurringTemplate{
		Kind:        req.Kind,
		Category:    sanitizeInput(req.Category),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Frequency:   req.Frequency,
		DayOfMonth:  req.DayOfMonth,
		DayOfWeek:   req.DayOfWeek,
		IsSplit:     req.IsSplit,
		IsActive:    active,
	})
	if err != nil {
		ServiceError(w, r, "create_template", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toTemplateJSON(rt)).Write(w)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.Recurring.List(r.Context(), authn.UserID(r.Context()))
	if err != nil {
		ServiceError(w, r, "list_templates", err)
		return
	}
	out := make([]templateJSON, 0, len(templates))
	for _, rt := range templates {
		out = append(out, toTemplateJSON(rt))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	rt, err := s.svc.Recurring.Get(r.Context(), authn.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, "get_template", err)
		return
	}
	NewJSONResponse().Body(toTemplateJSON(rt)).Write(w)
}

type updateTemplateRequest struct {
	Category        *string         `json:"category"`
	Amount          *string         `json:"amount"`
	Description     *string         `json:"description"`
	Frequency       *core.Frequency `json:"frequency"`
	DayOfMonth      *int            `json:"day_of_month"`
	DayOfWeek       *int            `json:"day_of_week"`
	ClearDayOfMonth bool            `json:"clear_day_of_month"`
	ClearDayOfWeek  bool            `json:"clear_day_of_week"`
	IsSplit         *bool           `json:"is_split"`
	IsActive        *bool           `json:"is_active"`
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "update_template", err)
		return
	}
	amount, err := optionalAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "update_template", err)
		return
	}

	rt, err := s.svc.Recurring.Update(r.Context(), authn.UserID(r.Context()), r.PathValue("id"), services.UpdateTemplateRequest{
		Category:        sanitizePtr(req.Category),
		Amount:          amount,
		Description:     sanitizePtr(req.Description),
		Frequency:       req.Frequency,
		DayOfMonth:      req.DayOfMonth,
		DayOfWeek:       req.DayOfWeek,
		ClearDayOfMonth: req.ClearDayOfMonth,
		ClearDayOfWeek:  req.ClearDayOfWeek,
		IsSplit:         req.IsSplit,
		IsActive:        req.IsActive,
	})
	if err != nil {
		ServiceError(w, r, "update_template", err)
		return
	}
	NewJSONResponse().Body(toTemplateJSON(rt)).Write(w)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Recurring.Delete(r.Context(), authn.UserID(r.Context()), r.PathValue("id")); err != nil {
		ServiceError(w, r, "delete_template", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleExecuteTemplate materializes a template now and returns the rows
// it created.
func (s *Server) handleExecuteTemplate(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Recurring.Execute(r.Context(), authn.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, "execute_template", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionsJSON(rows)).Write(w)
}
