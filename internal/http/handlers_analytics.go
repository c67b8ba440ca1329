package http

import (
	"net/http"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/authn"
)

func scopeQuery(r *http.Request) core.Scope {
	return core.Scope(strings.TrimSpace(r.URL.Query().Get("scope")))
}

func (s *Server) handleCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := ParseDateQuery(query, "start_date")
	if err != nil {
		ServiceError(w, r, "category_analysis", err)
		return
	}
	to, err := ParseDateQuery(query, "end_date")
	if err != nil {
		ServiceError(w, r, "category_analysis", err)
		return
	}
	a, err := s.svc.Analytics.CategoryAnalysis(r.Context(), authn.UserID(r.Context()), scopeQuery(r), from, to)
	if err != nil {
		ServiceError(w, r, "category_analysis", err)
		return
	}
	NewJSONResponse().Body(toCategoryAnalysisJSON(a)).Write(w)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYearQuery(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		ServiceError(w, r, "monthly_trends", err)
		return
	}
	months, err := s.svc.Analytics.MonthlyTrends(r.Context(), authn.UserID(r.Context()), scopeQuery(r), year)
	if err != nil {
		ServiceError(w, r, "monthly_trends", err)
		return
	}
	NewJSONResponse().Body(toMonthsJSON(months)).Write(w)
}

// handleYearlyTrends defaults to the last three years ending with the
// current one.
func (s *Server) handleYearlyTrends(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	end, err := ParseYearQuery(query, "end_year", s.now().Year())
	if err != nil {
		ServiceError(w, r, "yearly_trends", err)
		return
	}
	start, err := ParseYearQuery(query, "start_year", end-2)
	if err != nil {
		ServiceError(w, r, "yearly_trends", err)
		return
	}
	years, err := s.svc.Analytics.YearlyTrends(r.Context(), authn.UserID(r.Context()), scopeQuery(r), start, end)
	if err != nil {
		ServiceError(w, r, "yearly_trends", err)
		return
	}
	NewJSONResponse().Body(toYearsJSON(years)).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		ServiceError(w, r, "monthly_report", err)
		return
	}
	rep, err := s.svc.Analytics.MonthlyReport(r.Context(), authn.UserID(r.Context()), scopeQuery(r), params.Year, params.Month)
	if err != nil {
		ServiceError(w, r, "monthly_report", err)
		return
	}
	NewJSONResponse().Body(toReportJSON(rep)).Write(w)
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYearQuery(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		ServiceError(w, r, "yearly_report", err)
		return
	}
	rep, err := s.svc.Analytics.YearlyReport(r.Context(), authn.UserID(r.Context()), scopeQuery(r), year)
	if err != nil {
		ServiceError(w, r, "yearly_report", err)
		return
	}
	NewJSONResponse().Body(toReportJSON(rep)).Write(w)
}
