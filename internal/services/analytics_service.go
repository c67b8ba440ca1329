package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// maxTrendYears bounds the span of a yearly trend query.
const maxTrendYears = 10

// Report is a period summary with its category analysis. Monthly reports
// fill Days and Budgets; yearly reports fill Months.
type Report struct {
	Scope      core.Scope
	From, To   core.Date
	Summary    core.TransactionSummary
	Categories core.CategoryAnalysis
	Days       []core.DayOverview
	Months     []core.MonthOverview
	Budgets    []core.BudgetView // active budgets of the scope, monthly reports only
}

// AnalyticsService computes reports over the rows of one scope. Personal
// scope covers the user's rows outside any couple; couple scope covers both
// partners' couple rows.
type AnalyticsService struct {
	storage *storage.SQLiteRepository
	budgets *BudgetService
}

func NewAnalyticsService(storage *storage.SQLiteRepository, budgets *BudgetService) *AnalyticsService {
	return &AnalyticsService{storage: storage, budgets: budgets}
}

func (s *AnalyticsService) scopeFilter(ctx context.Context, userID string, scope core.Scope) (storage.TransactionFilter, error) {
	switch scope {
	case "", core.ScopePersonal:
		return storage.TransactionFilter{UserID: userID, PersonalOnly: true}, nil
	case core.ScopeCouple:
		couple, err := coupleOf(ctx, s.storage.Queries, userID)
		if err != nil {
			return storage.TransactionFilter{}, err
		}
		return storage.TransactionFilter{CoupleID: couple.ID}, nil
	}
	return storage.TransactionFilter{}, core.ErrInvalidScope
}

func (s *AnalyticsService) rows(ctx context.Context, userID string, scope core.Scope, from, to core.Date) ([]core.Transaction, error) {
	f, err := s.scopeFilter(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	f.From, f.To = from, to
	return s.storage.ListTransactions(ctx, f)
}

// CategoryAnalysis breaks down the rows between from and to inclusive. A
// zero bound leaves that side open.
func (s *AnalyticsService) CategoryAnalysis(ctx context.Context, userID string, scope core.Scope, from, to core.Date) (core.CategoryAnalysis, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return core.CategoryAnalysis{}, core.ErrInvalidDate
	}
	rows, err := s.rows(ctx, userID, scope, from, to)
	if err != nil {
		return core.CategoryAnalysis{}, err
	}
	return core.AnalyzeCategories(rows), nil
}

func (s *AnalyticsService) MonthlyTrends(ctx context.Context, userID string, scope core.Scope, year int) ([]core.MonthOverview, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	from, to := yearRange(year)
	rows, err := s.rows(ctx, userID, scope, from, to)
	if err != nil {
		return nil, err
	}
	return core.MonthlyTrends(year, rows), nil
}

// YearlyTrends returns one overview per year of the inclusive range, which
// may span at most maxTrendYears years.
func (s *AnalyticsService) YearlyTrends(ctx context.Context, userID string, scope core.Scope, startYear, endYear int) ([]core.YearOverview, error) {
	if err := validateYear(startYear); err != nil {
		return nil, err
	}
	if err := validateYear(endYear); err != nil {
		return nil, err
	}
	if endYear < startYear || endYear-startYear >= maxTrendYears {
		return nil, core.ErrInvalidYear
	}
	from, _ := yearRange(startYear)
	_, to := yearRange(endYear)
	rows, err := s.rows(ctx, userID, scope, from, to)
	if err != nil {
		return nil, err
	}
	return core.YearlyTrends(startYear, endYear, rows), nil
}

// MonthlyReport summarizes one month with a daily series and the scope's
// active budgets for that month.
func (s *AnalyticsService) MonthlyReport(ctx context.Context, userID string, scope core.Scope, year, month int) (Report, error) {
	if err := validateYear(year); err != nil {
		return Report{}, err
	}
	if month < 1 || month > 12 {
		return Report{}, core.ErrInvalidMonth
	}
	if scope == "" {
		scope = core.ScopePersonal
	}
	from, to := core.MonthRange(year, month)
	r := Report{Scope: scope, From: from, To: to}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.rows(gctx, userID, scope, from, to)
		if err != nil {
			return err
		}
		r.Summary = core.Summarize(rows)
		r.Categories = core.AnalyzeCategories(rows)
		r.Days = core.DailySeries(rows)
		return nil
	})
	g.Go(func() error {
		views, err := s.budgets.List(gctx, userID, year, month, true)
		if err != nil {
			return err
		}
		for _, v := range views {
			if v.Scope == scope {
				r.Budgets = append(r.Budgets, v)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// YearlyReport summarizes one year with a monthly series.
func (s *AnalyticsService) YearlyReport(ctx context.Context, userID string, scope core.Scope, year int) (Report, error) {
	if err := validateYear(year); err != nil {
		return Report{}, err
	}
	if scope == "" {
		scope = core.ScopePersonal
	}
	from, to := yearRange(year)
	rows, err := s.rows(ctx, userID, scope, from, to)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Scope:      scope,
		From:       from,
		To:         to,
		Summary:    core.Summarize(rows),
		Categories: core.AnalyzeCategories(rows),
		Months:     core.MonthlyTrends(year, rows),
	}, nil
}

func yearRange(year int) (core.Date, core.Date) {
	return core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
}

func validateYear(year int) error {
	if year < 1900 || year > 9999 {
		return core.ErrInvalidYear
	}
	return nil
}
