package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

const recentTransactionCount = 5

// Savings are all-time balances plus asset totals.
type Savings struct {
	Personal       core.TransactionSummary
	PersonalAssets core.Money
	PersonalTotal  core.Money
	HasCouple      bool
	Couple         core.TransactionSummary // both partners' rows
	CoupleAssets   core.Money
	CoupleTotal    core.Money
}

// Dashboard is everything the home screen shows for one user and month.
type Dashboard struct {
	Year               int
	Month              int
	PersonalSummary    core.TransactionSummary
	CoupleSummary      *core.TransactionSummary
	PersonalBudgets    []core.BudgetView
	CoupleBudgets      []core.BudgetView
	Savings            Savings
	ExpenseBreakdown   []core.CategoryAmount
	MonthlyTrends      []core.MonthOverview
	RecentTransactions []core.Transaction
}

// DashboardService assembles the dashboard from independent queries run
// concurrently.
type DashboardService struct {
	storage *storage.SQLiteRepository
	budgets *BudgetService
	now     func() time.Time
}

func NewDashboardService(storage *storage.SQLiteRepository, budgets *BudgetService) *DashboardService {
	return &DashboardService{storage: storage, budgets: budgets, now: time.Now}
}

func (s *DashboardService) Get(ctx context.Context, userID string) (Dashboard, error) {
	now := s.now().UTC()
	d := Dashboard{Year: now.Year(), Month: int(now.Month())}
	from, to := core.MonthRange(d.Year, d.Month)

	couple, err := coupleOf(ctx, s.storage.Queries, userID)
	hasCouple := err == nil
	if err != nil && !errors.Is(err, core.ErrNotInCouple) {
		return Dashboard{}, err
	}
	d.Savings.HasCouple = hasCouple

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.storage.ListTransactions(gctx, storage.TransactionFilter{
			UserID: userID, PersonalOnly: true, From: from, To: to,
		})
		if err != nil {
			return err
		}
		d.PersonalSummary = core.Summarize(rows)
		d.ExpenseBreakdown = core.ExpenseBreakdown(rows)
		return nil
	})

	g.Go(func() error {
		yearFrom, _ := core.MonthRange(d.Year, 1)
		_, yearTo := core.MonthRange(d.Year, 12)
		rows, err := s.storage.ListTransactions(gctx, storage.TransactionFilter{
			UserID: userID, PersonalOnly: true, From: yearFrom, To: yearTo,
		})
		if err != nil {
			return err
		}
		d.MonthlyTrends = core.MonthlyTrends(d.Year, rows)
		return nil
	})

	g.Go(func() error {
		rows, err := s.storage.ListTransactions(gctx, storage.TransactionFilter{
			UserID: userID, PersonalOnly: true, Limit: recentTransactionCount,
		})
		if err != nil {
			return err
		}
		d.RecentTransactions = rows
		return nil
	})

	g.Go(func() error {
		views, err := s.budgets.Current(gctx, userID)
		if err != nil {
			return err
		}
		for _, v := range views {
			if v.Scope == core.ScopeCouple {
				d.CoupleBudgets = append(d.CoupleBudgets, v)
			} else {
				d.PersonalBudgets = append(d.PersonalBudgets, v)
			}
		}
		return nil
	})

	g.Go(func() error {
		summary, assets, err := s.userTotals(gctx, userID)
		if err != nil {
			return err
		}
		d.Savings.Personal = summary
		d.Savings.PersonalAssets = assets
		d.Savings.PersonalTotal = summary.Balance.Add(assets)
		return nil
	})

	if hasCouple {
		g.Go(func() error {
			summary, err := s.storage.SummarizeTransactions(gctx, storage.TransactionFilter{
				CoupleID: couple.ID, From: from, To: to,
			})
			if err != nil {
				return err
			}
			d.CoupleSummary = &summary
			return nil
		})

		g.Go(func() error {
			for _, member := range []string{couple.User1ID, couple.User2ID} {
				summary, assets, err := s.userTotals(gctx, member)
				if err != nil {
					return err
				}
				d.Savings.Couple.TotalIncome = d.Savings.Couple.TotalIncome.Add(summary.TotalIncome)
				d.Savings.Couple.TotalExpense = d.Savings.Couple.TotalExpense.Add(summary.TotalExpense)
				d.Savings.Couple.Count += summary.Count
				d.Savings.CoupleAssets = d.Savings.CoupleAssets.Add(assets)
			}
			d.Savings.Couple.Balance = d.Savings.Couple.TotalIncome.Sub(d.Savings.Couple.TotalExpense)
			d.Savings.CoupleTotal = d.Savings.Couple.Balance.Add(d.Savings.CoupleAssets)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// userTotals returns the all-time summary and asset total of one user.
func (s *DashboardService) userTotals(ctx context.Context, userID string) (core.TransactionSummary, core.Money, error) {
	summary, err := s.storage.SummarizeTransactions(ctx, storage.TransactionFilter{UserID: userID})
	if err != nil {
		return core.TransactionSummary{}, core.Money{}, err
	}
	assets, err := s.storage.ListAssets(ctx, userID)
	if err != nil {
		return core.TransactionSummary{}, core.Money{}, err
	}
	return summary, SumAssets(assets).Total, nil
}
