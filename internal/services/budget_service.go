package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// CreateBudgetRequest is the input of BudgetService.Create.
type CreateBudgetRequest struct {
	Scope    core.Scope
	Type     core.BudgetType
	Category string
	Amount   core.Money
	Year     int
	Month    int
}

// UpdateBudgetRequest carries the budget fields to change; nil fields are kept.
type UpdateBudgetRequest struct {
	Amount   *core.Money
	Category *string // category budgets only
	IsActive *bool
}

// BudgetService manages budgets. Every read returns budgets through
// core.ProjectBudget, so spent, remaining and percentage are never stored.
type BudgetService struct {
	storage    *storage.SQLiteRepository
	categories core.Categories
	now        func() time.Time
}

func NewBudgetService(storage *storage.SQLiteRepository, categories core.Categories) *BudgetService {
	return &BudgetService{storage: storage, categories: categories, now: time.Now}
}

// Create stores an active budget owned by userID or by the user's couple.
func (s *BudgetService) Create(ctx context.Context, userID string, req CreateBudgetRequest) (core.BudgetView, error) {
	b := core.Budget{
		Scope:    req.Scope,
		Type:     req.Type,
		Category: strings.TrimSpace(req.Category),
		Amount:   req.Amount,
		Year:     req.Year,
		Month:    req.Month,
		IsActive: true,
	}
	if err := req.Scope.Validate(); err != nil {
		return core.BudgetView{}, err
	}
	if err := req.Type.Validate(); err != nil {
		return core.BudgetView{}, err
	}
	if b.Type == core.BudgetMonthlyTotal {
		b.Category = ""
	} else if err := s.categories.Validate(core.Expense, b.Category); err != nil {
		return core.BudgetView{}, err
	}

	if b.Scope == core.ScopeCouple {
		couple, err := coupleOf(ctx, s.storage.Queries, userID)
		if err != nil {
			return core.BudgetView{}, err
		}
		b.CoupleID = couple.ID
	} else {
		b.UserID = userID
	}
	if err := b.Validate(); err != nil {
		return core.BudgetView{}, err
	}

	if err := s.storage.CreateBudget(ctx, &b); err != nil {
		return core.BudgetView{}, err
	}
	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"scope", b.Scope,
		"type", b.Type,
		"category", b.Category,
		"period", fmt.Sprintf("%04d-%02d", b.Year, b.Month))
	return s.project(ctx, s.storage.Queries, b)
}

// List returns the personal budgets of userID and the budgets of the user's
// couple, optionally restricted to a month.
func (s *BudgetService) List(ctx context.Context, userID string, year, month int, activeOnly bool) ([]core.BudgetView, error) {
	budgets, err := s.storage.ListBudgets(ctx, storage.BudgetFilter{
		UserID: userID, Year: year, Month: month, ActiveOnly: activeOnly,
	})
	if err != nil {
		return nil, err
	}
	if couple, err := coupleOf(ctx, s.storage.Queries, userID); err == nil {
		shared, err := s.storage.ListBudgets(ctx, storage.BudgetFilter{
			CoupleID: couple.ID, Year: year, Month: month, ActiveOnly: activeOnly,
		})
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, shared...)
	}
	return s.projectAll(ctx, s.storage.Queries, budgets)
}

// Current returns the active budgets of the current month.
func (s *BudgetService) Current(ctx context.Context, userID string) ([]core.BudgetView, error) {
	now := s.now()
	return s.List(ctx, userID, now.Year(), int(now.Month()), true)
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.BudgetView, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.BudgetView{}, err
	}
	return s.project(ctx, s.storage.Queries, b)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, req UpdateBudgetRequest) (core.BudgetView, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.BudgetView{}, err
	}
	if req.Amount != nil {
		b.Amount = *req.Amount
	}
	if req.Category != nil {
		if b.Type != core.BudgetCategory {
			return core.BudgetView{}, fmt.Errorf("monthly total budgets have no category: %w", core.ErrInvalidOperation)
		}
		if err := s.categories.Validate(core.Expense, *req.Category); err != nil {
			return core.BudgetView{}, err
		}
		b.Category = strings.TrimSpace(*req.Category)
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := b.Validate(); err != nil {
		return core.BudgetView{}, err
	}
	if err := s.storage.UpdateBudget(ctx, &b); err != nil {
		return core.BudgetView{}, err
	}
	return s.project(ctx, s.storage.Queries, b)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.storage.DeleteBudget(ctx, id)
}

// owned returns a budget that belongs to userID or to the user's couple.
func (s *BudgetService) owned(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := s.storage.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID == userID {
		return b, nil
	}
	if b.CoupleID != "" {
		if couple, err := coupleOf(ctx, s.storage.Queries, userID); err == nil && couple.ID == b.CoupleID {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
}

func (s *BudgetService) projectAll(ctx context.Context, q *storage.Queries, budgets []core.Budget) ([]core.BudgetView, error) {
	views := make([]core.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		v, err := s.project(ctx, q, b)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *BudgetService) project(ctx context.Context, q *storage.Queries, b core.Budget) (core.BudgetView, error) {
	spent, count, err := q.SumExpenses(ctx, budgetFilter(b))
	if err != nil {
		return core.BudgetView{}, err
	}
	return core.ProjectBudget(b, spent, count), nil
}

// budgetFilter selects the expense rows counted by b; it is the SQL form
// of core.BudgetMatches.
func budgetFilter(b core.Budget) storage.TransactionFilter {
	from, to := core.MonthRange(b.Year, b.Month)
	f := storage.TransactionFilter{Kind: core.Expense, From: from, To: to}
	if b.Type == core.BudgetCategory {
		f.Category = b.Category
	}
	if b.Scope == core.ScopeCouple {
		f.CoupleID = b.CoupleID
	} else {
		f.UserID = b.UserID
		f.PersonalOnly = true
	}
	return f
}
