package services

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/core"
)

func TestDashboardService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreate(t, env, env.alice.ID, CreateTransactionRequest{Kind: core.Income, Category: "本業", Amount: cents(300000), Date: core.NewDate(2025, 3, 1)})
	mustCreate(t, env, env.alice.ID, CreateTransactionRequest{Kind: core.Expense, Category: "食費", Amount: cents(1000), Date: core.NewDate(2025, 3, 2)})
	mustCreate(t, env, env.alice.ID, CreateTransactionRequest{Kind: core.Expense, Category: "日用品", Amount: cents(3000), Date: core.NewDate(2025, 1, 20)})
	mustCreate(t, env, env.alice.ID, CreateTransactionRequest{Kind: core.Expense, Category: "食費", Amount: cents(1001), Date: core.NewDate(2025, 3, 5), IsSplit: true})
	mustCreate(t, env, env.bob.ID, CreateTransactionRequest{Kind: core.Income, Category: "本業", Amount: cents(100000), Date: core.NewDate(2025, 2, 1)})
	if _, err := env.assets.Create(ctx, env.alice.ID, core.Asset{Name: "NISA", Type: core.AssetNISA, Amount: cents(50000)}); err != nil {
		t.Fatalf("Create asset: %v", err)
	}
	if _, err := env.assets.Create(ctx, env.bob.ID, core.Asset{Name: "Bond", Type: core.AssetBond, Amount: cents(20000)}); err != nil {
		t.Fatalf("Create asset: %v", err)
	}

	d, err := env.dashboard.Get(ctx, env.alice.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Year != 2025 || d.Month != 3 {
		t.Errorf("period = %d-%d", d.Year, d.Month)
	}
	if d.PersonalSummary.TotalIncome.Cents != 300000 || d.PersonalSummary.TotalExpense.Cents != 1000 {
		t.Errorf("PersonalSummary = %+v", d.PersonalSummary)
	}
	if d.CoupleSummary == nil || d.CoupleSummary.TotalExpense.Cents != 1001 || d.CoupleSummary.Count != 2 {
		t.Errorf("CoupleSummary = %+v", d.CoupleSummary)
	}
	if len(d.ExpenseBreakdown) != 1 || d.ExpenseBreakdown[0].Name != "食費" || d.ExpenseBreakdown[0].Percentage != 100 {
		t.Errorf("ExpenseBreakdown = %+v", d.ExpenseBreakdown)
	}
	if len(d.MonthlyTrends) != 12 || d.MonthlyTrends[0].Summary.TotalExpense.Cents != 3000 {
		t.Errorf("MonthlyTrends = %+v", d.MonthlyTrends)
	}
	if len(d.RecentTransactions) != 3 {
		t.Errorf("RecentTransactions = %d, want 3", len(d.RecentTransactions))
	}

	s := d.Savings
	if !s.HasCouple {
		t.Error("HasCouple = false")
	}
	if s.Personal.Balance.Cents != 300000-1000-3000-501 {
		t.Errorf("personal balance = %d", s.Personal.Balance.Cents)
	}
	if s.PersonalAssets.Cents != 50000 || s.PersonalTotal.Cents != s.Personal.Balance.Cents+50000 {
		t.Errorf("personal savings = %+v", s)
	}
	wantCouple := int64(300000-1000-3000-501) + int64(100000-500)
	if s.Couple.Balance.Cents != wantCouple {
		t.Errorf("couple balance = %d, want %d", s.Couple.Balance.Cents, wantCouple)
	}
	if s.CoupleAssets.Cents != 70000 || s.CoupleTotal.Cents != wantCouple+70000 {
		t.Errorf("couple savings = %+v", s)
	}
}

func TestDashboardService_WithoutCouple(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreate(t, env, env.carol.ID, CreateTransactionRequest{Kind: core.Income, Category: "パート", Amount: cents(80000), Date: core.NewDate(2025, 3, 10)})

	d, err := env.dashboard.Get(ctx, env.carol.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.CoupleSummary != nil || d.Savings.HasCouple || len(d.CoupleBudgets) != 0 {
		t.Errorf("couple sections filled for a single user: %+v", d)
	}
	if d.Savings.PersonalTotal.Cents != 80000 {
		t.Errorf("PersonalTotal = %d", d.Savings.PersonalTotal.Cents)
	}
}

func TestAssetService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.assets.Create(ctx, env.carol.ID, core.Asset{Name: "  Stocks ", Type: core.AssetStock, Amount: cents(120000)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Name != "Stocks" {
		t.Errorf("Name = %q", a.Name)
	}
	if _, err := env.assets.Create(ctx, env.carol.ID, core.Asset{Name: "Gold", Type: "gold", Amount: cents(1)}); !errors.Is(err, core.ErrInvalidAssetType) {
		t.Errorf("unknown type = %v, want ErrInvalidAssetType", err)
	}
	if _, err := env.assets.Create(ctx, env.carol.ID, core.Asset{Name: "Cash", Type: core.AssetOther}); err != nil {
		t.Errorf("zero amount asset: %v", err)
	}
	if _, err := env.assets.Create(ctx, env.carol.ID, core.Asset{Name: "Coin", Type: core.AssetCrypto, Amount: cents(30000)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := env.assets.Update(ctx, env.carol.ID, a.ID, core.Asset{Name: "Stocks", Type: core.AssetStock, Amount: cents(150000)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount.Cents != 150000 {
		t.Errorf("Amount = %d", updated.Amount.Cents)
	}
	if _, err := env.assets.Get(ctx, env.alice.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get by other user = %v, want ErrNotFound", err)
	}

	totals, err := env.assets.Totals(ctx, env.carol.ID)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Total.Cents != 180000 || totals.Count != 3 || totals.ByType[core.AssetStock].Cents != 150000 {
		t.Errorf("Totals = %+v", totals)
	}

	if err := env.assets.Delete(ctx, env.carol.ID, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, err := env.assets.List(ctx, env.carol.ID); err != nil || len(list) != 2 {
		t.Errorf("List after delete = %d, %v", len(list), err)
	}
}
