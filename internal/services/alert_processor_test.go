package services

import (
	"context"
	"strings"
	"testing"

	"kakeibo/internal/core"
)

func TestAlertProcessor_BudgetThresholds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.budgets.Create(ctx, env.carol.ID, CreateBudgetRequest{
		Scope: core.ScopePersonal, Type: core.BudgetCategory, Category: "食費",
		Amount: cents(10000), Year: 2025, Month: 3,
	}); err != nil {
		t.Fatalf("Create budget: %v", err)
	}

	steps := []struct {
		amount   int64
		wantType string
	}{
		{5000, ""},
		{3000, core.AlertBudgetWarning},
		{500, ""},
		{2000, core.AlertBudgetExceeded},
		{100, ""},
	}
	for _, step := range steps {
		tx := mustCreate(t, env, env.carol.ID, CreateTransactionRequest{
			Kind: core.Expense, Category: "食費", Amount: cents(step.amount), Date: core.NewDate(2025, 3, 5),
		})
		logs, err := env.alerts.HandleCreated(ctx, env.carol.ID, tx)
		if err != nil {
			t.Fatalf("HandleCreated: %v", err)
		}
		if step.wantType == "" {
			if len(logs) != 0 {
				t.Errorf("after %d: unexpected notifications %+v", step.amount, logs)
			}
			continue
		}
		if len(logs) != 1 || logs[0].Type != step.wantType || logs[0].UserID != env.carol.ID {
			t.Errorf("after %d: notifications = %+v, want one %s", step.amount, logs, step.wantType)
		}
	}

	all, err := env.repo.ListNotificationLogs(ctx, env.carol.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationLogs: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("stored notifications = %d, want 2", len(all))
	}
}

func TestAlertProcessor_CoupleBudgetNotifiesBoth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.budgets.Create(ctx, env.alice.ID, CreateBudgetRequest{
		Scope: core.ScopeCouple, Type: core.BudgetMonthlyTotal, Amount: cents(1000), Year: 2025, Month: 3,
	}); err != nil {
		t.Fatalf("Create budget: %v", err)
	}
	tx := mustCreate(t, env, env.alice.ID, CreateTransactionRequest{
		Kind: core.Expense, Category: "日用品", Amount: cents(1200), Date: core.NewDate(2025, 3, 5), Scope: core.ScopeCouple,
	})
	logs, err := env.alerts.HandleCreated(ctx, env.alice.ID, tx)
	if err != nil {
		t.Fatalf("HandleCreated: %v", err)
	}

	got := map[string][]string{}
	for _, n := range logs {
		got[n.UserID] = append(got[n.UserID], n.Type)
	}
	if len(got[env.alice.ID]) != 1 || got[env.alice.ID][0] != core.AlertBudgetExceeded {
		t.Errorf("alice notifications = %v", got[env.alice.ID])
	}
	if len(got[env.bob.ID]) != 2 {
		t.Errorf("bob notifications = %v, want exceeded and partner expense", got[env.bob.ID])
	}
}

func TestAlertProcessor_PartnerExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustCreate(t, env, env.alice.ID, CreateTransactionRequest{
		Kind: core.Expense, Category: "食費", Amount: cents(1001), Date: core.NewDate(2025, 3, 5), Description: "sushi", IsSplit: true,
	})
	if len(env.events.created) != 2 {
		t.Fatalf("created events = %d, want 2", len(env.events.created))
	}

	var written []core.NotificationLog
	for i, tx := range env.events.created {
		logs, err := env.alerts.HandleCreated(ctx, env.events.actors[i], tx)
		if err != nil {
			t.Fatalf("HandleCreated: %v", err)
		}
		written = append(written, logs...)
	}
	if len(written) != 1 {
		t.Fatalf("notifications = %+v, want one", written)
	}
	n := written[0]
	if n.UserID != env.bob.ID || n.Type != core.AlertPartnerExpense {
		t.Errorf("notification = %+v, want partner expense for bob", n)
	}
	if !strings.Contains(n.Body, "¥10") || !strings.Contains(n.Body, "sushi") {
		t.Errorf("body = %q", n.Body)
	}

	income := mustCreate(t, env, env.alice.ID, CreateTransactionRequest{
		Kind: core.Income, Category: "本業", Amount: cents(1000), Date: core.NewDate(2025, 3, 5),
	})
	if logs, err := env.alerts.HandleCreated(ctx, env.alice.ID, income); err != nil || len(logs) != 0 {
		t.Errorf("income = %v, %v; want no notifications", logs, err)
	}
	personal := mustCreate(t, env, env.alice.ID, CreateTransactionRequest{
		Kind: core.Expense, Category: "食費", Amount: cents(1000), Date: core.NewDate(2025, 3, 5),
	})
	if logs, err := env.alerts.HandleCreated(ctx, env.alice.ID, personal); err != nil || len(logs) != 0 {
		t.Errorf("personal = %v, %v; want no notifications", logs, err)
	}

	stored, err := env.repo.ListNotificationLogs(ctx, env.bob.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationLogs: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("bob stored notifications = %d, want 1", len(stored))
	}
}

func TestPartnerExpenseRecipient(t *testing.T) {
	c := core.Couple{ID: "c1", User1ID: "u1", User2ID: "u2"}
	tests := []struct {
		name  string
		actor string
		tx    core.Transaction
		want  string
	}{
		{"split row of actor", "u1", core.Transaction{UserID: "u1", CoupleID: "c1", IsSplit: true}, ""},
		{"split row of partner", "u1", core.Transaction{UserID: "u2", CoupleID: "c1", IsSplit: true}, "u2"},
		{"couple row", "u2", core.Transaction{UserID: "u2", CoupleID: "c1"}, "u1"},
		{"personal row", "u1", core.Transaction{UserID: "u1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := partnerExpenseRecipient(c, tt.actor, tt.tx); got != tt.want {
				t.Errorf("partnerExpenseRecipient() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := partnerExpenseRecipient(core.Couple{}, "u1", core.Transaction{UserID: "u1", CoupleID: "c1"}); got != "" {
		t.Errorf("dissolved couple = %q, want empty", got)
	}
}

func TestBudgetAlertTitle(t *testing.T) {
	b := core.Budget{ID: "b1", Type: core.BudgetCategory, Category: "食費", Year: 2025, Month: 3}
	if got := budgetAlertTitle(core.AlertBudgetWarning, b); got != "Budget warning: 食費 (2025-03, b1)" {
		t.Errorf("title = %q", got)
	}
	b.Type = core.BudgetMonthlyTotal
	if got := budgetAlertTitle(core.AlertBudgetExceeded, b); got != "Budget exceeded: monthly total (2025-03, b1)" {
		t.Errorf("title = %q", got)
	}
}
