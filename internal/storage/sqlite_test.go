package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kakeibo/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u := core.User{Email: email, DisplayName: email, PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func createCouple(t *testing.T, repo *SQLiteRepository) (core.User, core.User, core.Couple) {
	t.Helper()
	a := createUser(t, repo, "a@example.com")
	b := createUser(t, repo, "b@example.com")
	c := core.Couple{User1ID: a.ID, User2ID: b.ID}
	if err := repo.CreateCouple(context.Background(), &c); err != nil {
		t.Fatalf("CreateCouple: %v", err)
	}
	return a, b, c
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createUser(t, repo, " Alice@Example.com ")
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}

	got, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got id %s, want %s", got.ID, u.ID)
	}

	dup := core.User{Email: "ALICE@example.com", DisplayName: "x", PasswordHash: "x"}
	if err := repo.CreateUser(ctx, &dup); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate email: got %v, want ErrConflict", err)
	}

	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestCouples(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b, c := createCouple(t, repo)

	for _, id := range []string{a.ID, b.ID} {
		got, err := repo.GetCoupleByUser(ctx, id)
		if err != nil {
			t.Fatalf("GetCoupleByUser(%s): %v", id, err)
		}
		if got.ID != c.ID {
			t.Errorf("GetCoupleByUser(%s) = %s, want %s", id, got.ID, c.ID)
		}
	}

	t.Run("member already paired", func(t *testing.T) {
		other := createUser(t, repo, "c@example.com")
		err := repo.InTx(ctx, func(q *Queries) error {
			return q.CreateCouple(ctx, &core.Couple{User1ID: other.ID, User2ID: a.ID})
		})
		if !errors.Is(err, core.ErrConflict) {
			t.Errorf("got %v, want ErrConflict", err)
		}
		if _, err := repo.GetCoupleByUser(ctx, other.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("rolled back couple still visible: %v", err)
		}
	})

	t.Run("delete unlinks transactions", func(t *testing.T) {
		tx := core.Transaction{
			UserID: a.ID, CoupleID: c.ID, Kind: core.Expense, Category: "食費",
			Amount: core.Money{Cents: 500}, Date: core.NewDate(2025, 1, 10),
		}
		if err := repo.InsertTransaction(ctx, &tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
		if err := repo.DeleteCouple(ctx, c.ID); err != nil {
			t.Fatalf("DeleteCouple: %v", err)
		}
		got, err := repo.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction: %v", err)
		}
		if got.CoupleID != "" {
			t.Errorf("couple_id = %q, want empty", got.CoupleID)
		}
		if _, err := repo.GetCoupleByUser(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetCoupleByUser after delete: %v", err)
		}
	})
}

func TestInviteCodes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@example.com")

	ic := core.InviteCode{Code: "ABCD1234", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.CreateInviteCode(ctx, &ic); err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}
	if err := repo.CreateInviteCode(ctx, &core.InviteCode{Code: "ABCD1234", UserID: u.ID}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("collision: got %v, want ErrConflict", err)
	}

	if err := repo.MarkInviteCodeUsed(ctx, "ABCD1234", "someone"); err != nil {
		t.Fatalf("MarkInviteCodeUsed: %v", err)
	}
	if err := repo.MarkInviteCodeUsed(ctx, "ABCD1234", "someone"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second use: got %v, want ErrNotFound", err)
	}

	got, err := repo.GetInviteCode(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("GetInviteCode: %v", err)
	}
	if !got.Used || got.UsedBy != "someone" {
		t.Errorf("got used=%v used_by=%q", got.Used, got.UsedBy)
	}
}

func TestTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b, c := createCouple(t, repo)

	rows := []core.Transaction{
		{UserID: a.ID, Kind: core.Income, Category: "給与", Amount: core.Money{Cents: 300000}, Date: core.NewDate(2025, 3, 25)},
		{UserID: a.ID, Kind: core.Expense, Category: "食費", Amount: core.Money{Cents: 1200}, Date: core.NewDate(2025, 3, 2)},
		{
			UserID: a.ID, CoupleID: c.ID, Kind: core.Expense, Category: "住居費", Amount: core.Money{Cents: 50001},
			Date: core.NewDate(2025, 3, 1), IsSplit: true, OriginalAmount: core.Money{Cents: 100001},
			PaidByUserID: a.ID, SplitGroupID: "g1",
		},
		{
			UserID: b.ID, CoupleID: c.ID, Kind: core.Expense, Category: "住居費", Amount: core.Money{Cents: 50000},
			Date: core.NewDate(2025, 3, 1), IsSplit: true, OriginalAmount: core.Money{Cents: 100001},
			PaidByUserID: a.ID, SplitGroupID: "g1",
		},
		{UserID: a.ID, Kind: core.Expense, Category: "食費", Amount: core.Money{Cents: 800}, Date: core.NewDate(2025, 4, 1)},
	}
	for i := range rows {
		if err := repo.InsertTransaction(ctx, &rows[i]); err != nil {
			t.Fatalf("InsertTransaction %d: %v", i, err)
		}
	}

	from, to := core.MonthRange(2025, 3)

	tests := []struct {
		name   string
		filter TransactionFilter
		want   int
	}{
		{"user in march", TransactionFilter{UserID: a.ID, From: from, To: to}, 3},
		{"personal only", TransactionFilter{UserID: a.ID, PersonalOnly: true}, 3},
		{"couple", TransactionFilter{CoupleID: c.ID}, 2},
		{"expenses", TransactionFilter{UserID: a.ID, Kind: core.Expense}, 3},
		{"split with payer", TransactionFilter{CoupleID: c.ID, SplitOnly: true, WithPayer: true}, 2},
		{"category", TransactionFilter{UserID: a.ID, Category: "食費"}, 2},
		{"limit", TransactionFilter{UserID: a.ID, Limit: 1}, 1},
		{"offset past end", TransactionFilter{UserID: a.ID, Limit: 10, Offset: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.ListTransactions(ctx, TransactionFilter{UserID: a.ID})
		if err != nil {
			t.Fatalf("ListTransactions: %v", err)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Date.After(got[i-1].Date) {
				t.Errorf("row %d (%s) after row %d (%s)", i, got[i].Date, i-1, got[i-1].Date)
			}
		}
	})

	t.Run("round trip split fields", func(t *testing.T) {
		got, err := repo.GetTransaction(ctx, rows[3].ID)
		if err != nil {
			t.Fatalf("GetTransaction: %v", err)
		}
		if !got.IsSplit || got.OriginalAmount.Cents != 100001 || got.PaidByUserID != a.ID || got.SplitGroupID != "g1" {
			t.Errorf("split fields not preserved: %+v", got)
		}
		if !got.Date.Equal(rows[3].Date.Time) {
			t.Errorf("date = %s, want %s", got.Date, rows[3].Date)
		}
	})

	t.Run("summary", func(t *testing.T) {
		s, err := repo.SummarizeTransactions(ctx, TransactionFilter{UserID: a.ID, From: from, To: to})
		if err != nil {
			t.Fatalf("SummarizeTransactions: %v", err)
		}
		if s.TotalIncome.Cents != 300000 || s.TotalExpense.Cents != 51201 || s.Balance.Cents != 248799 || s.Count != 3 {
			t.Errorf("unexpected summary %+v", s)
		}
	})

	t.Run("sum expenses", func(t *testing.T) {
		spent, n, err := repo.SumExpenses(ctx, TransactionFilter{UserID: a.ID, Category: "食費"})
		if err != nil {
			t.Fatalf("SumExpenses: %v", err)
		}
		if spent.Cents != 2000 || n != 2 {
			t.Errorf("got %d cents over %d rows, want 2000 over 2", spent.Cents, n)
		}
	})

	t.Run("split group", func(t *testing.T) {
		group, err := repo.ListSplitGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ListSplitGroup: %v", err)
		}
		if len(group) != 2 {
			t.Errorf("got %d rows, want 2", len(group))
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		tx := rows[1]
		tx.Amount = core.Money{Cents: 1500}
		tx.Description = "lunch"
		if err := repo.UpdateTransaction(ctx, &tx); err != nil {
			t.Fatalf("UpdateTransaction: %v", err)
		}
		got, _ := repo.GetTransaction(ctx, tx.ID)
		if got.Amount.Cents != 1500 || got.Description != "lunch" {
			t.Errorf("update not applied: %+v", got)
		}
		if err := repo.DeleteTransaction(ctx, tx.ID); err != nil {
			t.Fatalf("DeleteTransaction: %v", err)
		}
		if err := repo.DeleteTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("second delete: got %v, want ErrNotFound", err)
		}
	})
}

func TestFindLegacySibling(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b, c := createCouple(t, repo)

	mine := core.Transaction{
		UserID: a.ID, CoupleID: c.ID, Kind: core.Expense, Category: "食費", Amount: core.Money{Cents: 501},
		Date: core.NewDate(2025, 2, 1), IsSplit: true, OriginalAmount: core.Money{Cents: 1001}, PaidByUserID: a.ID,
	}
	theirs := mine
	theirs.UserID, theirs.Amount = b.ID, core.Money{Cents: 500}
	unrelated := theirs
	unrelated.Category = "日用品"

	for _, tx := range []*core.Transaction{&mine, &theirs, &unrelated} {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	got, err := repo.FindLegacySibling(ctx, mine, b.ID)
	if err != nil {
		t.Fatalf("FindLegacySibling: %v", err)
	}
	if got.ID != theirs.ID {
		t.Errorf("got sibling %s, want %s", got.ID, theirs.ID)
	}

	if _, err := repo.FindLegacySibling(ctx, unrelated, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("no match: got %v, want ErrNotFound", err)
	}
}

func TestRecurringTemplates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@example.com")

	day := 25
	due := core.RecurringTemplate{
		UserID: u.ID, Kind: core.Expense, Category: "住居費", Amount: core.Money{Cents: 80000},
		Frequency: core.Monthly, DayOfMonth: &day, IsActive: true, NextDueDate: core.NewDate(2025, 1, 25),
	}
	later := due
	later.NextDueDate = core.NewDate(2025, 2, 25)
	inactive := due
	inactive.IsActive = false

	for _, rt := range []*core.RecurringTemplate{&due, &later, &inactive} {
		if err := repo.CreateRecurringTemplate(ctx, rt); err != nil {
			t.Fatalf("CreateRecurringTemplate: %v", err)
		}
	}

	got, err := repo.ListDueTemplates(ctx, core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("ListDueTemplates: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("got %d due templates, want only %s", len(got), due.ID)
	}
	if got[0].DayOfMonth == nil || *got[0].DayOfMonth != 25 || got[0].DayOfWeek != nil {
		t.Errorf("day fields not preserved: %+v", got[0])
	}

	if err := repo.MarkTemplateExecuted(ctx, due.ID, core.NewDate(2025, 2, 25)); err != nil {
		t.Fatalf("MarkTemplateExecuted: %v", err)
	}
	after, err := repo.GetRecurringTemplate(ctx, due.ID)
	if err != nil {
		t.Fatalf("GetRecurringTemplate: %v", err)
	}
	if after.NextDueDate.String() != "2025-02-25" || after.LastCreatedAt.IsZero() {
		t.Errorf("execution not recorded: next=%s last=%v", after.NextDueDate, after.LastCreatedAt)
	}

	all, err := repo.ListRecurringTemplates(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListRecurringTemplates: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d templates, want 3", len(all))
	}
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, _, c := createCouple(t, repo)

	personal := core.Budget{
		Scope: core.ScopePersonal, Type: core.BudgetCategory, Category: "食費",
		Amount: core.Money{Cents: 30000}, Year: 2025, Month: 3, IsActive: true, UserID: a.ID,
	}
	if err := repo.CreateBudget(ctx, &personal); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	dup := personal
	dup.ID = ""
	if err := repo.CreateBudget(ctx, &dup); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate active budget: got %v, want ErrConflict", err)
	}

	shared := core.Budget{
		Scope: core.ScopeCouple, Type: core.BudgetMonthlyTotal,
		Amount: core.Money{Cents: 200000}, Year: 2025, Month: 3, IsActive: true, CoupleID: c.ID,
	}
	if err := repo.CreateBudget(ctx, &shared); err != nil {
		t.Fatalf("CreateBudget couple: %v", err)
	}

	mine, err := repo.ListBudgets(ctx, BudgetFilter{UserID: a.ID, Year: 2025, Month: 3, ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != personal.ID {
		t.Errorf("personal budgets = %+v", mine)
	}

	ours, err := repo.ListBudgets(ctx, BudgetFilter{CoupleID: c.ID})
	if err != nil {
		t.Fatalf("ListBudgets couple: %v", err)
	}
	if len(ours) != 1 || ours[0].CoupleID != c.ID || ours[0].UserID != "" {
		t.Errorf("couple budgets = %+v", ours)
	}

	personal.IsActive = false
	if err := repo.UpdateBudget(ctx, &personal); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if err := repo.CreateBudget(ctx, &dup); err != nil {
		t.Errorf("budget after deactivation: %v", err)
	}
}

func TestAssetsAndNotifications(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@example.com")

	a := core.Asset{UserID: u.ID, Name: "NISA", Type: core.AssetNISA, Amount: core.Money{Cents: 1000000}}
	if err := repo.CreateAsset(ctx, &a); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	a.Amount = core.Money{Cents: 1100000}
	if err := repo.UpdateAsset(ctx, &a); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}
	list, err := repo.ListAssets(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(list) != 1 || list[0].Amount.Cents != 1100000 {
		t.Errorf("assets = %+v", list)
	}

	since := time.Now().Add(-time.Minute)
	n := core.NotificationLog{UserID: u.ID, Type: core.AlertBudgetWarning, Title: "食費", Body: "80%"}
	if err := repo.InsertNotificationLog(ctx, &n); err != nil {
		t.Fatalf("InsertNotificationLog: %v", err)
	}
	seen, err := repo.HasNotificationSince(ctx, u.ID, core.AlertBudgetWarning, "食費", since)
	if err != nil {
		t.Fatalf("HasNotificationSince: %v", err)
	}
	if !seen {
		t.Error("expected notification to be found")
	}
	logs, err := repo.ListNotificationLogs(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("got %d logs, want 1", len(logs))
	}
}
