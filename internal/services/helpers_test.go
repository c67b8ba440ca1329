package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []core.Transaction
	deleted []core.Transaction
	actors  []string
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, actorID string, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, t)
	p.actors = append(p.actors, actorID)
	return nil
}

func (p *recordingPublisher) PublishTransactionDeleted(_ context.Context, actorID string, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, t)
	p.actors = append(p.actors, actorID)
	return nil
}

// testEnv wires every service on a fresh database. alice and bob are a
// couple; carol is single.
type testEnv struct {
	repo         *storage.SQLiteRepository
	events       *recordingPublisher
	now          time.Time
	alice        core.User
	bob          core.User
	carol        core.User
	couple       core.Couple
	couples      *CoupleService
	splits       *SplitGenerator
	transactions *TransactionService
	settlement   *SettlementService
	recurring    *RecurringProcessor
	budgets      *BudgetService
	assets       *AssetService
	dashboard    *DashboardService
	analytics    *AnalyticsService
	alerts       *AlertProcessor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	env := &testEnv{
		repo:   repo,
		events: &recordingPublisher{},
		now:    time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	cats := core.DefaultCategories()
	env.couples = NewCoupleService(repo, 24*time.Hour)
	env.couples.now = clock
	env.splits = NewSplitGenerator(cats)
	env.transactions = NewTransactionService(repo, env.splits, cats, env.events)
	env.transactions.now = clock
	env.settlement = NewSettlementService(repo)
	env.recurring = NewRecurringProcessor(repo, env.splits, cats, env.events)
	env.recurring.now = clock
	env.budgets = NewBudgetService(repo, cats)
	env.budgets.now = clock
	env.assets = NewAssetService(repo)
	env.dashboard = NewDashboardService(repo, env.budgets)
	env.dashboard.now = clock
	env.analytics = NewAnalyticsService(repo, env.budgets)
	env.alerts = NewAlertProcessor(repo, env.budgets, "JPY")

	ctx := context.Background()
	env.alice = core.User{Email: "alice@example.com", DisplayName: "Alice", PasswordHash: "x"}
	env.bob = core.User{Email: "bob@example.com", DisplayName: "Bob", PasswordHash: "x"}
	env.carol = core.User{Email: "carol@example.com", DisplayName: "Carol", PasswordHash: "x"}
	for _, u := range []*core.User{&env.alice, &env.bob, &env.carol} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	ic, err := env.couples.CreateInvite(ctx, env.alice.ID)
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	env.couple, err = env.couples.Join(ctx, env.bob.ID, ic.Code)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return env
}

func (env *testEnv) rows(t *testing.T, f storage.TransactionFilter) []core.Transaction {
	t.Helper()
	rows, err := env.repo.ListTransactions(context.Background(), f)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	return rows
}

func cents(n int64) core.Money { return core.Money{Cents: n} }

func ptr[T any](v T) *T { return &v }
