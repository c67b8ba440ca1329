package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Errorf("got %s", d)
	}
	for _, in := range []string{"", "2023-02-29", "2024/01/01", "tomorrow"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", in, err)
		}
	}
}

func TestDaysIn(t *testing.T) {
	cases := []struct{ year, month, want int }{
		{2025, 1, 31},
		{2025, 2, 28},
		{2024, 2, 29},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysIn(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
	first, last := MonthRange(2024, 2)
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Errorf("MonthRange = %s..%s", first, last)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:     Expense,
		Date:     NewDate(2025, 1, 1),
		Amount:   Money{Cents: 100},
		Category: "食費",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, maxDescriptionLen+1)
	for i := range long {
		long[i] = 'a'
	}

	bads := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"blank category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"long description", func(tx *Transaction) { tx.Description = string(long) }, ErrDescriptionTooLong},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}
}

func TestTransactionOriginal(t *testing.T) {
	stored := Transaction{Amount: Money{Cents: 501}, OriginalAmount: Money{Cents: 1001}}
	if got := stored.Original(); got.Cents != 1001 {
		t.Errorf("stored original = %d, want 1001", got.Cents)
	}
	legacy := Transaction{Amount: Money{Cents: 501}}
	if got := legacy.Original(); got.Cents != 1002 {
		t.Errorf("reconstructed original = %d, want 1002", got.Cents)
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	day := func(n int) *int { return &n }
	good := RecurringTemplate{
		Kind: Expense, Category: "家賃", Amount: Money{Cents: 80000},
		Frequency: Monthly, DayOfMonth: day(25), IsSplit: true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RecurringTemplate)
		want   error
	}{
		{"frequency", func(rt *RecurringTemplate) { rt.Frequency = "daily" }, ErrInvalidFrequency},
		{"day of month", func(rt *RecurringTemplate) { rt.DayOfMonth = day(32) }, ErrInvalidDay},
		{"day of week", func(rt *RecurringTemplate) { rt.DayOfWeek = day(7) }, ErrInvalidDay},
		{"split income", func(rt *RecurringTemplate) { rt.Kind = Income }, ErrInvalidOperation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt := good
			tc.mutate(&rt)
			if err := rt.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		Scope: ScopePersonal, Type: BudgetCategory, Category: "食費",
		Amount: Money{Cents: 30000}, Year: 2025, Month: 3, UserID: "u1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Budget)
		want   error
	}{
		{"no category", func(b *Budget) { b.Category = "" }, ErrEmptyCategory},
		{"month", func(b *Budget) { b.Month = 13 }, ErrInvalidMonth},
		{"year", func(b *Budget) { b.Year = 1999 }, ErrInvalidYear},
		{"two owners", func(b *Budget) { b.CoupleID = "c1" }, ErrInvalidOwner},
		{"no owner", func(b *Budget) { b.UserID = "" }, ErrInvalidOwner},
		{"couple scope on user", func(b *Budget) { b.Scope = ScopeCouple }, ErrInvalidOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := good
			tc.mutate(&b)
			if err := b.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	total := Budget{Scope: ScopeCouple, Type: BudgetMonthlyTotal, Amount: Money{Cents: 1}, Year: 2025, Month: 1, CoupleID: "c1"}
	if err := total.Validate(); err != nil {
		t.Errorf("monthly total without category: %v", err)
	}
}

func TestAssetValidate(t *testing.T) {
	good := Asset{Name: "つみたてNISA", Type: AssetNISA}
	if err := good.Validate(); err != nil {
		t.Fatalf("zero valued asset should be ok, got %v", err)
	}
	if err := (Asset{Name: " ", Type: AssetNISA}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name: %v", err)
	}
	if err := (Asset{Name: "x", Type: "gold"}).Validate(); !errors.Is(err, ErrInvalidAssetType) {
		t.Errorf("unknown type: %v", err)
	}
	if err := (Asset{Name: "x", Type: AssetStock, Amount: Money{Cents: -1}}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: %v", err)
	}
}

func TestInviteCodeUsable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		ic   InviteCode
		ok   bool
	}{
		{"fresh", InviteCode{ExpiresAt: now.Add(time.Hour)}, true},
		{"used", InviteCode{ExpiresAt: now.Add(time.Hour), Used: true}, false},
		{"expired", InviteCode{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires now", InviteCode{ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ic.Usable(now)
			if tc.ok && err != nil {
				t.Fatalf("expected usable, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrNotFound) {
				t.Fatalf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFindPartner(t *testing.T) {
	c := Couple{ID: "c", User1ID: "alice", User2ID: "bob"}
	cases := []struct {
		user    string
		partner string
		ok      bool
	}{
		{"alice", "bob", true},
		{"bob", "alice", true},
		{"carol", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		partner, ok := FindPartner(c, tc.user)
		if partner != tc.partner || ok != tc.ok {
			t.Errorf("FindPartner(%q) = %q, %v; want %q, %v", tc.user, partner, ok, tc.partner, tc.ok)
		}
	}

	if !c.Has("alice") || c.Has("carol") || c.Has("") {
		t.Error("Has returned unexpected membership")
	}
}
