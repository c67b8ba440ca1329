package core

import "testing"

func TestSummarize(t *testing.T) {
	rows := []Transaction{
		{Kind: Income, Amount: Money{Cents: 300000}},
		{Kind: Expense, Amount: Money{Cents: 1200}},
		{Kind: Expense, Amount: Money{Cents: 800}},
	}
	s := Summarize(rows)
	if s.TotalIncome.Cents != 300000 || s.TotalExpense.Cents != 2000 || s.Balance.Cents != 298000 || s.Count != 3 {
		t.Errorf("unexpected summary %+v", s)
	}

	if empty := Summarize(nil); empty != (TransactionSummary{}) {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestExpenseBreakdown(t *testing.T) {
	rows := []Transaction{
		{Kind: Expense, Category: "食費", Amount: Money{Cents: 600}},
		{Kind: Expense, Category: "日用品", Amount: Money{Cents: 300}},
		{Kind: Expense, Category: "食費", Amount: Money{Cents: 100}},
		{Kind: Expense, Category: "交通費", Amount: Money{Cents: 300}},
		{Kind: Income, Category: "本業", Amount: Money{Cents: 99999}},
	}
	got := ExpenseBreakdown(rows)

	want := []struct {
		name  string
		cents int64
		pct   float64
		count int
	}{
		{"食費", 700, 53.8, 2},
		{"交通費", 300, 23.1, 1},
		{"日用品", 300, 23.1, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Amount.Cents != w.cents || got[i].Percentage != w.pct || got[i].Count != w.count {
			t.Errorf("row %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestMonthlyTrends(t *testing.T) {
	rows := []Transaction{
		{Kind: Income, Amount: Money{Cents: 1000}, Date: NewDate(2025, 1, 5)},
		{Kind: Expense, Amount: Money{Cents: 400}, Date: NewDate(2025, 1, 20)},
		{Kind: Expense, Amount: Money{Cents: 250}, Date: NewDate(2025, 12, 31)},
		{Kind: Expense, Amount: Money{Cents: 999}, Date: NewDate(2024, 12, 31)},
	}
	got := MonthlyTrends(2025, rows)
	if len(got) != 12 {
		t.Fatalf("got %d months", len(got))
	}
	if jan := got[0].Summary; jan.Balance.Cents != 600 || jan.Count != 2 {
		t.Errorf("january = %+v", jan)
	}
	if dec := got[11].Summary; dec.Balance.Cents != -250 || dec.Count != 1 {
		t.Errorf("december = %+v", dec)
	}
	if got[5].Month != 6 || got[5].Summary.Count != 0 {
		t.Errorf("june = %+v", got[5])
	}
}

func TestAnalyzeCategories(t *testing.T) {
	var rows []Transaction
	for i, name := range []string{"食費", "日用品", "交通費", "住居費", "医療費", "娯楽費", "衣服"} {
		rows = append(rows, Transaction{Kind: Expense, Category: name, Amount: Money{Cents: int64(100 * (i + 1))}})
	}
	rows = append(rows,
		Transaction{Kind: Income, Category: "本業", Amount: Money{Cents: 3000}},
		Transaction{Kind: Income, Category: "副業", Amount: Money{Cents: 1000}},
	)

	a := AnalyzeCategories(rows)
	if len(a.Expense) != 7 {
		t.Fatalf("got %d expense categories, want 7", len(a.Expense))
	}
	if len(a.TopExpense) != TopCategories {
		t.Fatalf("got %d top categories, want %d", len(a.TopExpense), TopCategories)
	}
	if a.TopExpense[0].Name != "衣服" || a.TopExpense[4].Name != "交通費" {
		t.Errorf("top = %+v", a.TopExpense)
	}
	if len(a.Income) != 2 || a.Income[0].Name != "本業" || a.Income[0].Percentage != 75 {
		t.Errorf("income = %+v", a.Income)
	}

	empty := AnalyzeCategories(nil)
	if len(empty.Income) != 0 || len(empty.Expense) != 0 || len(empty.TopExpense) != 0 {
		t.Errorf("empty analysis = %+v", empty)
	}
}

func TestYearlyTrends(t *testing.T) {
	rows := []Transaction{
		{Kind: Income, Amount: Money{Cents: 5000}, Date: NewDate(2023, 6, 1)},
		{Kind: Expense, Amount: Money{Cents: 1200}, Date: NewDate(2024, 2, 10)},
		{Kind: Expense, Amount: Money{Cents: 800}, Date: NewDate(2024, 11, 3)},
		{Kind: Expense, Amount: Money{Cents: 999}, Date: NewDate(2022, 12, 31)},
	}

	tests := []struct {
		name       string
		start, end int
		wantYears  []int
		wantExpCts []int64
	}{
		{"two years", 2023, 2024, []int{2023, 2024}, []int64{0, 2000}},
		{"single year", 2024, 2024, []int{2024}, []int64{2000}},
		{"inverted range", 2024, 2023, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearlyTrends(tt.start, tt.end, rows)
			if len(got) != len(tt.wantYears) {
				t.Fatalf("got %d years, want %d", len(got), len(tt.wantYears))
			}
			for i, y := range got {
				if y.Year != tt.wantYears[i] || y.Summary.TotalExpense.Cents != tt.wantExpCts[i] {
					t.Errorf("year %d = %+v", i, y)
				}
				if len(y.Months) != 12 {
					t.Errorf("year %d has %d months", y.Year, len(y.Months))
				}
			}
		})
	}

	got := YearlyTrends(2024, 2024, rows)
	if got[0].Months[1].Summary.TotalExpense.Cents != 1200 || got[0].Months[10].Summary.TotalExpense.Cents != 800 {
		t.Errorf("monthly data = %+v", got[0].Months)
	}
}

func TestDailySeries(t *testing.T) {
	rows := []Transaction{
		{Kind: Expense, Amount: Money{Cents: 300}, Date: NewDate(2025, 3, 10)},
		{Kind: Income, Amount: Money{Cents: 1000}, Date: NewDate(2025, 3, 2)},
		{Kind: Expense, Amount: Money{Cents: 200}, Date: NewDate(2025, 3, 10)},
	}
	got := DailySeries(rows)
	if len(got) != 2 {
		t.Fatalf("got %d days, want 2", len(got))
	}
	if got[0].Date.String() != "2025-03-02" || got[0].Summary.Balance.Cents != 1000 {
		t.Errorf("day 0 = %+v", got[0])
	}
	if got[1].Date.String() != "2025-03-10" || got[1].Summary.TotalExpense.Cents != 500 || got[1].Summary.Count != 2 {
		t.Errorf("day 1 = %+v", got[1])
	}
	if len(DailySeries(nil)) != 0 {
		t.Error("expected no days for no rows")
	}
}

func TestMonthLabel(t *testing.T) {
	for m, want := range map[int]string{1: "1月", 12: "12月"} {
		if got := MonthLabel(m); got != want {
			t.Errorf("MonthLabel(%d) = %q, want %q", m, got, want)
		}
	}
}
