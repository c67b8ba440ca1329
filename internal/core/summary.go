package core

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// TransactionSummary totals a set of transactions.
type TransactionSummary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	Count        int
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name       string
	Amount     Money
	Percentage float64
	Count      int
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year    int
	Month   int // 1-12
	Summary TransactionSummary
}

// Summarize totals income and expense of rows.
func Summarize(rows []Transaction) TransactionSummary {
	var s TransactionSummary
	for _, t := range rows {
		s.add(t)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

func (s *TransactionSummary) add(t Transaction) {
	s.Count++
	switch t.Kind {
	case Income:
		s.TotalIncome = s.TotalIncome.Add(t.Amount)
	case Expense:
		s.TotalExpense = s.TotalExpense.Add(t.Amount)
	}
}

// ExpenseBreakdown groups the expenses of rows by category, largest first.
func ExpenseBreakdown(rows []Transaction) []CategoryAmount {
	return Breakdown(rows, Expense)
}

// Breakdown groups the rows of kind by category, largest first. Percentages
// are shares of the kind's total, rounded to one decimal.
func Breakdown(rows []Transaction, kind Kind) []CategoryAmount {
	byName := map[string]*CategoryAmount{}
	var total Money
	for _, t := range rows {
		if t.Kind != kind {
			continue
		}
		ca, ok := byName[t.Category]
		if !ok {
			ca = &CategoryAmount{Name: t.Category}
			byName[t.Category] = ca
		}
		ca.Amount = ca.Amount.Add(t.Amount)
		ca.Count++
		total = total.Add(t.Amount)
	}

	out := make([]CategoryAmount, 0, len(byName))
	for _, ca := range byName {
		if total.Cents > 0 {
			ca.Percentage = ca.Amount.Decimal().
				Div(total.Decimal()).
				Mul(decimal.NewFromInt(100)).
				Round(1).
				InexactFloat64()
		}
		out = append(out, *ca)
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// TopCategories is how many expense categories AnalyzeCategories ranks.
const TopCategories = 5

// CategoryAnalysis splits a period's rows by kind and category.
type CategoryAnalysis struct {
	Income     []CategoryAmount
	Expense    []CategoryAmount
	TopExpense []CategoryAmount // first TopCategories of Expense
}

func AnalyzeCategories(rows []Transaction) CategoryAnalysis {
	a := CategoryAnalysis{
		Income:  Breakdown(rows, Income),
		Expense: Breakdown(rows, Expense),
	}
	a.TopExpense = a.Expense[:min(len(a.Expense), TopCategories)]
	return a
}

// MonthLabel is the display name of a month, e.g. "3月".
func MonthLabel(month int) string {
	return fmt.Sprintf("%d月", month)
}

// YearOverview totals one year with its months.
type YearOverview struct {
	Year    int
	Summary TransactionSummary
	Months  []MonthOverview
}

// YearlyTrends returns one overview per year from startYear to endYear
// inclusive. Rows outside the range are ignored.
func YearlyTrends(startYear, endYear int, rows []Transaction) []YearOverview {
	if endYear < startYear {
		return nil
	}
	byYear := make(map[int][]Transaction, endYear-startYear+1)
	for _, t := range rows {
		if y := t.Date.Year(); y >= startYear && y <= endYear {
			byYear[y] = append(byYear[y], t)
		}
	}
	out := make([]YearOverview, 0, endYear-startYear+1)
	for y := startYear; y <= endYear; y++ {
		out = append(out, YearOverview{
			Year:    y,
			Summary: Summarize(byYear[y]),
			Months:  MonthlyTrends(y, byYear[y]),
		})
	}
	return out
}

// DayOverview summarizes the rows of one calendar day.
type DayOverview struct {
	Date    Date
	Summary TransactionSummary
}

// DailySeries returns one overview per day that has rows, oldest first.
func DailySeries(rows []Transaction) []DayOverview {
	byDay := map[string][]Transaction{}
	for _, t := range rows {
		key := t.Date.String()
		byDay[key] = append(byDay[key], t)
	}
	out := make([]DayOverview, 0, len(byDay))
	for _, dayRows := range byDay {
		out = append(out, DayOverview{Date: dayRows[0].Date, Summary: Summarize(dayRows)})
	}
	slices.SortFunc(out, func(a, b DayOverview) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

// MonthlyTrends returns one overview per month of year, January first.
// Rows from other years are ignored.
func MonthlyTrends(year int, rows []Transaction) []MonthOverview {
	out := make([]MonthOverview, 12)
	for i := range out {
		out[i] = MonthOverview{Year: year, Month: i + 1}
	}
	for _, t := range rows {
		if t.Date.Year() != year {
			continue
		}
		out[t.Date.Month()-1].Summary.add(t)
	}
	for i := range out {
		s := &out[i].Summary
		s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	}
	return out
}
