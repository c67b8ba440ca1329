package core

import "github.com/shopspring/decimal"

// Alert thresholds, in percent of the budget.
const (
	BudgetWarningPercent = 80.0

	AlertBudgetWarning  = "budget_warning"
	AlertBudgetExceeded = "budget_exceeded"
	AlertPartnerExpense = "partner_expense"
)

// BudgetView is a budget together with its derived spending figures.
type BudgetView struct {
	Budget
	Spent            Money
	Remaining        Money
	Percentage       float64 // one decimal place
	Exceeded         bool
	TransactionCount int
}

// ProjectBudget derives the spending figures of b from the total spent
// and the number of matching expense rows. Every read path goes through
// this function.
func ProjectBudget(b Budget, spent Money, count int) BudgetView {
	v := BudgetView{
		Budget:           b,
		Spent:            spent,
		Remaining:        b.Amount.Sub(spent),
		Exceeded:         spent.Cents > b.Amount.Cents,
		TransactionCount: count,
	}
	if b.Amount.Cents > 0 {
		pct := spent.Decimal().Div(b.Amount.Decimal()).Mul(decimal.NewFromInt(100)).Round(1)
		v.Percentage = pct.InexactFloat64()
	}
	return v
}

// AlertLevel classifies a projected budget: AlertBudgetExceeded,
// AlertBudgetWarning or "" when spending is below the warning threshold.
func (v BudgetView) AlertLevel() string {
	switch {
	case v.Exceeded:
		return AlertBudgetExceeded
	case v.Percentage >= BudgetWarningPercent:
		return AlertBudgetWarning
	}
	return ""
}

// BudgetMatches reports whether t counts toward b's spending.
func BudgetMatches(b Budget, t Transaction) bool {
	if t.Kind != Expense || t.Date.Year() != b.Year || t.Date.Month() != b.Month {
		return false
	}
	if b.Type == BudgetCategory && t.Category != b.Category {
		return false
	}
	switch b.Scope {
	case ScopePersonal:
		return t.UserID == b.UserID && t.CoupleID == ""
	case ScopeCouple:
		return t.CoupleID == b.CoupleID
	}
	return false
}
