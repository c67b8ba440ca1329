package http

import (
	"fmt"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/services"
)

// Amounts travel as decimal strings with two fractional digits ("12.30").

type userJSON struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

type sessionJSON struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

type inviteJSON struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type coupleJSON struct {
	ID        string    `json:"id"`
	Partner   userJSON  `json:"partner"`
	CreatedAt time.Time `json:"created_at"`
}

type transactionJSON struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CoupleID       string    `json:"couple_id,omitempty"`
	Kind           core.Kind `json:"kind"`
	Category       string    `json:"category"`
	Amount         string    `json:"amount"`
	Date           core.Date `json:"date"`
	Description    string    `json:"description"`
	IsSplit        bool      `json:"is_split"`
	OriginalAmount string    `json:"original_amount,omitempty"`
	PaidByUserID   string    `json:"paid_by_user_id,omitempty"`
	SplitGroupID   string    `json:"split_group_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:           t.ID,
		UserID:       t.UserID,
		CoupleID:     t.CoupleID,
		Kind:         t.Kind,
		Category:     t.Category,
		Amount:       t.Amount.String(),
		Date:         t.Date,
		Description:  t.Description,
		IsSplit:      t.IsSplit,
		PaidByUserID: t.PaidByUserID,
		SplitGroupID: t.SplitGroupID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.IsSplit {
		out.OriginalAmount = t.Original().String()
	}
	return out
}

func toTransactionsJSON(rows []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(rows))
	for _, t := range rows {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type summaryJSON struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	Balance      string `json:"balance"`
	Count        int    `json:"count"`
}

func toSummaryJSON(s core.TransactionSummary) summaryJSON {
	return summaryJSON{
		TotalIncome:  s.TotalIncome.String(),
		TotalExpense: s.TotalExpense.String(),
		Balance:      s.Balance.String(),
		Count:        s.Count,
	}
}

type settlementJSON struct {
	MyPaid           string `json:"my_paid"`
	PartnerPaid      string `json:"partner_paid"`
	Total            string `json:"total"`
	SettlementAmount string `json:"settlement_amount"`
	IPayPartner      bool   `json:"i_pay_partner"`
	Formatted        string `json:"formatted"`
}

func toSettlementJSON(s core.Settlement, currency string) settlementJSON {
	return settlementJSON{
		MyPaid:           s.MyPaid.String(),
		PartnerPaid:      s.PartnerPaid.String(),
		Total:            s.Total.String(),
		SettlementAmount: s.Amount.String(),
		IPayPartner:      s.IPayPartner,
		Formatted:        s.Amount.Format(currency),
	}
}

type templateJSON struct {
	ID            string         `json:"id"`
	Kind          core.Kind      `json:"kind"`
	Category      string         `json:"category"`
	Amount        string         `json:"amount"`
	Description   string         `json:"description"`
	Frequency     core.Frequency `json:"frequency"`
	DayOfMonth    *int           `json:"day_of_month,omitempty"`
	DayOfWeek     *int           `json:"day_of_week,omitempty"`
	IsSplit       bool           `json:"is_split"`
	IsActive      bool           `json:"is_active"`
	LastCreatedAt *time.Time     `json:"last_created_at,omitempty"`
	NextDueDate   core.Date      `json:"next_due_date"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toTemplateJSON(rt core.RecurringTemplate) templateJSON {
	out := templateJSON{
		ID:          rt.ID,
		Kind:        rt.Kind,
		Category:    rt.Category,
		Amount:      rt.Amount.String(),
		Description: rt.Description,
		Frequency:   rt.Frequency,
		DayOfMonth:  rt.DayOfMonth,
		DayOfWeek:   rt.DayOfWeek,
		IsSplit:     rt.IsSplit,
		IsActive:    rt.IsActive,
		NextDueDate: rt.NextDueDate,
		CreatedAt:   rt.CreatedAt,
		UpdatedAt:   rt.UpdatedAt,
	}
	if !rt.LastCreatedAt.IsZero() {
		last := rt.LastCreatedAt
		out.LastCreatedAt = &last
	}
	return out
}

type budgetJSON struct {
	ID               string          `json:"id"`
	Scope            core.Scope      `json:"scope"`
	Type             core.BudgetType `json:"budget_type"`
	Category         string          `json:"category,omitempty"`
	Amount           string          `json:"amount"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	IsActive         bool            `json:"is_active"`
	Spent            string          `json:"spent"`
	Remaining        string          `json:"remaining"`
	Percentage       float64         `json:"percentage"`
	Exceeded         bool            `json:"exceeded"`
	TransactionCount int             `json:"transaction_count"`
}

func toBudgetJSON(v core.BudgetView) budgetJSON {
	return budgetJSON{
		ID:               v.ID,
		Scope:            v.Scope,
		Type:             v.Type,
		Category:         v.Category,
		Amount:           v.Amount.String(),
		Year:             v.Year,
		Month:            v.Month,
		IsActive:         v.IsActive,
		Spent:            v.Spent.String(),
		Remaining:        v.Remaining.String(),
		Percentage:       v.Percentage,
		Exceeded:         v.Exceeded,
		TransactionCount: v.TransactionCount,
	}
}

func toBudgetsJSON(views []core.BudgetView) []budgetJSON {
	out := make([]budgetJSON, 0, len(views))
	for _, v := range views {
		out = append(out, toBudgetJSON(v))
	}
	return out
}

type assetJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        core.AssetType `json:"asset_type"`
	Amount      string         `json:"amount"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toAssetJSON(a core.Asset) assetJSON {
	return assetJSON{
		ID:          a.ID,
		Name:        a.Name,
		Type:        a.Type,
		Amount:      a.Amount.String(),
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type assetTotalsJSON struct {
	Total  string                    `json:"total"`
	ByType map[core.AssetType]string `json:"by_type"`
	Count  int                       `json:"count"`
}

func toAssetTotalsJSON(t services.AssetTotals) assetTotalsJSON {
	out := assetTotalsJSON{Total: t.Total.String(), ByType: make(map[core.AssetType]string), Count: t.Count}
	for typ, m := range t.ByType {
		out.ByType[typ] = m.String()
	}
	return out
}

type categoryAmountJSON struct {
	Name       string  `json:"name"`
	Amount     string  `json:"amount"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

func toCategoryAmountsJSON(cats []core.CategoryAmount) []categoryAmountJSON {
	out := make([]categoryAmountJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryAmountJSON{
			Name: c.Name, Amount: c.Amount.String(), Percentage: c.Percentage, Count: c.Count,
		})
	}
	return out
}

type monthOverviewJSON struct {
	Year    int         `json:"year"`
	Month   int         `json:"month"`
	Label   string      `json:"label"`
	Summary summaryJSON `json:"summary"`
}

func toMonthsJSON(months []core.MonthOverview) []monthOverviewJSON {
	out := make([]monthOverviewJSON, 0, len(months))
	for _, m := range months {
		out = append(out, monthOverviewJSON{
			Year: m.Year, Month: m.Month, Label: core.MonthLabel(m.Month), Summary: toSummaryJSON(m.Summary),
		})
	}
	return out
}

type categoryAnalysisJSON struct {
	Income     []categoryAmountJSON `json:"income"`
	Expense    []categoryAmountJSON `json:"expense"`
	TopExpense []categoryAmountJSON `json:"top_expense"`
}

func toCategoryAnalysisJSON(a core.CategoryAnalysis) categoryAnalysisJSON {
	return categoryAnalysisJSON{
		Income:     toCategoryAmountsJSON(a.Income),
		Expense:    toCategoryAmountsJSON(a.Expense),
		TopExpense: toCategoryAmountsJSON(a.TopExpense),
	}
}

type yearOverviewJSON struct {
	Year    int                 `json:"year"`
	Summary summaryJSON         `json:"summary"`
	Months  []monthOverviewJSON `json:"months"`
}

func toYearsJSON(years []core.YearOverview) []yearOverviewJSON {
	out := make([]yearOverviewJSON, 0, len(years))
	for _, y := range years {
		out = append(out, yearOverviewJSON{Year: y.Year, Summary: toSummaryJSON(y.Summary), Months: toMonthsJSON(y.Months)})
	}
	return out
}

type dayOverviewJSON struct {
	Date    core.Date   `json:"date"`
	Label   string      `json:"label"`
	Summary summaryJSON `json:"summary"`
}

type reportJSON struct {
	Scope      core.Scope           `json:"scope"`
	From       core.Date            `json:"from"`
	To         core.Date            `json:"to"`
	Summary    summaryJSON          `json:"summary"`
	Categories categoryAnalysisJSON `json:"categories"`
	Days       []dayOverviewJSON    `json:"days,omitempty"`
	Months     []monthOverviewJSON  `json:"months,omitempty"`
	Budgets    []budgetJSON         `json:"budgets,omitempty"`
}

func toReportJSON(r services.Report) reportJSON {
	out := reportJSON{
		Scope:      r.Scope,
		From:       r.From,
		To:         r.To,
		Summary:    toSummaryJSON(r.Summary),
		Categories: toCategoryAnalysisJSON(r.Categories),
	}
	if r.Days != nil {
		out.Days = make([]dayOverviewJSON, 0, len(r.Days))
		for _, d := range r.Days {
			out.Days = append(out.Days, dayOverviewJSON{
				Date: d.Date, Label: fmt.Sprintf("%d/%d", d.Date.Month(), d.Date.Day()), Summary: toSummaryJSON(d.Summary),
			})
		}
	}
	if r.Months != nil {
		out.Months = toMonthsJSON(r.Months)
	}
	if r.Budgets != nil {
		out.Budgets = toBudgetsJSON(r.Budgets)
	}
	return out
}

type savingsJSON struct {
	Personal       summaryJSON  `json:"personal"`
	PersonalAssets string       `json:"personal_assets"`
	PersonalTotal  string       `json:"personal_total"`
	HasCouple      bool         `json:"has_couple"`
	Couple         *summaryJSON `json:"couple,omitempty"`
	CoupleAssets   string       `json:"couple_assets,omitempty"`
	CoupleTotal    string       `json:"couple_total,omitempty"`
}

type dashboardJSON struct {
	Year               int                  `json:"year"`
	Month              int                  `json:"month"`
	PersonalSummary    summaryJSON          `json:"personal_summary"`
	CoupleSummary      *summaryJSON         `json:"couple_summary"`
	PersonalBudgets    []budgetJSON         `json:"personal_budgets"`
	CoupleBudgets      []budgetJSON         `json:"couple_budgets"`
	Savings            savingsJSON          `json:"savings"`
	ExpenseBreakdown   []categoryAmountJSON `json:"expense_breakdown"`
	MonthlyTrends      []monthOverviewJSON  `json:"monthly_trends"`
	RecentTransactions []transactionJSON    `json:"recent_transactions"`
}

func toDashboardJSON(d services.Dashboard) dashboardJSON {
	out := dashboardJSON{
		Year:               d.Year,
		Month:              d.Month,
		PersonalSummary:    toSummaryJSON(d.PersonalSummary),
		PersonalBudgets:    toBudgetsJSON(d.PersonalBudgets),
		CoupleBudgets:      toBudgetsJSON(d.CoupleBudgets),
		ExpenseBreakdown:   toCategoryAmountsJSON(d.ExpenseBreakdown),
		MonthlyTrends:      toMonthsJSON(d.MonthlyTrends),
		RecentTransactions: toTransactionsJSON(d.RecentTransactions),
		Savings: savingsJSON{
			Personal:       toSummaryJSON(d.Savings.Personal),
			PersonalAssets: d.Savings.PersonalAssets.String(),
			PersonalTotal:  d.Savings.PersonalTotal.String(),
			HasCouple:      d.Savings.HasCouple,
		},
	}
	if d.CoupleSummary != nil {
		s := toSummaryJSON(*d.CoupleSummary)
		out.CoupleSummary = &s
	}
	if d.Savings.HasCouple {
		s := toSummaryJSON(d.Savings.Couple)
		out.Savings.Couple = &s
		out.Savings.CoupleAssets = d.Savings.CoupleAssets.String()
		out.Savings.CoupleTotal = d.Savings.CoupleTotal.String()
	}
	return out
}

type notificationJSON struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toNotificationsJSON(logs []core.NotificationLog) []notificationJSON {
	out := make([]notificationJSON, 0, len(logs))
	for _, n := range logs {
		out = append(out, notificationJSON{ID: n.ID, Type: n.Type, Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt})
	}
	return out
}
