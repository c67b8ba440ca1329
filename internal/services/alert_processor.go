package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// AlertProcessor writes notification logs for budgets crossing their
// thresholds and for expenses recorded by a partner.
type AlertProcessor struct {
	storage  *storage.SQLiteRepository
	budgets  *BudgetService
	currency string
}

func NewAlertProcessor(storage *storage.SQLiteRepository, budgets *BudgetService, currency string) *AlertProcessor {
	return &AlertProcessor{storage: storage, budgets: budgets, currency: currency}
}

// HandleCreated evaluates a newly created row and returns the notifications
// it wrote. Each budget alert is logged at most once per recipient.
func (p *AlertProcessor) HandleCreated(ctx context.Context, actorID string, t core.Transaction) ([]core.NotificationLog, error) {
	if t.Kind != core.Expense {
		return nil, nil
	}

	var couple core.Couple
	if t.CoupleID != "" {
		c, err := p.storage.GetCouple(ctx, t.CoupleID)
		switch {
		case err == nil:
			couple = c
		case !errors.Is(err, core.ErrNotFound):
			return nil, fmt.Errorf("load couple: %w", err)
		}
	}

	var written []core.NotificationLog

	views, err := p.affectedBudgets(ctx, t)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		level := v.AlertLevel()
		if level == "" {
			continue
		}
		recipients := []string{v.UserID}
		if v.Scope == core.ScopeCouple {
			if couple.ID == "" {
				continue
			}
			recipients = []string{couple.User1ID, couple.User2ID}
		}
		for _, userID := range recipients {
			n, ok, err := p.logOnce(ctx, core.NotificationLog{
				UserID: userID,
				Type:   level,
				Title:  budgetAlertTitle(level, v.Budget),
				Body:   p.budgetAlertBody(v),
			})
			if err != nil {
				return written, err
			}
			if ok {
				written = append(written, n)
			}
		}
	}

	if recipient := partnerExpenseRecipient(couple, actorID, t); recipient != "" {
		n := core.NotificationLog{
			UserID: recipient,
			Type:   core.AlertPartnerExpense,
			Title:  fmt.Sprintf("Partner expense: %s", t.Category),
			Body:   fmt.Sprintf("%s %s %s", t.Date, t.Original().Format(p.currency), t.Description),
		}
		if err := p.storage.InsertNotificationLog(ctx, &n); err != nil {
			return written, err
		}
		written = append(written, n)
	}

	for _, n := range written {
		slog.InfoContext(ctx, "Notification logged",
			"user_id", n.UserID,
			"type", n.Type,
			"title", n.Title)
	}
	return written, nil
}

// affectedBudgets projects the active budgets that t counts toward.
func (p *AlertProcessor) affectedBudgets(ctx context.Context, t core.Transaction) ([]core.BudgetView, error) {
	filters := []storage.BudgetFilter{{UserID: t.UserID, Year: t.Date.Year(), Month: t.Date.Month(), ActiveOnly: true}}
	if t.CoupleID != "" {
		filters = append(filters, storage.BudgetFilter{CoupleID: t.CoupleID, Year: t.Date.Year(), Month: t.Date.Month(), ActiveOnly: true})
	}

	var matched []core.Budget
	for _, f := range filters {
		budgets, err := p.storage.ListBudgets(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, b := range budgets {
			if core.BudgetMatches(b, t) {
				matched = append(matched, b)
			}
		}
	}
	return p.budgets.projectAll(ctx, p.storage.Queries, matched)
}

// logOnce inserts n unless the recipient already has the same alert.
func (p *AlertProcessor) logOnce(ctx context.Context, n core.NotificationLog) (core.NotificationLog, bool, error) {
	seen, err := p.storage.HasNotificationSince(ctx, n.UserID, n.Type, n.Title, time.Time{})
	if err != nil || seen {
		return core.NotificationLog{}, false, err
	}
	if err := p.storage.InsertNotificationLog(ctx, &n); err != nil {
		return core.NotificationLog{}, false, err
	}
	return n, true, nil
}

func (p *AlertProcessor) budgetAlertBody(v core.BudgetView) string {
	return fmt.Sprintf("%04d-%02d: spent %s of %s (%.1f%%)",
		v.Year, v.Month, v.Spent.Format(p.currency), v.Amount.Format(p.currency), v.Percentage)
}

func budgetAlertTitle(level string, b core.Budget) string {
	name := "monthly total"
	if b.Type == core.BudgetCategory {
		name = b.Category
	}
	prefix := "Budget warning"
	if level == core.AlertBudgetExceeded {
		prefix = "Budget exceeded"
	}
	return fmt.Sprintf("%s: %s (%04d-%02d, %s)", prefix, name, b.Year, b.Month, b.ID)
}

// partnerExpenseRecipient returns who should hear about a couple expense
// recorded by actorID, or "" when nobody should. A split produces one row
// per partner; only the partner's copy triggers the alert.
func partnerExpenseRecipient(c core.Couple, actorID string, t core.Transaction) string {
	if t.CoupleID == "" || c.ID == "" {
		return ""
	}
	if t.IsSplit {
		if t.UserID != actorID {
			return t.UserID
		}
		return ""
	}
	partner, ok := core.FindPartner(c, actorID)
	if !ok {
		return ""
	}
	return partner
}
