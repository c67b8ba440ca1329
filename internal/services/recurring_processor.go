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

// UpdateTemplateRequest carries the template fields to change; nil fields
// are kept. ClearDayOfMonth and ClearDayOfWeek unset the schedule days.
type UpdateTemplateRequest struct {
	Category        *string
	Amount          *core.Money
	Description     *string
	Frequency       *core.Frequency
	DayOfMonth      *int
	DayOfWeek       *int
	ClearDayOfMonth bool
	ClearDayOfWeek  bool
	IsSplit         *bool
	IsActive        *bool
}

// RecurringProcessor manages recurring templates and materializes them into
// transactions when they fall due.
type RecurringProcessor struct {
	storage    *storage.SQLiteRepository
	splits     *SplitGenerator
	categories core.Categories
	publisher
	now func() time.Time
}

func NewRecurringProcessor(
	storage *storage.SQLiteRepository,
	splits *SplitGenerator,
	categories core.Categories,
	events EventPublisher,
) *RecurringProcessor {
	return &RecurringProcessor{
		storage:    storage,
		splits:     splits,
		categories: categories,
		publisher:  publisher{events: events},
		now:        time.Now,
	}
}

// Create stores a template for userID and schedules its first occurrence.
func (p *RecurringProcessor) Create(ctx context.Context, userID string, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	rt.ID = ""
	rt.UserID = userID
	rt.LastCreatedAt = time.Time{}
	if err := p.validate(rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.NextDueDate = NextDueDate(rt.Frequency, rt.DayOfMonth, rt.DayOfWeek, today(p.now))

	if err := p.storage.CreateRecurringTemplate(ctx, &rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	slog.InfoContext(ctx, "Recurring template created",
		"template_id", rt.ID,
		"user_id", userID,
		"frequency", rt.Frequency,
		"next_due_date", rt.NextDueDate.String())
	return rt, nil
}

func (p *RecurringProcessor) List(ctx context.Context, userID string) ([]core.RecurringTemplate, error) {
	return p.storage.ListRecurringTemplates(ctx, userID)
}

func (p *RecurringProcessor) Get(ctx context.Context, userID, id string) (core.RecurringTemplate, error) {
	return ownedTemplate(ctx, p.storage.Queries, userID, id)
}

// Update changes a template and recomputes its next due date from today.
func (p *RecurringProcessor) Update(ctx context.Context, userID, id string, req UpdateTemplateRequest) (core.RecurringTemplate, error) {
	rt, err := ownedTemplate(ctx, p.storage.Queries, userID, id)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	if req.Category != nil {
		rt.Category = *req.Category
	}
	if req.Amount != nil {
		rt.Amount = *req.Amount
	}
	if req.Description != nil {
		rt.Description = *req.Description
	}
	if req.Frequency != nil {
		rt.Frequency = *req.Frequency
	}
	if req.DayOfMonth != nil || req.ClearDayOfMonth {
		rt.DayOfMonth = req.DayOfMonth
	}
	if req.DayOfWeek != nil || req.ClearDayOfWeek {
		rt.DayOfWeek = req.DayOfWeek
	}
	if req.IsSplit != nil {
		rt.IsSplit = *req.IsSplit
	}
	if req.IsActive != nil {
		rt.IsActive = *req.IsActive
	}
	if err := p.validate(rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.NextDueDate = NextDueDate(rt.Frequency, rt.DayOfMonth, rt.DayOfWeek, today(p.now))

	if err := p.storage.UpdateRecurringTemplate(ctx, &rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	return rt, nil
}

// Delete removes a template. Transactions it produced are kept.
func (p *RecurringProcessor) Delete(ctx context.Context, userID, id string) error {
	if _, err := ownedTemplate(ctx, p.storage.Queries, userID, id); err != nil {
		return err
	}
	return p.storage.DeleteRecurringTemplate(ctx, id)
}

// Execute materializes a template of userID now, regardless of its due date.
func (p *RecurringProcessor) Execute(ctx context.Context, userID, id string) ([]core.Transaction, error) {
	rt, err := ownedTemplate(ctx, p.storage.Queries, userID, id)
	if err != nil {
		return nil, err
	}
	return p.execute(ctx, rt)
}

// ProcessDue materializes every active template due on or before today.
// A failing template is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) (int, error) {
	day := today(p.now)
	templates, err := p.storage.ListDueTemplates(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("list due templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"due", len(templates),
		"processing_date", day.String())

	processed := 0
	for _, rt := range templates {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if !IsDue(rt, day) {
			continue
		}
		rows, err := p.execute(ctx, rt)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to execute recurring template",
				"template_id", rt.ID,
				"user_id", rt.UserID,
				"error", err)
			continue
		}
		processed++
		slog.InfoContext(ctx, "Created transactions from recurring template",
			"template_id", rt.ID,
			"rows", len(rows),
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Frequency)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(templates))
	return processed, nil
}

// execute writes the rows of one occurrence and advances the schedule in a
// single database transaction.
func (p *RecurringProcessor) execute(ctx context.Context, rt core.RecurringTemplate) ([]core.Transaction, error) {
	day := today(p.now)
	var created []core.Transaction

	err := p.storage.InTx(ctx, func(q *storage.Queries) error {
		var coupleID string
		if rt.IsSplit {
			couple, err := coupleOf(ctx, q, rt.UserID)
			switch {
			case err == nil:
				coupleID = couple.ID
			case !errors.Is(err, core.ErrNotInCouple):
				return err
			}
		}

		if coupleID != "" {
			res, err := p.splits.Create(ctx, q, SplitRequest{
				OwnerID:        rt.UserID,
				CoupleID:       coupleID,
				Kind:           rt.Kind,
				Category:       rt.Category,
				OriginalAmount: rt.Amount,
				Date:           day,
				Description:    rt.Description,
				PayerID:        rt.UserID,
				OwnerMarker:    core.RecurringMarker,
				PartnerMarker:  core.RecurringSplitMarker,
			})
			if err != nil {
				return err
			}
			created = res.Rows()
		} else {
			t := core.Transaction{
				UserID:      rt.UserID,
				Kind:        rt.Kind,
				Category:    rt.Category,
				Amount:      rt.Amount,
				Date:        day,
				Description: core.Annotate(rt.Description, core.RecurringMarker),
			}
			if err := t.Validate(); err != nil {
				return err
			}
			if err := q.InsertTransaction(ctx, &t); err != nil {
				return err
			}
			created = []core.Transaction{t}
		}

		return q.MarkTemplateExecuted(ctx, rt.ID, nextAfterExecution(rt, day))
	})
	if err != nil {
		return nil, err
	}

	p.created(ctx, rt.UserID, created...)
	return created, nil
}

func (p *RecurringProcessor) validate(rt core.RecurringTemplate) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	return p.categories.Validate(rt.Kind, rt.Category)
}

// nextAfterExecution returns the next due date strictly after day, so that
// an occurrence materialized on its due day is not produced twice.
func nextAfterExecution(rt core.RecurringTemplate, day core.Date) core.Date {
	next := NextDueDate(rt.Frequency, rt.DayOfMonth, rt.DayOfWeek, day)
	if next.After(day) {
		return next
	}
	return NextDueDate(rt.Frequency, rt.DayOfMonth, rt.DayOfWeek, day.AddDays(1))
}

func ownedTemplate(ctx context.Context, q *storage.Queries, userID, id string) (core.RecurringTemplate, error) {
	rt, err := q.GetRecurringTemplate(ctx, id)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	if rt.UserID != userID {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	return rt, nil
}
