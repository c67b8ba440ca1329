// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring template due dates.
// Each frequency (weekly, monthly, yearly) has its own calculator that
// encapsulates how the next occurrence is found.

package services

import (
	"fmt"
	"time"

	"kakeibo/internal/core"
)

// DueDateCalculator is the strategy interface for computing the next due date
// of a recurring template.
type DueDateCalculator interface {
	// NextDue returns the next occurrence on or after from, following the
	// optional day-of-month (1-31) and day-of-week (0-6, Monday=0) settings.
	NextDue(from core.Date, dayOfMonth, dayOfWeek *int) core.Date
}

// MonthlyCalculator implements DueDateCalculator for monthly templates.
type MonthlyCalculator struct{}

// NextDue returns the target day of this month, or of next month when it
// already passed. The target is clamped to the length of the month.
func (MonthlyCalculator) NextDue(from core.Date, dayOfMonth, _ *int) core.Date {
	target := intOr(dayOfMonth, 1)
	year, month := from.Year(), from.Month()
	if from.Day() > clampDay(year, month, target) {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return core.NewDate(year, month, clampDay(year, month, target))
}

// WeeklyCalculator implements DueDateCalculator for weekly templates.
type WeeklyCalculator struct{}

// NextDue returns the next target weekday strictly after from.
func (WeeklyCalculator) NextDue(from core.Date, _, dayOfWeek *int) core.Date {
	target := intOr(dayOfWeek, 0)
	offset := (target - mondayIndex(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return from.AddDays(offset)
}

// YearlyCalculator implements DueDateCalculator for yearly templates.
type YearlyCalculator struct{}

// NextDue returns the target day of from's month this year, or next year when
// that day is not after from.
func (YearlyCalculator) NextDue(from core.Date, dayOfMonth, _ *int) core.Date {
	target := intOr(dayOfMonth, 1)
	year, month := from.Year(), from.Month()
	candidate := core.NewDate(year, month, clampDay(year, month, target))
	if !candidate.After(from) {
		year++
		candidate = core.NewDate(year, month, clampDay(year, month, target))
	}
	return candidate
}

// dueDateStrategies maps frequencies to their calculators. Read-only after init.
var dueDateStrategies = map[core.Frequency]DueDateCalculator{
	core.Weekly:  WeeklyCalculator{},
	core.Monthly: MonthlyCalculator{},
	core.Yearly:  YearlyCalculator{},
}

// GetDueDateCalculator returns the calculator for a frequency.
// Returns an error if the frequency is not supported.
func GetDueDateCalculator(frequency core.Frequency) (DueDateCalculator, error) {
	calc, ok := dueDateStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return calc, nil
}

// NextDueDate computes the next occurrence for a template schedule.
// An unknown frequency yields from unchanged.
func NextDueDate(frequency core.Frequency, dayOfMonth, dayOfWeek *int, from core.Date) core.Date {
	calc, err := GetDueDateCalculator(frequency)
	if err != nil {
		return from
	}
	return calc.NextDue(from, dayOfMonth, dayOfWeek)
}

// IsDue reports whether an active template should be materialized on today.
func IsDue(t core.RecurringTemplate, today core.Date) bool {
	return t.IsActive && !t.NextDueDate.IsZero() && !t.NextDueDate.After(today)
}

func clampDay(year, month, day int) int {
	if last := core.DaysIn(year, month); day > last {
		return last
	}
	return day
}

// mondayIndex maps time.Weekday (Sunday=0) to a Monday=0 index.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
