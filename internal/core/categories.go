package core

import (
	"fmt"
	"slices"
	"strings"
)

// Categories is the closed set of category names accepted per kind.
type Categories struct {
	Income  []string
	Expense []string
}

// Default category sets.
var (
	DefaultIncomeCategories          = []string{"本業", "副業", "アルバイト", "パート", "その他"}
	DefaultFixedExpenseCategories    = []string{"家賃", "電気・ガス・水道", "通信費", "サブスク・保険"}
	DefaultVariableExpenseCategories = []string{"食費", "日用品", "交通費", "交際費", "医療費", "被服・美容", "趣味・娯楽"}
)

// DefaultCategories returns the built-in category sets.
func DefaultCategories() Categories {
	return Categories{
		Income:  slices.Clone(DefaultIncomeCategories),
		Expense: slices.Concat(DefaultFixedExpenseCategories, DefaultVariableExpenseCategories),
	}
}

// For returns the categories allowed for kind.
func (c Categories) For(kind Kind) []string {
	switch kind {
	case Income:
		return c.Income
	case Expense:
		return c.Expense
	}
	return nil
}

// Validate checks that category belongs to the set for kind.
func (c Categories) Validate(kind Kind, category string) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}
	if !slices.Contains(c.For(kind), category) {
		return fmt.Errorf("%q is not a valid %s category: %w", category, kind, ErrInvalidCategory)
	}
	return nil
}
