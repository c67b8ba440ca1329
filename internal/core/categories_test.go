package core

import (
	"errors"
	"testing"
)

func TestCategoriesValidate(t *testing.T) {
	c := DefaultCategories()

	tests := []struct {
		kind     Kind
		category string
		want     error
	}{
		{Income, "本業", nil},
		{Expense, "食費", nil},
		{Expense, " 家賃 ", nil},
		{Expense, "本業", ErrInvalidCategory},
		{Income, "食費", ErrInvalidCategory},
		{Expense, "", ErrEmptyCategory},
		{"gift", "食費", ErrInvalidKind},
	}
	for _, tt := range tests {
		err := c.Validate(tt.kind, tt.category)
		if tt.want == nil && err != nil {
			t.Errorf("Validate(%s, %q) = %v, want nil", tt.kind, tt.category, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("Validate(%s, %q) = %v, want %v", tt.kind, tt.category, err, tt.want)
		}
	}
}

func TestDefaultCategoriesAreCopies(t *testing.T) {
	c := DefaultCategories()
	c.Income[0] = "changed"
	c.Expense[0] = "changed"
	if DefaultIncomeCategories[0] == "changed" || DefaultFixedExpenseCategories[0] == "changed" {
		t.Error("DefaultCategories shares backing arrays with the package defaults")
	}
	if len(c.For(Expense)) != len(DefaultFixedExpenseCategories)+len(DefaultVariableExpenseCategories) {
		t.Error("expense set does not include fixed and variable categories")
	}
	if c.For("other") != nil {
		t.Error("unknown kind should have no categories")
	}
}
