package google

import (
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

// Ledger sheet columns.
const (
	colDate = iota
	colKind
	colCategory
	colAmount
	colDescription
	colUser
	colCouple
	colID
	numCols
)

var header = []any{"Date", "Kind", "Category", "Amount", "Description", "User", "Couple", "ID"}

func toRow(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		string(t.Kind),
		t.Category,
		t.Amount.String(),
		t.Description,
		t.UserID,
		t.CoupleID,
		t.ID,
	}
}

// parseRow converts one sheet row back into a transaction. Header rows,
// blank rows and rows with an unreadable date or amount are skipped.
func parseRow(values []any) (core.Transaction, bool) {
	cols := toStrings(values)
	if len(cols) < numCols || cols[colID] == "" {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[colDate])
	if err != nil {
		return core.Transaction{}, false
	}
	cents, ok := parseAmountToCents(cols[colAmount])
	if !ok {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:          cols[colID],
		UserID:      cols[colUser],
		CoupleID:    cols[colCouple],
		Kind:        core.Kind(cols[colKind]),
		Category:    cols[colCategory],
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: cols[colDescription],
	}, true
}

// parseLedger returns the rows of the given month.
func parseLedger(values [][]any, year, month int) []core.Transaction {
	var out []core.Transaction
	for _, row := range values {
		t, ok := parseRow(row)
		if !ok || t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		out = append(out, t)
	}
	return out
}

// rowIndex returns the 1-based sheet row holding id, or 0.
func rowIndex(values [][]any, id string) int {
	for i, row := range values {
		if len(row) > colID && strings.TrimSpace(fmt.Sprint(row[colID])) == id {
			return i + 1
		}
	}
	return 0
}

// parseAmountToCents accepts what the Sheets API hands back for a
// USER_ENTERED amount: plain numbers, decimal commas and grouped thousands.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
