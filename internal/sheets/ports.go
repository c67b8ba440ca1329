package sheets

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for the ledger mirror, an append-mostly copy of the transaction
// table kept outside the database for people who prefer a spreadsheet.
type (
	LedgerWriter interface {
		// Append writes t unless a row with the same id already exists.
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	LedgerDeleter interface {
		// Delete removes the row of t. Deleting a missing row is not an error.
		Delete(ctx context.Context, t core.Transaction) error
	}

	// LedgerLister returns the mirrored rows of one month.
	LedgerLister interface {
		ListMonth(ctx context.Context, year int, month int) ([]core.Transaction, error)
	}

	LedgerMirror interface {
		LedgerWriter
		LedgerDeleter
		LedgerLister
	}
)
