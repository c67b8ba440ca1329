package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/sheets"
)

var _ sheets.LedgerMirror = (*Store)(nil)

// Store is an in-process ledger mirror, used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu    sync.Mutex
	seq   int
	refs  map[string]string
	items []core.Transaction
}

func New() *Store {
	return &Store{refs: map[string]string{}}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[t.ID]; ok {
		return ref, nil
	}
	s.seq++
	ref := fmt.Sprintf("mem:%d", s.seq)
	s.refs[t.ID] = ref
	s.items = append(s.items, t)
	return ref, nil
}

func (s *Store) Delete(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refs[t.ID]; !ok {
		return nil
	}
	delete(s.refs, t.ID)
	s.items = slices.DeleteFunc(s.items, func(v core.Transaction) bool { return v.ID == t.ID })
	return nil
}

// ListMonth returns the rows of the month in insertion order.
func (s *Store) ListMonth(_ context.Context, year int, month int) ([]core.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out, nil
}

// Len returns the number of mirrored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
