package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
)

// SeedFile is the optional file NewFromFiles reads initial rows from.
const SeedFile = "seed_expenses.csv"

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

var _ ledger.Store = (*Store)(nil)

func New(seed ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...)}
}

// NewFromFiles seeds the store from base/seed_expenses.csv when present.
func NewFromFiles(base string) *Store {
	return New(readRows(filepath.Join(base, SeedFile))...)
}

// EnsureExists is a no-op; the store always exists.
func (s *Store) EnsureExists(context.Context) error {
	return nil
}

// Load returns a copy of the stored rows.
func (s *Store) Load(context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Ledger{Entries: append([]core.Expense(nil), s.items...)}, nil
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func readRows(path string) []core.Expense {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil
	}

	var out []core.Expense
	for i, fields := range records {
		if i == 0 && ledger.IsHeader(fields) {
			continue
		}
		e, _ := ledger.DecodeRow(fields)
		out = append(out, e)
	}
	return out
}
