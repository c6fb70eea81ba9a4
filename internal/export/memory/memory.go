// Package memory is an in-process Exporter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	"tally/internal/export"
)

type Store struct {
	mu      sync.Mutex
	rows    []core.Expense
	deleted []core.ExpenseID
}

var _ export.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendExpense stores the expense and returns a synthetic row
// reference.
func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// MarkDeleted records the tombstone.
func (s *Store) MarkDeleted(_ context.Context, _ core.UserID, id core.ExpenseID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return fmt.Sprintf("mem:del:%d", len(s.deleted)), nil
}

// Rows returns a copy of the appended expenses.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.rows...)
}

// Deleted returns a copy of the recorded tombstones.
func (s *Store) Deleted() []core.ExpenseID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseID(nil), s.deleted...)
}
