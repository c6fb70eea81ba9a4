package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// memStore is an in-memory storage.Store used to exercise the services
// without a database. It enforces the same ownership scoping as the
// real stores.
type memStore struct {
	mu       sync.Mutex
	users    map[core.UserID]core.User
	cats     map[core.UserID][]core.Category
	catSeq   int64
	expenses map[core.ExpenseID]core.Expense
	failWith error // when set, every call fails with this error
}

var _ storage.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[core.UserID]core.User),
		cats:     make(map[core.UserID][]core.Category),
		expenses: make(map[core.ExpenseID]core.Expense),
	}
}

func (m *memStore) Close() error { return nil }

func (m *memStore) CreateUser(_ context.Context, u core.User) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return core.User{}, m.failWith
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return core.User{}, fmt.Errorf("username %q: %w", u.Username, core.ErrConflict)
		}
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return core.User{}, m.failWith
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
}

func (m *memStore) GetUserByID(_ context.Context, id core.UserID) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
}

func (m *memStore) SetCurrency(_ context.Context, id core.UserID, currency string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	u.Currency = currency
	m.users[id] = u
	return nil
}

func (m *memStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cats[c.UserID] {
		if existing.Name == c.Name {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
		}
	}
	m.catSeq++
	c.ID = m.catSeq
	m.cats[c.UserID] = append(m.cats[c.UserID], c)
	return c, nil
}

func (m *memStore) ListCategories(_ context.Context, userID core.UserID) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]core.Category(nil), m.cats[userID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return core.Expense{}, m.failWith
	}
	m.expenses[e.ID] = e
	return e, nil
}

func (m *memStore) GetExpense(_ context.Context, userID core.UserID, id core.ExpenseID) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (m *memStore) UpdateExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[e.ID]
	if !ok || existing.UserID != e.UserID {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	m.expenses[e.ID] = e
	return nil
}

func (m *memStore) DeleteExpense(_ context.Context, userID core.UserID, id core.ExpenseID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(m.expenses, id)
	return nil
}

func (m *memStore) ListExpenses(_ context.Context, userID core.UserID, f core.ExpenseFilter) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To.Time) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.TransactionID != "" && e.TransactionID != f.TransactionID {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(e.Description), q) &&
				!strings.Contains(strings.ToLower(e.TransactionID), q) {
				continue
			}
		}
		if f.ExactCents != nil && e.Amount.Cents != *f.ExactCents {
			continue
		}
		if f.MinCents != nil && e.Amount.Cents < *f.MinCents {
			continue
		}
		if f.MaxCents != nil && e.Amount.Cents > *f.MaxCents {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].Time > out[j].Time
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) SumByDay(_ context.Context, userID core.UserID, from, to core.Date) ([]storage.DailySum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDay := map[string]int64{}
	for _, e := range m.expenses {
		if e.UserID != userID || e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		byDay[e.Date.String()] += e.Amount.Cents
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	sums := make([]storage.DailySum, 0, len(days))
	for _, day := range days {
		d, _ := core.ParseDate(day)
		sums = append(sums, storage.DailySum{Date: d, Cents: byDay[day]})
	}
	return sums, nil
}

func (m *memStore) SumByCategory(_ context.Context, userID core.UserID, from, to core.Date) ([]storage.CategorySum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byCat := map[string]int64{}
	for _, e := range m.expenses {
		if e.UserID != userID || e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		byCat[e.Category] += e.Amount.Cents
	}

	var sums []storage.CategorySum
	for cat, cents := range byCat {
		sums = append(sums, storage.CategorySum{Category: cat, Cents: cents})
	}
	return sums, nil
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
}

func (r *eventRecorder) PublishExpenseEvent(_ context.Context, e *amqp.ExpenseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.events))
	for i, e := range r.events {
		ops[i] = e.Op
	}
	return ops
}
