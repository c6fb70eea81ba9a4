// Package storage defines the persistence ports the services layer
// depends on. Concrete stores live in the sqlite and postgres
// subpackages; both map driver failures onto the core error taxonomy
// (core.ErrNotFound, core.ErrConflict, core.ErrUnavailable).
package storage

import (
	"context"

	"tally/internal/core"
)

type (
	// UserStore persists accounts. CreateUser fails with core.ErrConflict
	// when the username is taken; registration is the only unauthenticated
	// write in the system.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		GetUserByID(ctx context.Context, id core.UserID) (core.User, error)
		SetCurrency(ctx context.Context, id core.UserID, currency string) error
	}

	// CategoryStore persists per-user categories. Names are unique per
	// user; CreateCategory fails with core.ErrConflict on a duplicate.
	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error)
	}

	// ExpenseStore persists expenses. Every operation carries the owning
	// user id and applies it as a predicate in the query itself, so a
	// foreign-owned row behaves exactly like a missing one.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) error
		ListExpenses(ctx context.Context, userID core.UserID, f core.ExpenseFilter) ([]core.Expense, error)
	}

	// DailySum is one day's summed spend, sparse: days without expenses
	// are absent and the analytics service zero-fills them.
	DailySum struct {
		Date  core.Date
		Cents int64
	}

	// CategorySum is one category's summed spend over a range.
	CategorySum struct {
		Category string
		Cents    int64
	}

	// AggregateStore serves the read-only grouped sums behind every
	// analytics view. Coarser buckets (week/month/year) are folded from
	// daily sums by the service so both stores stay portable.
	AggregateStore interface {
		SumByDay(ctx context.Context, userID core.UserID, from, to core.Date) ([]DailySum, error)
		SumByCategory(ctx context.Context, userID core.UserID, from, to core.Date) ([]CategorySum, error)
	}
)

// Store is the full persistence surface a backend must provide.
type Store interface {
	UserStore
	CategoryStore
	ExpenseStore
	AggregateStore

	Close() error
}
