package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// EventPublisher announces ledger writes to downstream consumers.
// Satisfied by *amqp.Client.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// Invalidator drops cached analytics for a user after a write.
// Satisfied by *AnalyticsService.
type Invalidator interface {
	Invalidate(userID core.UserID)
}

// LedgerService is the owner-scoped expense CRUD surface. Every call
// takes the authenticated core.UserID explicitly; nothing here reads
// ambient session state.
type LedgerService struct {
	store       storage.ExpenseStore
	categories  storage.CategoryStore
	events      EventPublisher
	invalidator Invalidator
}

func NewLedgerService(store storage.ExpenseStore, categories storage.CategoryStore) *LedgerService {
	return &LedgerService{store: store, categories: categories}
}

// WithEvents attaches an event publisher. Publishing is best-effort: a
// broker failure is logged and never fails the write.
func (s *LedgerService) WithEvents(events EventPublisher) *LedgerService {
	s.events = events
	return s
}

// WithInvalidator attaches an analytics cache invalidator.
func (s *LedgerService) WithInvalidator(inv Invalidator) *LedgerService {
	s.invalidator = inv
	return s
}

// Create validates and persists a new expense for the caller. The
// amount must be non-negative and the date well-formed; timestamps are
// assigned here so created_at always equals updated_at on a fresh row.
func (s *LedgerService) Create(ctx context.Context, userID core.UserID, e core.Expense) (core.ExpenseID, error) {
	e.ID = core.ExpenseID(uuid.NewString())
	e.UserID = userID
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := e.Validate(); err != nil {
		return "", err
	}

	if _, err := s.store.CreateExpense(ctx, e); err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	s.afterWrite(ctx, amqp.OpCreated, e.ID, userID)
	return e.ID, nil
}

// Get returns a single expense owned by the caller.
func (s *LedgerService) Get(ctx context.Context, userID core.UserID, id core.ExpenseID) (core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

// Update applies a partial patch. Fails with core.ErrNotFound when the
// expense does not exist or belongs to another user; a successful patch
// refreshes updated_at.
func (s *LedgerService) Update(ctx context.Context, userID core.UserID, id core.ExpenseID, patch core.ExpensePatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return err
	}

	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Time != nil {
		e.Time = *patch.Time
	}
	if patch.PaymentMethod != nil {
		e.PaymentMethod = *patch.PaymentMethod
	}
	if patch.TransactionID != nil {
		e.TransactionID = *patch.TransactionID
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.afterWrite(ctx, amqp.OpUpdated, id, userID)
	return nil
}

// Delete removes an expense owned by the caller.
func (s *LedgerService) Delete(ctx context.Context, userID core.UserID, id core.ExpenseID) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.afterWrite(ctx, amqp.OpDeleted, id, userID)
	return nil
}

// List returns the caller's expenses narrowed by the filter, most
// recent first. The ownership restriction applies even to the zero
// filter; there is no way to ask for another user's rows.
func (s *LedgerService) List(ctx context.Context, userID core.UserID, f core.ExpenseFilter) ([]core.Expense, error) {
	if f.MinCents != nil && f.MaxCents != nil && *f.MinCents > *f.MaxCents {
		return nil, fmt.Errorf("%w: min amount exceeds max amount", core.ErrValidation)
	}
	return s.store.ListExpenses(ctx, userID, f)
}

// Recent returns the caller's latest expenses for the dashboard view.
func (s *LedgerService) Recent(ctx context.Context, userID core.UserID, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListExpenses(ctx, userID, core.ExpenseFilter{Limit: limit})
}

// AddCategory creates a custom category for the caller. Duplicate names
// per user fail with core.ErrConflict.
func (s *LedgerService) AddCategory(ctx context.Context, userID core.UserID, name, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, fmt.Errorf("%w: category name is required", core.ErrValidation)
	}
	if color == "" {
		color = core.DefaultCategoryColor
	}

	return s.categories.CreateCategory(ctx, core.Category{
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	})
}

// Categories lists the caller's categories, name-ordered.
func (s *LedgerService) Categories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	return s.categories.ListCategories(ctx, userID)
}

func (s *LedgerService) afterWrite(ctx context.Context, op string, id core.ExpenseID, userID core.UserID) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(op, string(id), string(userID))); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"op", op, "expense_id", id, "user_id", userID, "error", err)
	}
}
