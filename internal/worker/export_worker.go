// Package worker consumes ledger events and mirrors them to the
// configured exporter.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/storage"
)

// ExportWorker turns expense events into exporter calls. Created and
// updated events re-read the expense from storage so the exported row
// always reflects the latest state, not the event payload.
type ExportWorker struct {
	store    storage.ExpenseStore
	exporter export.Exporter
}

func NewExportWorker(store storage.ExpenseStore, exporter export.Exporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter}
}

// HandleEvent processes a single expense event. A nil return
// acknowledges the delivery; an error requeues it.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	userID := core.UserID(event.UserID)
	expenseID := core.ExpenseID(event.ExpenseID)

	switch event.Op {
	case amqp.OpCreated, amqp.OpUpdated:
		return w.exportExpense(ctx, userID, expenseID)
	case amqp.OpDeleted:
		ref, err := w.exporter.MarkDeleted(ctx, userID, expenseID)
		if err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}
		slog.InfoContext(ctx, "Exported expense deletion",
			"expense_id", expenseID, "user_id", userID, "row_ref", ref)
		return nil
	default:
		// Unknown ops are acked, not requeued; retrying cannot fix them.
		slog.WarnContext(ctx, "Skipping unknown expense event op",
			"op", event.Op, "expense_id", expenseID)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) error {
	e, err := w.store.GetExpense(ctx, userID, id)
	if err != nil {
		// The expense may have been deleted between the event and this
		// delivery; the delete event will follow.
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Expense gone before export, skipping",
				"expense_id", id, "user_id", userID)
			return nil
		}
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.exporter.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense: %w", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"expense_id", id, "user_id", userID,
		"amount_cents", e.Amount.Cents, "row_ref", ref)
	return nil
}
