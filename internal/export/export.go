// Package export defines the outbound port for mirroring the ledger to
// an external spreadsheet.
package export

import (
	"context"

	"tally/internal/core"
)

// Exporter mirrors ledger writes to an external sink. Implementations
// must be safe for concurrent use; the worker may process deliveries in
// parallel.
type Exporter interface {
	// AppendExpense writes one expense row and returns a sink-specific
	// row reference for logging.
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)

	// MarkDeleted records that an expense was removed from the ledger.
	// The sink keeps an append-only audit trail, so deletion is a
	// tombstone row rather than a removal.
	MarkDeleted(ctx context.Context, userID core.UserID, id core.ExpenseID) (rowRef string, err error)
}
