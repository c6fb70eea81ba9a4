package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"
)

const expenseColumns = `id, user_id, amount_cents, category, description, date, time, payment_method, transaction_id, created_at, updated_at`

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.UserID), e.Amount.Cents, e.Category,
		nullable(e.Description), e.Date.String(), nullable(e.Time),
		nullable(e.PaymentMethod), nullable(e.TransactionID),
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE id = ? AND user_id = ?`,
		string(id), string(userID))

	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, category = ?, description = ?, date = ?, time = ?,
		    payment_method = ?, transaction_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Amount.Cents, e.Category, nullable(e.Description), e.Date.String(),
		nullable(e.Time), nullable(e.PaymentMethod), nullable(e.TransactionID),
		e.UpdatedAt, string(e.ID), string(e.UserID),
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		string(id), string(userID))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

func (r *Repository) ListExpenses(ctx context.Context, userID core.UserID, f core.ExpenseFilter) ([]core.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ?`)
	args := []any{string(userID)}

	if !f.From.IsZero() {
		sb.WriteString(` AND date >= ?`)
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		sb.WriteString(` AND date <= ?`)
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, f.Category)
	}
	if f.TransactionID != "" {
		sb.WriteString(` AND transaction_id = ?`)
		args = append(args, f.TransactionID)
	}
	if f.Search != "" {
		sb.WriteString(` AND (LOWER(COALESCE(description, '')) LIKE ? OR LOWER(COALESCE(transaction_id, '')) LIKE ?)`)
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if f.ExactCents != nil {
		sb.WriteString(` AND amount_cents = ?`)
		args = append(args, *f.ExactCents)
	}
	if f.MinCents != nil {
		sb.WriteString(` AND amount_cents >= ?`)
		args = append(args, *f.MinCents)
	}
	if f.MaxCents != nil {
		sb.WriteString(` AND amount_cents <= ?`)
		args = append(args, *f.MaxCents)
	}

	sb.WriteString(` ORDER BY date DESC, time DESC, created_at DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// --- aggregates ---

func (r *Repository) SumByDay(ctx context.Context, userID core.UserID, from, to core.Date) ([]storage.DailySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, SUM(amount_cents)
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date`,
		string(userID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	defer rows.Close()

	var sums []storage.DailySum
	for rows.Next() {
		var day string
		var cents int64
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan daily sum: %w", err)
		}
		d, err := core.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", day, err)
		}
		sums = append(sums, storage.DailySum{Date: d, Cents: cents})
	}
	return sums, rows.Err()
}

func (r *Repository) SumByCategory(ctx context.Context, userID core.UserID, from, to core.Date) ([]storage.CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM expenses
		WHERE user_id = ? AND date >= ? AND date <= ?
		GROUP BY category`,
		string(userID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var sums []storage.CategorySum
	for rows.Next() {
		var s storage.CategorySum
		if err := rows.Scan(&s.Category, &s.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var e core.Expense
	var id, uid, date string
	var cents int64
	var desc, tod, method, txid sql.NullString
	if err := scan(&id, &uid, &cents, &e.Category, &desc, &date, &tod,
		&method, &txid, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", date, err)
	}

	e.ID = core.ExpenseID(id)
	e.UserID = core.UserID(uid)
	e.Amount = core.FromCents(cents)
	e.Description = desc.String
	e.Date = d
	e.Time = tod.String
	e.PaymentMethod = method.String
	e.TransactionID = txid.String
	return e, nil
}
