package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

const expenseColumns = `id, user_id, amount_cents, category, COALESCE(description, ''), date,
	COALESCE(time, ''), COALESCE(payment_method, ''), COALESCE(transaction_id, ''), created_at, updated_at`

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO expenses (id, user_id, amount_cents, category, description, date, time,
			payment_method, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)`,
		string(e.ID), string(e.UserID), e.Amount.Cents, e.Category, e.Description,
		e.Date.Time, e.Time, e.PaymentMethod, e.TransactionID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return core.Expense{}, mapError("insert expense", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

func (s *Store) GetExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) (core.Expense, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE id = $1 AND user_id = $2`,
		string(id), string(userID))

	e, err := scanExpense(row.Scan)
	if err != nil {
		return core.Expense{}, mapError(fmt.Sprintf("get expense %s", id), err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses
		SET amount_cents = $1, category = $2, description = NULLIF($3, ''), date = $4,
		    time = NULLIF($5, ''), payment_method = NULLIF($6, ''), transaction_id = NULLIF($7, ''),
		    updated_at = $8
		WHERE id = $9 AND user_id = $10`,
		e.Amount.Cents, e.Category, e.Description, e.Date.Time, e.Time,
		e.PaymentMethod, e.TransactionID, e.UpdatedAt, string(e.ID), string(e.UserID),
	)
	if err != nil {
		return mapError("update expense", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID core.UserID, id core.ExpenseID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
		string(id), string(userID))
	if err != nil {
		return mapError("delete expense", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID core.UserID, f core.ExpenseFilter) ([]core.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1`)
	args := []any{string(userID)}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.From.IsZero() {
		sb.WriteString(` AND date >= ` + arg(f.From.Time))
	}
	if !f.To.IsZero() {
		sb.WriteString(` AND date <= ` + arg(f.To.Time))
	}
	if f.Category != "" {
		sb.WriteString(` AND category = ` + arg(f.Category))
	}
	if f.TransactionID != "" {
		sb.WriteString(` AND transaction_id = ` + arg(f.TransactionID))
	}
	if f.Search != "" {
		p := arg("%" + strings.ToLower(f.Search) + "%")
		sb.WriteString(` AND (LOWER(COALESCE(description, '')) LIKE ` + p +
			` OR LOWER(COALESCE(transaction_id, '')) LIKE ` + p + `)`)
	}
	if f.ExactCents != nil {
		sb.WriteString(` AND amount_cents = ` + arg(*f.ExactCents))
	}
	if f.MinCents != nil {
		sb.WriteString(` AND amount_cents >= ` + arg(*f.MinCents))
	}
	if f.MaxCents != nil {
		sb.WriteString(` AND amount_cents <= ` + arg(*f.MaxCents))
	}

	sb.WriteString(` ORDER BY date DESC, time DESC NULLS LAST, created_at DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(f.Limit))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapError("list expenses", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, mapError("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// --- aggregates ---

func (s *Store) SumByDay(ctx context.Context, userID core.UserID, from, to core.Date) ([]storage.DailySum, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, SUM(amount_cents)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY date
		ORDER BY date`,
		string(userID), from.Time, to.Time)
	if err != nil {
		return nil, mapError("sum by day", err)
	}
	defer rows.Close()

	var sums []storage.DailySum
	for rows.Next() {
		var day time.Time
		var cents int64
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, mapError("scan daily sum", err)
		}
		sums = append(sums, storage.DailySum{
			Date:  core.NewDate(day.Year(), int(day.Month()), day.Day()),
			Cents: cents,
		})
	}
	return sums, rows.Err()
}

func (s *Store) SumByCategory(ctx context.Context, userID core.UserID, from, to core.Date) ([]storage.CategorySum, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, SUM(amount_cents)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY category`,
		string(userID), from.Time, to.Time)
	if err != nil {
		return nil, mapError("sum by category", err)
	}
	defer rows.Close()

	var sums []storage.CategorySum
	for rows.Next() {
		var cs storage.CategorySum
		if err := rows.Scan(&cs.Category, &cs.Cents); err != nil {
			return nil, mapError("scan category sum", err)
		}
		sums = append(sums, cs)
	}
	return sums, rows.Err()
}

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var e core.Expense
	var id, uid string
	var cents int64
	var date time.Time
	if err := scan(&id, &uid, &cents, &e.Category, &e.Description, &date, &e.Time,
		&e.PaymentMethod, &e.TransactionID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}

	e.ID = core.ExpenseID(id)
	e.UserID = core.UserID(uid)
	e.Amount = core.FromCents(cents)
	e.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	return e, nil
}
