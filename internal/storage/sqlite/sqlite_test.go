package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *Repository, username string) core.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u, err := repo.CreateUser(context.Background(), core.User{
		ID:           core.UserID(uuid.NewString()),
		Username:     username,
		PasswordHash: "hash",
		PasswordSalt: "salt",
		Currency:     core.DefaultCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return u
}

func newTestExpense(user core.UserID, cents int64, category, date string) core.Expense {
	now := time.Now().UTC().Truncate(time.Second)
	d, _ := core.ParseDate(date)
	return core.Expense{
		ID:        core.ExpenseID(uuid.NewString()),
		UserID:    user,
		Amount:    core.FromCents(cents),
		Category:  category,
		Date:      d,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateUserConflict(t *testing.T) {
	repo := newTestRepo(t)
	newTestUser(t, repo, "alice")

	_, err := repo.CreateUser(context.Background(), core.User{
		ID:           core.UserID(uuid.NewString()),
		Username:     "alice",
		PasswordHash: "h",
		PasswordSalt: "s",
		Currency:     core.DefaultCurrency,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	// The first registration is unaffected.
	u, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestGetUserNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetUserByID(context.Background(), "missing-id")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCategoryUniquePerUser(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	bob := newTestUser(t, repo, "bob")
	ctx := context.Background()

	cat := core.Category{UserID: alice.ID, Name: "Food & Dining", Color: "#F87171", CreatedAt: time.Now()}
	created, err := repo.CreateCategory(ctx, cat)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = repo.CreateCategory(ctx, cat)
	assert.ErrorIs(t, err, core.ErrConflict)

	// Same name is fine for a different user.
	cat.UserID = bob.ID
	_, err = repo.CreateCategory(ctx, cat)
	assert.NoError(t, err)

	cats, err := repo.ListCategories(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "#F87171", cats[0].Color)
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	ctx := context.Background()

	e := newTestExpense(alice.ID, 4250, "Food", "2024-01-15")
	e.Description = "lunch"
	e.Time = "12:30"
	e.PaymentMethod = "card"
	e.TransactionID = "tx-001"

	_, err := repo.CreateExpense(ctx, e)
	require.NoError(t, err)

	got, err := repo.GetExpense(ctx, alice.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4250), got.Amount.Cents)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "lunch", got.Description)
	assert.Equal(t, "2024-01-15", got.Date.String())
	assert.Equal(t, "12:30", got.Time)
	assert.Equal(t, "card", got.PaymentMethod)
	assert.Equal(t, "tx-001", got.TransactionID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestExpenseOwnershipIsolation(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	bob := newTestUser(t, repo, "bob")
	ctx := context.Background()

	e := newTestExpense(alice.ID, 1500, "Coffee", "2024-03-01")
	_, err := repo.CreateExpense(ctx, e)
	require.NoError(t, err)

	// Bob cannot see, update or delete Alice's expense.
	_, err = repo.GetExpense(ctx, bob.ID, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	stolen := e
	stolen.UserID = bob.ID
	assert.ErrorIs(t, repo.UpdateExpense(ctx, stolen), core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteExpense(ctx, bob.ID, e.ID), core.ErrNotFound)

	bobList, err := repo.ListExpenses(ctx, bob.ID, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, bobList)

	aliceList, err := repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, aliceList, 1)
	assert.Equal(t, e.ID, aliceList[0].ID)
}

func TestListExpensesFilter(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	ctx := context.Background()

	seed := []core.Expense{
		newTestExpense(alice.ID, 3000, "Food", "2024-01-10"),
		newTestExpense(alice.ID, 2000, "Food", "2024-01-20"),
		newTestExpense(alice.ID, 1000, "Transport", "2024-02-05"),
	}
	seed[0].Description = "team lunch"
	seed[2].TransactionID = "TXN-42"
	for _, e := range seed {
		_, err := repo.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	from, _ := core.ParseDate("2024-01-01")
	to, _ := core.ParseDate("2024-01-31")
	got, err := repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{From: from, To: to})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// Ordered most recent first.
	assert.Equal(t, "2024-01-20", got[0].Date.String())

	got, err = repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{Category: "Transport"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{Search: "LUNCH"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "team lunch", got[0].Description)

	got, err = repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{Search: "txn-4"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	exact := int64(2000)
	got, err = repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{ExactCents: &exact})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListExpenses(ctx, alice.ID, core.ExpenseFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdateExpense(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	ctx := context.Background()

	e := newTestExpense(alice.ID, 1000, "Food", "2024-01-15")
	_, err := repo.CreateExpense(ctx, e)
	require.NoError(t, err)

	e.Amount = core.FromCents(2500)
	e.Category = "Shopping"
	e.UpdatedAt = e.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.UpdateExpense(ctx, e))

	got, err := repo.GetExpense(ctx, alice.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Amount.Cents)
	assert.Equal(t, "Shopping", got.Category)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	alice := newTestUser(t, repo, "alice")
	ctx := context.Background()

	for _, e := range []core.Expense{
		newTestExpense(alice.ID, 3000, "Food", "2024-01-15"),
		newTestExpense(alice.ID, 2000, "Food", "2024-01-15"),
		newTestExpense(alice.ID, 1000, "Transport", "2024-01-16"),
	} {
		_, err := repo.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	from, _ := core.ParseDate("2024-01-01")
	to, _ := core.ParseDate("2024-01-31")

	days, err := repo.SumByDay(ctx, alice.ID, from, to)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-15", days[0].Date.String())
	assert.Equal(t, int64(5000), days[0].Cents)
	assert.Equal(t, int64(1000), days[1].Cents)

	cats, err := repo.SumByCategory(ctx, alice.ID, from, to)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	totals := map[string]int64{}
	for _, c := range cats {
		totals[c.Category] = c.Cents
	}
	assert.Equal(t, int64(5000), totals["Food"])
	assert.Equal(t, int64(1000), totals["Transport"])

	// Empty range yields an empty series, not an error.
	empty, err := repo.SumByDay(ctx, alice.ID, core.NewDate(2020, 1, 1), core.NewDate(2020, 1, 31))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
