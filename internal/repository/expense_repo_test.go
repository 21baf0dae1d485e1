package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
	"github.com/pakin/expense-tracker/pkg/database"
)

func newTestRepo(t *testing.T) *ExpenseRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "expenses.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations("../../migrations"))

	return NewExpenseRepository(db.DB, zap.NewNop())
}

func sampleExpense() expense.Expense {
	return expense.Expense{
		Date:       "2025-06-01",
		Name:       "Taxi Nana",
		Amount:     120.5,
		Currency:   "THB",
		PaidBy:     "Me",
		Category:   expense.CategoryTransport,
		Locations:  []string{"Shark BKK", "Bliss"},
		Status:     expense.StatusSubmitted,
		ReceiptURL: "/uploads/1_taxi.jpg",
		Notes:      "late night",
	}
}

func TestExpenseRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleExpense())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	expenses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	got := expenses[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Taxi Nana", got.Name)
	assert.Equal(t, 120.5, got.Amount)
	assert.Equal(t, []string{"Shark BKK", "Bliss"}, got.Locations)
	assert.Equal(t, expense.StatusSubmitted, got.Status)
}

func TestExpenseRepository_ListOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := sampleExpense()
	first.Name = "First"
	second := sampleExpense()
	second.Name = "Second"

	_, err := repo.Create(ctx, first)
	require.NoError(t, err)
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	expenses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Second", expenses[0].Name, "newest record comes first")
}

func TestExpenseRepository_ListEmptyStore(t *testing.T) {
	repo := newTestRepo(t)

	expenses, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, expenses)
	assert.Empty(t, expenses)
}

func TestExpenseRepository_DeleteByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleExpense())
	require.NoError(t, err)

	found, err := repo.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, found, "deleting a missing id reports not found")

	expenses, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestExpenseRepository_DeleteAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, sampleExpense())
		require.NoError(t, err)
	}

	count, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	expenses, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestExpenseRepository_ToleratesLegacyLocations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Simulate an old row written before locations were JSON-encoded
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO expenses (date, expense_name, amount, currency, locations, status)
		VALUES ('2024-01-01', 'Legacy', 10, 'THB', 'Mandarin, Geisha', 'Submitted')
	`)
	require.NoError(t, err)

	expenses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, []string{"Mandarin", "Geisha"}, expenses[0].Locations)
}
