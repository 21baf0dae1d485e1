// Package repository implements the SQLite-backed expense store.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/pakin/expense-tracker/internal/expense"
)

// ExpenseRepository handles expense database operations
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every expense, newest first. Rows pass through the
// defensive normalization boundary so malformed stored data never fails.
func (r *ExpenseRepository) List(ctx context.Context) ([]expense.Expense, error) {
	query := `
		SELECT id, date, expense_name, amount, currency, paid_by,
			category, locations, status, receipt_url, notes
		FROM expenses
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]expense.Expense, 0)
	for rows.Next() {
		var (
			id     int64
			amount float64

			date, name, currency, paidBy, category,
			locations, status, receiptURL, notes sql.NullString
		)
		if err := rows.Scan(&id, &date, &name, &amount, &currency, &paidBy,
			&category, &locations, &status, &receiptURL, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		expenses = append(expenses, expense.FromRow(map[string]any{
			"id":           float64(id),
			"date":         date.String,
			"expense_name": name.String,
			"amount":       amount,
			"currency":     currency.String,
			"paid_by":      paidBy.String,
			"category":     category.String,
			"locations":    locations.String,
			"status":       status.String,
			"receipt_url":  receiptURL.String,
			"notes":        notes.String,
		}))
	}

	return expenses, rows.Err()
}

// Create inserts a record and returns the store-assigned id
func (r *ExpenseRepository) Create(ctx context.Context, e expense.Expense) (int64, error) {
	locations, err := json.Marshal(expense.Normalize(e).Locations)
	if err != nil {
		return 0, fmt.Errorf("failed to encode locations: %w", err)
	}

	query := `
		INSERT INTO expenses (
			date, expense_name, amount, currency, paid_by,
			category, locations, status, receipt_url, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		e.Date,
		e.Name,
		e.Amount,
		e.Currency,
		e.PaidBy,
		e.Category,
		string(locations),
		string(e.Status),
		e.ReceiptURL,
		e.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return 0, fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	r.logger.Info("Expense created",
		zap.Int64("id", id),
		zap.String("expense_name", e.Name),
		zap.Float64("amount", e.Amount),
		zap.String("currency", e.Currency))
	return id, nil
}

// DeleteByID removes a single record. The returned bool reports whether a
// record with that id existed.
func (r *ExpenseRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteAll irreversibly clears the store and returns the number of
// removed records. Callers must have obtained user confirmation first.
func (r *ExpenseRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses")
	if err != nil {
		r.logger.Error("Failed to delete all expenses", zap.Error(err))
		return 0, fmt.Errorf("failed to delete all expenses: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	r.logger.Info("All expenses deleted", zap.Int64("count", affected))
	return affected, nil
}
