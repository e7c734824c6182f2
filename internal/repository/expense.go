// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/cashtrackr/cashtrackr/internal/models"
)

const expenseColumns = `id, name, amount, budget_id, created_at, updated_at`

// ListExpensesByBudget returns a budget's expenses, oldest first.
func (r *Repository) ListExpensesByBudget(ctx context.Context, budgetID int64) ([]models.Expense, error) {
	expenses := []models.Expense{}
	err := r.db.SelectContext(ctx, &expenses,
		`SELECT `+expenseColumns+` FROM expenses WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, wrapError("list expenses", err)
	}
	return expenses, nil
}

// CreateExpense inserts an expense and fills in its ID and timestamps.
func (r *Repository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, amount, budget_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		expense.Name, expense.Amount, expense.BudgetID, now, now,
	)
	if err != nil {
		return wrapError("create expense", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return wrapError("create expense", err)
	}

	expense.ID = id
	expense.CreatedAt = now
	expense.UpdatedAt = now
	return nil
}

// GetExpenseByID retrieves a single expense.
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.GetContext(ctx, &expense, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError("get expense", err)
	}
	return &expense, nil
}

// UpdateExpense changes name and amount of an expense.
func (r *Repository) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET name = ?, amount = ?, updated_at = ? WHERE id = ?`,
		expense.Name, expense.Amount, now, expense.ID,
	)
	if err != nil {
		return wrapError("update expense", err)
	}
	if err := requireAffected("update expense", res); err != nil {
		return err
	}
	expense.UpdatedAt = now
	return nil
}

// DeleteExpense removes an expense.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return wrapError("delete expense", err)
	}
	return requireAffected("delete expense", res)
}
