// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/cashtrackr/cashtrackr/internal/models"
)

const budgetColumns = `id, name, amount, user_id, created_at, updated_at`

// ListBudgetsByUser returns the user's budgets, newest first.
func (r *Repository) ListBudgetsByUser(ctx context.Context, userID int64) ([]models.Budget, error) {
	budgets := []models.Budget{}
	err := r.db.SelectContext(ctx, &budgets,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, wrapError("list budgets", err)
	}
	return budgets, nil
}

// CreateBudget inserts a budget and fills in its ID and timestamps.
func (r *Repository) CreateBudget(ctx context.Context, budget *models.Budget) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (name, amount, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		budget.Name, budget.Amount, budget.UserID, now, now,
	)
	if err != nil {
		return wrapError("create budget", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return wrapError("create budget", err)
	}

	budget.ID = id
	budget.CreatedAt = now
	budget.UpdatedAt = now
	return nil
}

// GetBudgetByID retrieves a budget without its expenses.
func (r *Repository) GetBudgetByID(ctx context.Context, id int64) (*models.Budget, error) {
	var budget models.Budget
	err := r.db.GetContext(ctx, &budget, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError("get budget", err)
	}
	return &budget, nil
}

// UpdateBudget changes name and amount of a budget.
func (r *Repository) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET name = ?, amount = ?, updated_at = ? WHERE id = ?`,
		budget.Name, budget.Amount, now, budget.ID,
	)
	if err != nil {
		return wrapError("update budget", err)
	}
	if err := requireAffected("update budget", res); err != nil {
		return err
	}
	budget.UpdatedAt = now
	return nil
}

// DeleteBudget removes a budget and, through the foreign key, its expenses.
func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return wrapError("delete budget", err)
	}
	return requireAffected("delete budget", res)
}
