// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/http"

	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"github.com/labstack/echo/v4"
)

// CreateExpense adds an expense to the loaded budget.
func (h *Handlers) CreateExpense(c echo.Context) error {
	budget, err := currentBudget(c)
	if err != nil {
		return err
	}

	name, amount, err := bindAmount(c, "validation_expense_name_required")
	if err != nil {
		return err
	}

	expense := &models.Expense{Name: name, Amount: amount, BudgetID: budget.ID}
	if err := h.repo.CreateExpense(c.Request().Context(), expense); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return message(c, http.StatusCreated, "expense_created")
}

// GetExpense returns the loaded expense.
func (h *Handlers) GetExpense(c echo.Context) error {
	expense, err := currentExpense(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expense)
}

func (h *Handlers) UpdateExpense(c echo.Context) error {
	loaded, err := currentExpense(c)
	if err != nil {
		return err
	}

	name, amount, err := bindAmount(c, "validation_expense_name_required")
	if err != nil {
		return err
	}

	expense := *loaded
	expense.Name, expense.Amount = name, amount
	if err := h.repo.UpdateExpense(c.Request().Context(), &expense); err != nil {
		return notFoundAs(err, middleware.ErrExpenseNotFound)
	}
	return message(c, http.StatusOK, "expense_updated")
}

func (h *Handlers) DeleteExpense(c echo.Context) error {
	expense, err := currentExpense(c)
	if err != nil {
		return err
	}

	if err := h.repo.DeleteExpense(c.Request().Context(), expense.ID); err != nil {
		return notFoundAs(err, middleware.ErrExpenseNotFound)
	}
	return message(c, http.StatusOK, "expense_deleted")
}
