// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"github.com/labstack/echo/v4"
)

// AmountRequest is the body for creating or updating a budget or an expense.
type AmountRequest struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
}

func bindAmount(c echo.Context, nameMessageID string) (string, float64, error) {
	var req AmountRequest
	if err := bind(c, &req); err != nil {
		return "", 0, err
	}

	v := newValidator(c.Request().Context())
	v.required("name", req.Name, nameMessageID)
	amount := v.amount("amount", req.Amount)
	return req.Name, amount, v.err()
}

// ListBudgets returns the caller's budgets, newest first.
func (h *Handlers) ListBudgets(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	budgets, err := h.repo.ListBudgetsByUser(c.Request().Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to list budgets: %w", err)
	}
	return c.JSON(http.StatusOK, budgets)
}

// CreateBudget creates a budget owned by the caller.
func (h *Handlers) CreateBudget(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	name, amount, err := bindAmount(c, "validation_budget_name_required")
	if err != nil {
		return err
	}

	budget := &models.Budget{Name: name, Amount: amount, UserID: user.ID}
	if err := h.repo.CreateBudget(c.Request().Context(), budget); err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return message(c, http.StatusCreated, "budget_created")
}

// GetBudget returns the loaded budget with its expenses.
func (h *Handlers) GetBudget(c echo.Context) error {
	loaded, err := currentBudget(c)
	if err != nil {
		return err
	}

	expenses, err := h.repo.ListExpensesByBudget(c.Request().Context(), loaded.ID)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}

	budget := *loaded
	budget.Expenses = expenses
	return c.JSON(http.StatusOK, budget)
}

// UpdateBudget renames or resizes the loaded budget.
func (h *Handlers) UpdateBudget(c echo.Context) error {
	loaded, err := currentBudget(c)
	if err != nil {
		return err
	}

	name, amount, err := bindAmount(c, "validation_budget_name_required")
	if err != nil {
		return err
	}

	budget := *loaded
	budget.Name, budget.Amount = name, amount
	if err := h.repo.UpdateBudget(c.Request().Context(), &budget); err != nil {
		return notFoundAs(err, middleware.ErrBudgetNotFound)
	}
	return message(c, http.StatusOK, "budget_updated")
}

// DeleteBudget removes the loaded budget and its expenses.
func (h *Handlers) DeleteBudget(c echo.Context) error {
	budget, err := currentBudget(c)
	if err != nil {
		return err
	}

	if err := h.repo.DeleteBudget(c.Request().Context(), budget.ID); err != nil {
		return notFoundAs(err, middleware.ErrBudgetNotFound)
	}
	return message(c, http.StatusOK, "budget_deleted")
}

// notFoundAs replaces repository.ErrNotFound with a resource-specific error.
func notFoundAs(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}
