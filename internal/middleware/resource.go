// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"codeberg.org/cashtrackr/cashtrackr/internal/auth"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"github.com/labstack/echo/v4"
)

const (
	BudgetIDParam  = "budgetId"
	ExpenseIDParam = "expenseId"
)

type BudgetLoader interface {
	GetBudgetByID(ctx context.Context, id int64) (*models.Budget, error)
}

type ExpenseLoader interface {
	GetExpenseByID(ctx context.Context, id int64) (*models.Expense, error)
}

// ParseID reads a positive integer path parameter.
func ParseID(c echo.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// LoadBudget loads the budget named by :budgetId into the request context.
func LoadBudget(budgets BudgetLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := ParseID(c, BudgetIDParam)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			budget, err := budgets.GetBudgetByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrBudgetNotFound
				}
				return fmt.Errorf("failed to load budget: %w", err)
			}

			c.SetRequest(c.Request().WithContext(auth.WithBudget(ctx, budget)))
			return next(c)
		}
	}
}

// LoadExpense loads the expense named by :expenseId into the request context.
func LoadExpense(expenses ExpenseLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := ParseID(c, ExpenseIDParam)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			expense, err := expenses.GetExpenseByID(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrExpenseNotFound
				}
				return fmt.Errorf("failed to load expense: %w", err)
			}

			c.SetRequest(c.Request().WithContext(auth.WithExpense(ctx, expense)))
			return next(c)
		}
	}
}
