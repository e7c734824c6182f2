// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/auth"
	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

var errInvalidBody = errors.New("invalid request body")

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// message responds with a localized JSON string, the shape every
// successful mutation returns.
func message(c echo.Context, status int, messageID string) error {
	return c.JSON(status, i18n.T(c.Request().Context(), messageID))
}

// currentUser returns the user attached by middleware.Authenticate.
func currentUser(c echo.Context) (*models.User, error) {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return nil, middleware.ErrMissingToken
	}
	return user, nil
}

func currentBudget(c echo.Context) (*models.Budget, error) {
	budget := auth.GetBudget(c.Request().Context())
	if budget == nil {
		return nil, middleware.ErrBudgetNotFound
	}
	return budget, nil
}

func currentExpense(c echo.Context) (*models.Expense, error) {
	expense := auth.GetExpense(c.Request().Context())
	if expense == nil {
		return nil, middleware.ErrExpenseNotFound
	}
	return expense, nil
}
