// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"log/slog"

	"codeberg.org/cashtrackr/cashtrackr/internal/auth"
	"github.com/labstack/echo/v4"
)

// OwnershipRule pairs the owner recorded on a loaded resource with the
// identifier that owner must equal. Either side missing fails closed.
type OwnershipRule struct {
	Name     string
	Owner    func(ctx context.Context) (int64, bool)
	Expected func(ctx context.Context) (int64, bool)
}

// BudgetOwnedByCaller requires budget.UserID to equal the authenticated user.
var BudgetOwnedByCaller = OwnershipRule{
	Name: "budget",
	Owner: func(ctx context.Context) (int64, bool) {
		if b := auth.GetBudget(ctx); b != nil {
			return b.UserID, true
		}
		return 0, false
	},
	Expected: auth.UserID,
}

// ExpenseInBudget requires expense.BudgetID to equal the loaded budget.
var ExpenseInBudget = OwnershipRule{
	Name: "expense",
	Owner: func(ctx context.Context) (int64, bool) {
		if e := auth.GetExpense(ctx); e != nil {
			return e.BudgetID, true
		}
		return 0, false
	},
	Expected: func(ctx context.Context) (int64, bool) {
		if b := auth.GetBudget(ctx); b != nil {
			return b.ID, true
		}
		return 0, false
	},
}

// CheckOwnership returns ErrForbidden unless owner equals expected.
func CheckOwnership(owner, expected int64) error {
	if owner != expected {
		return ErrForbidden
	}
	return nil
}

// RequireOwnership rejects the request with ErrForbidden when rule does not hold.
// It runs after the resource loader and Authenticate and has no side effects.
func RequireOwnership(rule OwnershipRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			owner, ok := rule.Owner(ctx)
			if !ok {
				slog.Error("ownership_check_misconfigured", "rule", rule.Name, "missing", "owner")
				return ErrForbidden
			}
			expected, ok := rule.Expected(ctx)
			if !ok {
				slog.Error("ownership_check_misconfigured", "rule", rule.Name, "missing", "expected")
				return ErrForbidden
			}

			if err := CheckOwnership(owner, expected); err != nil {
				slog.Warn("ownership_denied", "rule", rule.Name, "owner", owner, "caller", expected)
				return err
			}
			return next(c)
		}
	}
}
