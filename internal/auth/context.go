// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides request context helpers for the authenticated user
// and the resources loaded on their behalf.
package auth

import (
	"context"

	"codeberg.org/cashtrackr/cashtrackr/internal/ctxkeys"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
)

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User{}, user)
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

// UserID returns the authenticated user's ID.
func UserID(ctx context.Context) (int64, bool) {
	if user := GetUser(ctx); user != nil {
		return user.ID, true
	}
	return 0, false
}

// WithBudget returns a copy of ctx carrying the loaded budget.
func WithBudget(ctx context.Context, budget *models.Budget) context.Context {
	return context.WithValue(ctx, ctxkeys.Budget{}, budget)
}

// GetBudget returns the loaded budget, or nil.
func GetBudget(ctx context.Context) *models.Budget {
	if budget, ok := ctx.Value(ctxkeys.Budget{}).(*models.Budget); ok {
		return budget
	}
	return nil
}

// WithExpense returns a copy of ctx carrying the loaded expense.
func WithExpense(ctx context.Context, expense *models.Expense) context.Context {
	return context.WithValue(ctx, ctxkeys.Expense{}, expense)
}

// GetExpense returns the loaded expense, or nil.
func GetExpense(ctx context.Context) *models.Expense {
	if expense, ok := ctx.Value(ctxkeys.Expense{}).(*models.Expense); ok {
		return expense
	}
	return nil
}
