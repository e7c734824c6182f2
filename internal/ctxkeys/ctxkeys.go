// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// User is the context key for the authenticated user.
type User struct{}

// Budget is the context key for the budget loaded from the route.
type Budget struct{}

// Expense is the context key for the expense loaded from the route.
type Expense struct{}
