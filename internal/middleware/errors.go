// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import "errors"

var (
	ErrMissingToken    = errors.New("no authentication token provided")
	ErrInvalidToken    = errors.New("invalid authentication token")
	ErrForbidden       = errors.New("resource does not belong to caller")
	ErrInvalidID       = errors.New("invalid id")
	ErrBudgetNotFound  = errors.New("budget not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrRateLimited     = errors.New("rate limit exceeded")
)
