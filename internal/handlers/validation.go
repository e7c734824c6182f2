// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strconv"
	"strings"

	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	authsvc "codeberg.org/cashtrackr/cashtrackr/internal/services/auth"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationErrors is returned by handlers when input is rejected.
// ErrorHandler renders it as 400 {"errors": [...]}.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Msg
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type validator struct {
	ctx  context.Context
	errs ValidationErrors
}

func newValidator(ctx context.Context) *validator {
	return &validator{ctx: ctx}
}

func (v *validator) add(field, messageID string, data map[string]any) {
	v.errs = append(v.errs, FieldError{
		Field: field,
		Msg:   i18n.TData(v.ctx, messageID, data),
	})
}

func (v *validator) required(field, value, messageID string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, messageID, nil)
	}
}

// email accepts a bare address only, without display name.
func (v *validator) email(field, value string) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "validation_email_invalid", nil)
	}
}

func (v *validator) password(field, value, requiredID string) {
	if value == "" {
		v.add(field, requiredID, nil)
		return
	}
	switch err := authsvc.ValidatePassword(value); {
	case errors.Is(err, authsvc.ErrPasswordTooShort):
		v.add(field, "validation_password_short", map[string]any{"Min": authsvc.MinPasswordLength})
	case errors.Is(err, authsvc.ErrPasswordTooLong):
		v.add(field, "validation_password_long", map[string]any{"Max": authsvc.MaxPasswordBytes})
	}
}

func (v *validator) token(field, value string) {
	if !authsvc.IsWellFormedToken(value) {
		v.add(field, "validation_token_invalid", nil)
	}
}

// amount parses a positive number sent either as JSON number or numeric string.
func (v *validator) amount(field string, value json.Number) float64 {
	if value == "" {
		v.add(field, "validation_amount_required", nil)
		return 0
	}
	n, err := strconv.ParseFloat(value.String(), 64)
	if err != nil || n <= 0 {
		v.add(field, "validation_amount_positive", nil)
		return 0
	}
	return n
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// normalizeEmail trims surrounding whitespace. Case is preserved.
func normalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
