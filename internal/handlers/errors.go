// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	authsvc "codeberg.org/cashtrackr/cashtrackr/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// statusError overrides the status or message of a wrapped error for one route.
type statusError struct {
	err       error
	status    int
	messageID string
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// override replaces the default response for err when it matches target.
// A zero status or empty messageID keeps the default.
func override(err, target error, status int, messageID string) error {
	if err == nil || !errors.Is(err, target) {
		return err
	}
	return &statusError{err: err, status: status, messageID: messageID}
}

type errorMapping struct {
	target    error
	status    int
	messageID string
}

var errorMappings = []errorMapping{
	{authsvc.ErrDuplicateEmail, http.StatusConflict, "error_duplicate_email"},
	{authsvc.ErrEmailTaken, http.StatusConflict, "error_email_taken"},
	{authsvc.ErrAlreadyConfirmed, http.StatusConflict, "error_already_confirmed"},
	{authsvc.ErrInvalidToken, http.StatusUnauthorized, "error_invalid_token"},
	{authsvc.ErrUserNotFound, http.StatusNotFound, "error_user_not_found"},
	{authsvc.ErrAccountNotConfirmed, http.StatusForbidden, "error_account_not_confirmed"},
	{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, "error_invalid_password"},
	{middleware.ErrMissingToken, http.StatusUnauthorized, "error_missing_token"},
	{middleware.ErrInvalidToken, http.StatusUnauthorized, "error_invalid_token"},
	{middleware.ErrForbidden, http.StatusUnauthorized, "error_forbidden"},
	{middleware.ErrBudgetNotFound, http.StatusNotFound, "error_budget_not_found"},
	{middleware.ErrExpenseNotFound, http.StatusNotFound, "error_expense_not_found"},
	{middleware.ErrRateLimited, http.StatusTooManyRequests, "error_rate_limited"},
	{errInvalidBody, http.StatusBadRequest, "error_invalid_request"},
}

// errorStatus maps err to a status code and message ID.
// Anything unrecognized is an internal error.
func errorStatus(err error) (int, string) {
	status, messageID := http.StatusInternalServerError, "error_internal"
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, messageID = m.status, m.messageID
			break
		}
	}

	var se *statusError
	if errors.As(err, &se) {
		if se.status != 0 {
			status = se.status
		}
		if se.messageID != "" {
			messageID = se.messageID
		}
	}
	return status, messageID
}

// ErrorHandler renders every error returned by middleware and handlers as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ctx := c.Request().Context()

	if errors.Is(err, middleware.ErrInvalidID) {
		err = ValidationErrors{{Field: "id", Msg: i18n.T(ctx, "error_invalid_id")}}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		respond(c, http.StatusBadRequest, map[string]any{"errors": verrs})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Code == http.StatusBadRequest {
			msg = i18n.T(ctx, "error_invalid_request")
		}
		respond(c, he.Code, map[string]string{"error": msg})
		return
	}

	status, messageID := errorStatus(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{
			"error", err,
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		}
		var storageErr *repository.StorageError
		if errors.As(err, &storageErr) {
			attrs = append(attrs, "op", storageErr.Op)
		}
		slog.Error("request_failed", attrs...)
	}

	respond(c, status, map[string]string{"error": i18n.T(ctx, messageID)})
}

func respond(c echo.Context, status int, body any) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.Error("error_response_failed", "error", err)
	}
}
