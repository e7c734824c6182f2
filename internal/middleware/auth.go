// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/cashtrackr/cashtrackr/internal/auth"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/session"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks a session token and returns the user it identifies.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UserLoader is an interface for loading full user data
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate resolves the bearer token to a user and attaches it to the
// request context. It does not decide what the user may access.
func Authenticate(verifier TokenVerifier, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return ErrMissingToken
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				slog.Warn("auth_token_rejected", "reason", session.Reason(err), "ip", c.RealIP())
				return ErrInvalidToken
			}

			ctx := c.Request().Context()
			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					slog.Warn("auth_token_rejected", "reason", "unknown_user", "user_id", userID)
					return ErrInvalidToken
				}
				return fmt.Errorf("failed to load user: %w", err)
			}

			c.SetRequest(c.Request().WithContext(auth.WithUser(ctx, user)))
			return next(c)
		}
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
