// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	authsvc "codeberg.org/cashtrackr/cashtrackr/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for the account lifecycle under /api/auth.
type AuthHandlers struct {
	auth *authsvc.Service
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service) *AuthHandlers {
	return &AuthHandlers{auth: svc}
}

// CreateAccountRequest is the request body for registration.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccount registers an unconfirmed account and mails its confirmation code.
func (h *AuthHandlers) CreateAccount(c echo.Context) error {
	var req CreateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Email = normalizeEmail(req.Email)

	v := newValidator(c.Request().Context())
	v.required("name", req.Name, "validation_name_required")
	v.password("password", req.Password, "validation_password_required")
	v.email("email", req.Email)
	if err := v.err(); err != nil {
		return err
	}

	_, err := h.auth.Register(c.Request().Context(), authsvc.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return message(c, http.StatusCreated, "account_created")
}

// TokenRequest carries a pending confirmation or reset code.
type TokenRequest struct {
	Token string `json:"token"`
}

// ConfirmAccount consumes a confirmation code.
func (h *AuthHandlers) ConfirmAccount(c echo.Context) error {
	var req TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := newValidator(c.Request().Context())
	v.token("token", req.Token)
	if err := v.err(); err != nil {
		return err
	}

	if err := h.auth.ConfirmAccount(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return message(c, http.StatusOK, "account_confirmed")
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login responds with a session token as a JSON string.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Email = normalizeEmail(req.Email)

	v := newValidator(c.Request().Context())
	v.email("email", req.Email)
	v.required("password", req.Password, "validation_password_required")
	if err := v.err(); err != nil {
		return err
	}

	token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// EmailRequest carries only an email address.
type EmailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandlers) bindEmail(c echo.Context) (string, error) {
	var req EmailRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	req.Email = normalizeEmail(req.Email)

	v := newValidator(c.Request().Context())
	v.email("email", req.Email)
	return req.Email, v.err()
}

// ForgotPassword mails a reset code to a known address.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	addr, err := h.bindEmail(c)
	if err != nil {
		return err
	}
	if err := h.auth.ForgotPassword(c.Request().Context(), addr); err != nil {
		return err
	}
	return message(c, http.StatusOK, "reset_instructions_sent")
}

// ResendConfirmation issues a new confirmation code to an unconfirmed account.
func (h *AuthHandlers) ResendConfirmation(c echo.Context) error {
	addr, err := h.bindEmail(c)
	if err != nil {
		return err
	}
	if err := h.auth.ResendConfirmation(c.Request().Context(), addr); err != nil {
		return err
	}
	return message(c, http.StatusOK, "confirmation_resent")
}

// ValidateToken checks a reset code without consuming it.
func (h *AuthHandlers) ValidateToken(c echo.Context) error {
	var req TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := newValidator(c.Request().Context())
	v.token("token", req.Token)
	if err := v.err(); err != nil {
		return err
	}

	err := h.auth.ValidateResetToken(c.Request().Context(), req.Token)
	if err != nil {
		return override(err, authsvc.ErrInvalidToken, http.StatusNotFound, "")
	}
	return message(c, http.StatusOK, "token_valid")
}

// PasswordRequest carries a new password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets a new password for the holder of the :token code.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token := c.Param("token")

	v := newValidator(c.Request().Context())
	v.token("token", token)
	v.password("password", req.Password, "validation_password_required")
	if err := v.err(); err != nil {
		return err
	}

	err := h.auth.ResetPassword(c.Request().Context(), token, req.Password)
	if err != nil {
		return override(err, authsvc.ErrInvalidToken, http.StatusNotFound, "")
	}
	return message(c, http.StatusOK, "password_reset")
}

// User returns the authenticated user's profile.
func (h *AuthHandlers) User(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Profile())
}

// UpdatePasswordRequest is the request body for a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
}

// UpdatePassword changes the password after checking the current one.
func (h *AuthHandlers) UpdatePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req UpdatePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := newValidator(c.Request().Context())
	v.required("current_password", req.CurrentPassword, "validation_current_password_required")
	v.password("password", req.Password, "validation_password_required")
	if err := v.err(); err != nil {
		return err
	}

	err = h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.Password)
	if err != nil {
		return override(err, authsvc.ErrInvalidCredentials, 0, "error_current_password")
	}
	return message(c, http.StatusOK, "password_changed")
}

// CheckPassword confirms the caller knows their password.
func (h *AuthHandlers) CheckPassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req PasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	v := newValidator(c.Request().Context())
	v.required("password", req.Password, "validation_password_required")
	if err := v.err(); err != nil {
		return err
	}

	err = h.auth.CheckPassword(c.Request().Context(), user.ID, req.Password)
	if err != nil {
		return override(err, authsvc.ErrInvalidCredentials, 0, "error_password_mismatch")
	}
	return message(c, http.StatusOK, "password_correct")
}

// UpdateUserRequest is the request body for a profile update.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUser changes the caller's name and email.
func (h *AuthHandlers) UpdateUser(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Email = normalizeEmail(req.Email)

	v := newValidator(c.Request().Context())
	v.required("name", req.Name, "validation_name_required")
	v.email("email", req.Email)
	if err := v.err(); err != nil {
		return err
	}

	if _, err := h.auth.UpdateProfile(c.Request().Context(), user.ID, req.Name, req.Email); err != nil {
		return err
	}
	return message(c, http.StatusOK, "profile_updated")
}
