// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/models"
)

const userColumns = `id, name, email, password_hash, confirmed, token, token_expires_at, created_at, updated_at`

// CreateUser inserts a new user and fills in its ID and timestamps.
// Returns ErrDuplicateEmail or ErrDuplicateToken on unique violations.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, confirmed, token, token_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.Confirmed, user.Token, user.TokenExpiresAt, now, now,
	)
	if err != nil {
		return wrapError("create user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return wrapError("create user", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError("get user by id", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by exact email match.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError("get user by email", err)
	}
	return &user, nil
}

// GetUserByToken retrieves the user holding the given pending token.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE token = ?`, token)
	if err != nil {
		return nil, wrapError("get user by token", err)
	}
	return &user, nil
}

// SetPendingToken stores a confirmation or reset token on the user.
func (r *Repository) SetPendingToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET token = ?, token_expires_at = ?, updated_at = ? WHERE id = ?`,
		token, expiresAt, r.now(), id,
	)
	if err != nil {
		return wrapError("set pending token", err)
	}
	return requireAffected("set pending token", res)
}

// ConfirmUser marks the user confirmed and clears the pending token.
func (r *Repository) ConfirmUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET confirmed = 1, token = NULL, token_expires_at = NULL, updated_at = ? WHERE id = ?`,
		r.now(), id,
	)
	if err != nil {
		return wrapError("confirm user", err)
	}
	return requireAffected("confirm user", res)
}

// ResetUserPassword replaces the password hash and clears the pending token.
func (r *Repository) ResetUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, token = NULL, token_expires_at = NULL, updated_at = ? WHERE id = ?`,
		passwordHash, r.now(), id,
	)
	if err != nil {
		return wrapError("reset user password", err)
	}
	return requireAffected("reset user password", res)
}

// UpdateUserPassword updates a user's password
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, r.now(), id,
	)
	if err != nil {
		return wrapError("update user password", err)
	}
	return requireAffected("update user password", res)
}

// UpdateUserProfile changes name and email.
// Returns ErrDuplicateEmail when the email belongs to another user.
func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, name, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		name, email, r.now(), id,
	)
	if err != nil {
		return wrapError("update user profile", err)
	}
	return requireAffected("update user profile", res)
}
