// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

type User struct { //nolint:govet // fieldalignment not critical for models
	ID             int64      `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Confirmed      bool       `db:"confirmed" json:"confirmed"`
	Token          *string    `db:"token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile is the public view of a user returned to its owner.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the fields a user may see about themselves.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PendingToken returns the outstanding confirmation or reset code, if any.
func (u *User) PendingToken() (string, bool) {
	if u.Token == nil || *u.Token == "" {
		return "", false
	}
	return *u.Token, true
}

// TokenExpired reports whether the pending token has a deadline before now.
// A token without a deadline never expires.
func (u *User) TokenExpired(now time.Time) bool {
	if u.TokenExpiresAt == nil {
		return false
	}
	return now.After(*u.TokenExpiresAt)
}
