// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import "errors"

var (
	ErrDuplicateEmail      = errors.New("user already exists")
	ErrEmailTaken          = errors.New("email belongs to another user")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotConfirmed = errors.New("account not confirmed")
	ErrAlreadyConfirmed    = errors.New("account already confirmed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenSpaceExhausted = errors.New("could not allocate a unique pending token")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrPasswordTooLong     = errors.New("password too long")
)
