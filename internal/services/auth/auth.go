// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/email"
)

// DefaultTokenLifetime is how long a confirmation or reset token stays valid.
const DefaultTokenLifetime = 24 * time.Hour

// UserStore is the persistence the account lifecycle needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	SetPendingToken(ctx context.Context, id int64, token string, expiresAt time.Time) error
	ConfirmUser(ctx context.Context, id int64) error
	ResetUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserProfile(ctx context.Context, id int64, name, email string) error
}

// SessionIssuer mints session tokens for authenticated users.
type SessionIssuer interface {
	Issue(userID int64) (string, error)
}

// EventRecorder counts lifecycle outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

// TokenPurpose tells what a pending token was issued for.
type TokenPurpose string

const (
	PurposeConfirmation TokenPurpose = "confirmation"
	PurposeReset        TokenPurpose = "reset"
)

// TokenObserver is notified of every pending token handed to the mailer.
type TokenObserver func(purpose TokenPurpose, email, token string)

type Service struct {
	users    UserStore
	issuer   SessionIssuer
	mailer   email.Dispatcher
	hasher   PasswordHasher
	tokens   TokenGenerator
	tokenTTL time.Duration
	now      func() time.Time
	observe  TokenObserver
	events   EventRecorder
}

type Option func(*Service)

// WithHasher replaces the bcrypt hasher.
func WithHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithTokenGenerator replaces the 6-digit generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.tokens = g }
}

// WithTokenLifetime sets how long pending tokens remain valid.
func WithTokenLifetime(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenObserver registers fn to see issued pending tokens.
func WithTokenObserver(fn TokenObserver) Option {
	return func(s *Service) { s.observe = fn }
}

// WithEventRecorder registers a recorder for lifecycle outcomes.
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) { s.events = r }
}

func NewService(users UserStore, issuer SessionIssuer, mailer email.Dispatcher, opts ...Option) *Service {
	s := &Service{
		users:    users,
		issuer:   issuer,
		mailer:   mailer,
		hasher:   NewBcryptHasher(),
		tokens:   DigitTokenGenerator{},
		tokenTTL: DefaultTokenLifetime,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unconfirmed account and mails its confirmation token.
// A failed email does not undo the registration; see ResendConfirmation.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	user, token, err := s.register(ctx, params)
	s.record("register", err)
	if err != nil {
		return nil, err
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)
	s.dispatch(ctx, PurposeConfirmation, user, token)
	return user, nil
}

func (s *Service) register(ctx context.Context, params RegisterParams) (*models.User, string, error) {
	_, err := s.users.GetUserByEmail(ctx, params.Email)
	if err == nil {
		slog.Warn("register_failed", "email", params.Email, "reason", "duplicate_email")
		return nil, "", ErrDuplicateEmail
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
	}

	for range maxTokenAttempts {
		token, err := s.tokens.Generate()
		if err != nil {
			return nil, "", err
		}
		expires := s.now().Add(s.tokenTTL)
		user.Token = &token
		user.TokenExpiresAt = &expires

		err = s.users.CreateUser(ctx, user)
		switch {
		case err == nil:
			return user, token, nil
		case errors.Is(err, repository.ErrDuplicateToken):
			slog.Debug("pending_token_collision", "email", params.Email)
			continue
		case errors.Is(err, repository.ErrDuplicateEmail):
			slog.Warn("register_failed", "email", params.Email, "reason", "duplicate_email")
			return nil, "", ErrDuplicateEmail
		default:
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
	}
	return nil, "", ErrTokenSpaceExhausted
}

// ConfirmAccount marks the holder of token confirmed. Tokens are single use.
func (s *Service) ConfirmAccount(ctx context.Context, token string) error {
	err := s.confirmAccount(ctx, token)
	s.record("confirm", err)
	return err
}

func (s *Service) confirmAccount(ctx context.Context, token string) error {
	user, err := s.holderOf(ctx, token)
	if err != nil {
		return err
	}

	if err := s.users.ConfirmUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}

	slog.Info("confirm_success", "user_id", user.ID)
	return nil
}

// Login checks existence, then confirmation, then password, and returns a session token.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (string, error) {
	token, err := s.login(ctx, emailAddr, password)
	s.record("login", err)
	return token, err
}

func (s *Service) login(ctx context.Context, emailAddr, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("login_failed", "email", emailAddr, "reason", "user_not_found")
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !user.Confirmed {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "not_confirmed")
		return "", ErrAccountNotConfirmed
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password")
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", err
	}

	slog.Info("login_success", "user_id", user.ID)
	return token, nil
}

// ForgotPassword replaces any pending token with a fresh one and mails it.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	err := s.forgotPassword(ctx, emailAddr)
	s.record("forgot_password", err)
	return err
}

func (s *Service) forgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	token, err := s.assignToken(ctx, user)
	if err != nil {
		return err
	}

	slog.Info("password_reset_requested", "user_id", user.ID)
	s.dispatch(ctx, PurposeReset, user, token)
	return nil
}

// ResendConfirmation issues a new confirmation token for an unconfirmed account.
func (s *Service) ResendConfirmation(ctx context.Context, emailAddr string) error {
	err := s.resendConfirmation(ctx, emailAddr)
	s.record("resend_confirmation", err)
	return err
}

func (s *Service) resendConfirmation(ctx context.Context, emailAddr string) error {
	user, err := s.userByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}

	token, err := s.assignToken(ctx, user)
	if err != nil {
		return err
	}

	slog.Info("confirmation_resent", "user_id", user.ID)
	s.dispatch(ctx, PurposeConfirmation, user, token)
	return nil
}

// ValidateResetToken reports whether token currently belongs to a user. Read-only.
func (s *Service) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.holderOf(ctx, token)
	s.record("validate_token", err)
	return err
}

// ResetPassword sets a new password for the holder of token and clears the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := s.resetPassword(ctx, token, newPassword)
	s.record("reset_password", err)
	return err
}

func (s *Service) resetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.holderOf(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.ResetUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password_reset_success", "user_id", user.ID)
	return nil
}

// ChangePassword changes a user's password (when they know their current password)
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	err := s.changePassword(ctx, userID, currentPassword, newPassword)
	s.record("change_password", err)
	return err
}

func (s *Service) changePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if err := s.CheckPassword(ctx, userID, currentPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "user_id", userID)
	return nil
}

// CheckPassword verifies password against the stored hash of userID.
func (s *Service) CheckPassword(ctx context.Context, userID int64, password string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		slog.Warn("password_check_failed", "user_id", userID)
		return ErrInvalidCredentials
	}
	return nil
}

// UpdateProfile changes name and email. The email may not belong to another user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, emailAddr string) (*models.User, error) {
	user, err := s.updateProfile(ctx, userID, name, emailAddr)
	s.record("update_profile", err)
	return user, err
}

func (s *Service) updateProfile(ctx context.Context, userID int64, name, emailAddr string) (*models.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, emailAddr)
	switch {
	case err == nil && existing.ID != userID:
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	err = s.users.UpdateUserProfile(ctx, userID, name, emailAddr)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, ErrEmailTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	slog.Info("profile_updated", "user_id", userID)
	return user, nil
}

// holderOf returns the user whose unexpired pending token equals token.
func (s *Service) holderOf(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if user.TokenExpired(s.now()) {
		slog.Warn("pending_token_expired", "user_id", user.ID)
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *Service) userByEmail(ctx context.Context, emailAddr string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// assignToken stores a fresh pending token on user, overwriting any previous one.
func (s *Service) assignToken(ctx context.Context, user *models.User) (string, error) {
	for range maxTokenAttempts {
		token, err := s.tokens.Generate()
		if err != nil {
			return "", err
		}

		err = s.users.SetPendingToken(ctx, user.ID, token, s.now().Add(s.tokenTTL))
		switch {
		case err == nil:
			return token, nil
		case errors.Is(err, repository.ErrDuplicateToken):
			slog.Debug("pending_token_collision", "user_id", user.ID)
			continue
		default:
			return "", fmt.Errorf("failed to store token: %w", err)
		}
	}
	return "", ErrTokenSpaceExhausted
}

// dispatch hands the token to the observer and the mailer. Mail failures are logged only.
func (s *Service) dispatch(ctx context.Context, purpose TokenPurpose, user *models.User, token string) {
	if s.observe != nil {
		s.observe(purpose, user.Email, token)
	}
	if s.mailer == nil {
		return
	}

	msg := email.TokenMessage{
		Name:      user.Name,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: s.tokenTTL,
	}

	var err error
	switch purpose {
	case PurposeConfirmation:
		err = s.mailer.SendConfirmation(ctx, msg)
	case PurposeReset:
		err = s.mailer.SendPasswordReset(ctx, msg)
	}
	if err != nil {
		slog.Error("email_dispatch_failed", "purpose", string(purpose), "user_id", user.ID, "error", err)
		s.record("email_"+string(purpose), err)
		return
	}
	s.record("email_"+string(purpose), nil)
}

func (s *Service) record(event string, err error) {
	if s.events == nil {
		return
	}
	s.events.AuthEvent(event, Outcome(err))
}

// Outcome names the result of a lifecycle call for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrEmailTaken):
		return "conflict"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrAccountNotConfirmed):
		return "not_confirmed"
	case errors.Is(err, ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
