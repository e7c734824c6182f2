// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"codeberg.org/cashtrackr/cashtrackr/internal/database"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/email"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a confirmed test user with the given password.
func NewTestUser(t *testing.T, repo *repository.Repository, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Confirmed:    true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewTestBudget creates a budget owned by userID.
func NewTestBudget(t *testing.T, repo *repository.Repository, userID int64, name string, amount float64) *models.Budget {
	t.Helper()
	budget := &models.Budget{Name: name, Amount: amount, UserID: userID}
	require.NoError(t, repo.CreateBudget(context.Background(), budget))
	return budget
}

// NewTestExpense creates an expense in the given budget.
func NewTestExpense(t *testing.T, repo *repository.Repository, budgetID int64, name string, amount float64) *models.Expense {
	t.Helper()
	expense := &models.Expense{Name: name, Amount: amount, BudgetID: budgetID}
	require.NoError(t, repo.CreateExpense(context.Background(), expense))
	return expense
}

// Mail is a message captured by Mailbox.
type Mail struct {
	Kind string // confirmation or reset
	email.TokenMessage
}

// Mailbox records outgoing emails instead of sending them.
type Mailbox struct {
	mu   sync.Mutex
	mail []Mail
	Err  error
}

func (m *Mailbox) SendConfirmation(_ context.Context, msg email.TokenMessage) error {
	return m.record("confirmation", msg)
}

func (m *Mailbox) SendPasswordReset(_ context.Context, msg email.TokenMessage) error {
	return m.record("reset", msg)
}

func (m *Mailbox) record(kind string, msg email.TokenMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mail = append(m.mail, Mail{Kind: kind, TokenMessage: msg})
	return m.Err
}

// Messages returns a copy of everything captured so far.
func (m *Mailbox) Messages() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.mail...)
}

// Last returns the most recent message, or false if none was sent.
func (m *Mailbox) Last() (Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.mail) == 0 {
		return Mail{}, false
	}
	return m.mail[len(m.mail)-1], true
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
