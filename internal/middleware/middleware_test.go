// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/auth"
	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/session"
	"codeberg.org/cashtrackr/cashtrackr/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(testSecret, time.Hour)
	require.NoError(t, err)
	return m
}

// capture returns a handler that records the request context it was called with.
func capture(ctx *context.Context) echo.HandlerFunc {
	return func(c echo.Context) error {
		*ctx = c.Request().Context()
		return c.NoContent(http.StatusOK)
	}
}

func TestAuthenticate(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	manager := newManager(t)

	valid, err := manager.Issue(user.ID)
	require.NoError(t, err)
	unknown, err := manager.Issue(user.ID + 100)
	require.NoError(t, err)

	other, err := session.NewManager("another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(user.ID)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	stale, err := session.NewManager(testSecret, time.Hour, session.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	expired, err := stale.Issue(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		err    error
	}{
		{"valid token", "Bearer " + valid, nil},
		{"lowercase scheme", "bearer " + valid, nil},
		{"missing header", "", middleware.ErrMissingToken},
		{"wrong scheme", "Basic " + valid, middleware.ErrMissingToken},
		{"empty token", "Bearer ", middleware.ErrMissingToken},
		{"malformed token", "Bearer not-a-jwt", middleware.ErrInvalidToken},
		{"forged signature", "Bearer " + forged, middleware.ErrInvalidToken},
		{"expired token", "Bearer " + expired, middleware.ErrInvalidToken},
		{"unknown user", "Bearer " + unknown, middleware.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			headers := map[string]string{}
			if tt.header != "" {
				headers[echo.HeaderAuthorization] = tt.header
			}
			c, _ := testutil.NewEchoContextWithHeaders(e, http.MethodGet, "/api/budgets", nil, headers)

			var got context.Context
			err := middleware.Authenticate(manager, repo)(capture(&got))(c)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got, "next must not run")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			loaded := auth.GetUser(got)
			require.NotNil(t, loaded)
			assert.Equal(t, user.ID, loaded.ID)
			assert.Equal(t, "ana@example.com", loaded.Email)
		})
	}
}

type failingUsers struct{}

func (failingUsers) GetUserByID(context.Context, int64) (*models.User, error) {
	return nil, &repository.StorageError{Op: "get user", Err: errors.New("disk I/O error")}
}

func TestAuthenticate_StorageFailure(t *testing.T) {
	manager := newManager(t)
	token, err := manager.Issue(1)
	require.NoError(t, err)

	e := echo.New()
	c, _ := testutil.NewEchoContextWithHeaders(e, http.MethodGet, "/", nil, map[string]string{
		echo.HeaderAuthorization: "Bearer " + token,
	})

	var got context.Context
	err = middleware.Authenticate(manager, failingUsers{})(capture(&got))(c)

	var storageErr *repository.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.NotErrorIs(t, err, middleware.ErrInvalidToken)
	assert.Nil(t, got)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		value string
		id    int64
		err   bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			e := echo.New()
			c, _ := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
			c.SetParamNames(middleware.BudgetIDParam)
			c.SetParamValues(tt.value)

			id, err := middleware.ParseID(c, middleware.BudgetIDParam)
			if tt.err {
				assert.ErrorIs(t, err, middleware.ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestLoadBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, user.ID, "Vacaciones", 1000)

	tests := []struct {
		name  string
		param string
		err   error
	}{
		{"existing budget", strconv.FormatInt(budget.ID, 10), nil},
		{"missing budget", "9999", middleware.ErrBudgetNotFound},
		{"invalid id", "abc", middleware.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c, _ := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
			c.SetParamNames(middleware.BudgetIDParam)
			c.SetParamValues(tt.param)

			var got context.Context
			err := middleware.LoadBudget(repo)(capture(&got))(c)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			loaded := auth.GetBudget(got)
			require.NotNil(t, loaded)
			assert.Equal(t, budget.ID, loaded.ID)
			assert.Equal(t, user.ID, loaded.UserID)
		})
	}
}

func TestLoadExpense(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, user.ID, "Vacaciones", 1000)
	expense := testutil.NewTestExpense(t, repo, budget.ID, "Hotel", 300)

	e := echo.New()
	c, _ := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
	c.SetParamNames(middleware.ExpenseIDParam)
	c.SetParamValues(strconv.FormatInt(expense.ID, 10))

	var got context.Context
	require.NoError(t, middleware.LoadExpense(repo)(capture(&got))(c))
	loaded := auth.GetExpense(got)
	require.NotNil(t, loaded)
	assert.Equal(t, budget.ID, loaded.BudgetID)

	c, _ = testutil.NewEchoContext(e, http.MethodGet, "/", nil)
	c.SetParamNames(middleware.ExpenseIDParam)
	c.SetParamValues("9999")
	assert.ErrorIs(t, middleware.LoadExpense(repo)(capture(&got))(c), middleware.ErrExpenseNotFound)
}

func TestCheckOwnership(t *testing.T) {
	assert.ErrorIs(t, middleware.CheckOwnership(1, 2), middleware.ErrForbidden)
	assert.NoError(t, middleware.CheckOwnership(1, 1))
}

func TestRequireOwnership(t *testing.T) {
	owner := &models.User{ID: 1}
	stranger := &models.User{ID: 2}
	budget := &models.Budget{ID: 10, UserID: owner.ID}
	inBudget := &models.Expense{ID: 100, BudgetID: 10}
	elsewhere := &models.Expense{ID: 101, BudgetID: 11}

	tests := []struct {
		name string
		rule middleware.OwnershipRule
		ctx  func(context.Context) context.Context
		err  error
	}{
		{
			name: "budget owner",
			rule: middleware.BudgetOwnedByCaller,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithBudget(auth.WithUser(ctx, owner), budget)
			},
		},
		{
			name: "budget stranger",
			rule: middleware.BudgetOwnedByCaller,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithBudget(auth.WithUser(ctx, stranger), budget)
			},
			err: middleware.ErrForbidden,
		},
		{
			name: "budget without user",
			rule: middleware.BudgetOwnedByCaller,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithBudget(ctx, budget)
			},
			err: middleware.ErrForbidden,
		},
		{
			name: "user without budget",
			rule: middleware.BudgetOwnedByCaller,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithUser(ctx, owner)
			},
			err: middleware.ErrForbidden,
		},
		{
			name: "expense in budget",
			rule: middleware.ExpenseInBudget,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithExpense(auth.WithBudget(ctx, budget), inBudget)
			},
		},
		{
			name: "expense in other budget",
			rule: middleware.ExpenseInBudget,
			ctx: func(ctx context.Context) context.Context {
				return auth.WithExpense(auth.WithBudget(ctx, budget), elsewhere)
			},
			err: middleware.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c, rec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
			c.SetRequest(c.Request().WithContext(tt.ctx(c.Request().Context())))

			var got context.Context
			err := middleware.RequireOwnership(tt.rule)(capture(&got))(c)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestLocale(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "es"},
		{"en-US,en;q=0.9", "en"},
		{"es-MX", "es"},
		{"fr-FR", "es"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			e := echo.New()
			c, _ := testutil.NewEchoContextWithHeaders(e, http.MethodGet, "/", nil, map[string]string{
				"Accept-Language": tt.header,
			})

			var got context.Context
			require.NoError(t, middleware.Locale()(capture(&got))(c))
			assert.Equal(t, tt.want, i18n.GetLocale(got))
		})
	}
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	limit := middleware.RateLimit(middleware.NewMemoryStore(2))
	handler := limit(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(ip string) error {
		c, _ := testutil.NewEchoContextWithHeaders(e, http.MethodPost, "/api/auth/login", nil, map[string]string{
			echo.HeaderXRealIP: ip,
		})
		return handler(c)
	}

	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))
	assert.ErrorIs(t, call("10.0.0.1"), middleware.ErrRateLimited)
	assert.NoError(t, call("10.0.0.2"), "limits are per client")
}
