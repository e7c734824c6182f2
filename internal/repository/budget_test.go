// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBudgetsByUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password")
	bob := testutil.NewTestUser(t, repo, "bob@example.com", "password")

	first := testutil.NewTestBudget(t, repo, ana.ID, "Groceries", 300)
	second := testutil.NewTestBudget(t, repo, ana.ID, "Travel", 1200)
	testutil.NewTestBudget(t, repo, bob.ID, "Bob's", 50)

	budgets, err := repo.ListBudgetsByUser(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, second.ID, budgets[0].ID)
	assert.Equal(t, first.ID, budgets[1].ID)

	empty, err := repo.ListBudgetsByUser(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetBudgetByID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "password")
	created := testutil.NewTestBudget(t, repo, user.ID, "Groceries", 300)

	budget, err := repo.GetBudgetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", budget.Name)
	assert.InDelta(t, 300.0, budget.Amount, 0.001)
	assert.Equal(t, user.ID, budget.UserID)

	_, err = repo.GetBudgetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "password")
	budget := testutil.NewTestBudget(t, repo, user.ID, "Groceries", 300)

	budget.Name = "Food"
	budget.Amount = 450
	require.NoError(t, repo.UpdateBudget(ctx, budget))

	stored, err := repo.GetBudgetByID(ctx, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.Name)
	assert.InDelta(t, 450.0, stored.Amount, 0.001)
}

func TestDeleteBudget_CascadesExpenses(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "password")
	budget := testutil.NewTestBudget(t, repo, user.ID, "Groceries", 300)
	expense := testutil.NewTestExpense(t, repo, budget.ID, "Milk", 3)

	require.NoError(t, repo.DeleteBudget(ctx, budget.ID))

	_, err := repo.GetBudgetByID(ctx, budget.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetExpenseByID(ctx, expense.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
