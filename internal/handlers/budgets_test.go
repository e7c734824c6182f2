// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"codeberg.org/cashtrackr/cashtrackr/internal/handlers"
	"codeberg.org/cashtrackr/cashtrackr/internal/models"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	"codeberg.org/cashtrackr/cashtrackr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBudgets(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	luis := testutil.NewTestUser(t, repo, "luis@example.com", "password123")
	testutil.NewTestBudget(t, repo, ana.ID, "Vacaciones", 1000)
	testutil.NewTestBudget(t, repo, ana.ID, "Comida", 400)
	testutil.NewTestBudget(t, repo, luis.ID, "Ajeno", 50)

	c, rec := newContext(http.MethodGet, "/api/budgets", "", ana)
	call(h.ListBudgets, c)
	require.Equal(t, http.StatusOK, rec.Code)

	var budgets []models.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &budgets))
	require.Len(t, budgets, 2)
	assert.Equal(t, "Comida", budgets[0].Name, "newest first")
	for _, b := range budgets {
		assert.Equal(t, ana.ID, b.UserID)
	}
}

func TestListBudgets_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")

	c, rec := newContext(http.MethodGet, "/api/budgets", "", ana)
	call(h.ListBudgets, c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")

	c, rec := newContext(http.MethodPost, "/api/budgets", `{"name":"Vacaciones","amount":1000}`, ana)
	call(h.CreateBudget, c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Presupuesto creado correctamente", decodeString(t, rec))

	c, rec = newContext(http.MethodPost, "/api/budgets", `{"name":"Comida","amount":"250.5"}`, ana)
	call(h.CreateBudget, c)
	require.Equal(t, http.StatusCreated, rec.Code, "numeric strings are accepted")

	budgets, err := repo.ListBudgetsByUser(context.Background(), ana.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.InDelta(t, 250.5, budgets[0].Amount, 0.001)
}

func TestCreateBudget_Validation(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := &models.User{ID: 1}

	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"missing all", `{}`, map[string]string{
			"name":   "El nombre del presupuesto no puede ir vacío",
			"amount": "La cantidad no puede ir vacía",
		}},
		{"zero amount", `{"name":"X","amount":0}`, map[string]string{
			"amount": "La cantidad debe ser mayor a 0",
		}},
		{"negative amount", `{"name":"X","amount":-5}`, map[string]string{
			"amount": "La cantidad debe ser mayor a 0",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/budgets", tt.body, ana)
			call(h.CreateBudget, c)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeFieldErrors(t, rec))
		})
	}
}

func TestGetBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, ana.ID, "Vacaciones", 1000)
	testutil.NewTestExpense(t, repo, budget.ID, "Hotel", 300)
	testutil.NewTestExpense(t, repo, budget.ID, "Vuelo", 450)

	c, rec := newContext(http.MethodGet, "/", "", ana)
	withBudget(c, budget)
	call(h.GetBudget, c)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, budget.ID, got.ID)
	require.Len(t, got.Expenses, 2)
	assert.InDelta(t, 750, got.Spent(), 0.001)
	assert.Nil(t, budget.Expenses, "context budget is not mutated")
}

func TestUpdateBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, ana.ID, "Vacaciones", 1000)

	c, rec := newContext(http.MethodPut, "/", `{"name":"Viaje","amount":1500}`, ana)
	withBudget(c, budget)
	call(h.UpdateBudget, c)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := repo.GetBudgetByID(context.Background(), budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Viaje", got.Name)
	assert.InDelta(t, 1500, got.Amount, 0.001)
}

func TestDeleteBudget(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, ana.ID, "Vacaciones", 1000)
	expense := testutil.NewTestExpense(t, repo, budget.ID, "Hotel", 300)

	c, rec := newContext(http.MethodDelete, "/", "", ana)
	withBudget(c, budget)
	call(h.DeleteBudget, c)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := repo.GetBudgetByID(context.Background(), budget.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetExpenseByID(context.Background(), expense.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "expenses cascade")

	c, rec = newContext(http.MethodDelete, "/", "", ana)
	withBudget(c, budget)
	call(h.DeleteBudget, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenses(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := handlers.New(repo)
	ana := testutil.NewTestUser(t, repo, "ana@example.com", "password123")
	budget := testutil.NewTestBudget(t, repo, ana.ID, "Vacaciones", 1000)

	c, rec := newContext(http.MethodPost, "/", `{"name":"Hotel","amount":300}`, ana)
	withBudget(c, budget)
	call(h.CreateExpense, c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Gasto agregado correctamente", decodeString(t, rec))

	expenses, err := repo.ListExpensesByBudget(context.Background(), budget.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	expense := &expenses[0]

	c, rec = newContext(http.MethodGet, "/", "", ana)
	withBudget(c, budget)
	withExpense(c, expense)
	call(h.GetExpense, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Hotel"`)

	c, rec = newContext(http.MethodPut, "/", `{"name":"Hostal","amount":120}`, ana)
	withBudget(c, budget)
	withExpense(c, expense)
	call(h.UpdateExpense, c)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := repo.GetExpenseByID(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hostal", got.Name)

	c, rec = newContext(http.MethodPut, "/", `{"name":"","amount":120}`, ana)
	withBudget(c, budget)
	withExpense(c, expense)
	call(h.UpdateExpense, c)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"name": "El nombre del gasto no puede ir vacío"}, decodeFieldErrors(t, rec))

	c, rec = newContext(http.MethodDelete, "/", "", ana)
	withBudget(c, budget)
	withExpense(c, expense)
	call(h.DeleteExpense, c)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = repo.GetExpenseByID(context.Background(), expense.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
