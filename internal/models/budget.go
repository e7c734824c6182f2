// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

type Budget struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Amount    float64   `db:"amount" json:"amount"`
	UserID    int64     `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Expenses  []Expense `db:"-" json:"expenses,omitempty"`
}

// Spent sums the amounts of the loaded expenses.
func (b *Budget) Spent() float64 {
	var total float64
	for _, e := range b.Expenses {
		total += e.Amount
	}
	return total
}
