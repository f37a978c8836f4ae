// Package finance derives every summary figure shown to the user from the
// loaded transactions, categories and goals. All functions are pure: they
// never mutate their inputs and return zero values for empty input.
package finance

import (
	"math"

	"eixo/internal/core"
)

// Snapshot is everything loaded for one user at a point in time.
type Snapshot struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Goals        []core.Goal
	History      []core.AffordabilityQuery
}

type Totals struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
	// SavingsRate is Balance/Income as a percentage with one decimal, 0
	// without income.
	SavingsRate float64 `json:"savings_rate"`
}

// ComputeTotals sums income and expense amounts over txs.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income.Cents += tx.Amount.Cents
		case core.Expense:
			t.Expense.Cents += tx.Amount.Cents
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	t.SavingsRate = Percent(t.Balance.Cents, t.Income.Cents)
	return t
}

// Percent returns part/whole*100 rounded to one decimal, or 0 when whole is 0.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
