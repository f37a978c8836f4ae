package finance

import "eixo/internal/core"

type CategorySpend struct {
	Category    core.Category `json:"category"`
	Spent       core.Money    `json:"spent"`
	Remaining   core.Money    `json:"remaining"`
	PercentUsed float64       `json:"percent_used"`
	Overspent   bool          `json:"overspent"`
}

// Attributed reports whether tx counts towards cat. Transactions carrying a
// category id match on id only; older records without one fall back to an
// exact name match.
func Attributed(tx core.Transaction, cat core.Category) bool {
	if tx.Type != core.Expense {
		return false
	}
	if tx.CategoryID != "" {
		return tx.CategoryID == cat.ID
	}
	return tx.Category == cat.Name
}

// Spent sums the expense amounts attributed to cat.
func Spent(cat core.Category, txs []core.Transaction) core.Money {
	var m core.Money
	for _, tx := range txs {
		if Attributed(tx, cat) {
			m.Cents += tx.Amount.Cents
		}
	}
	return m
}

// BudgetRemaining is budget minus spent. Negative values mean overspend.
func BudgetRemaining(budget, spent core.Money) core.Money {
	return budget.Sub(spent)
}

// SpendByCategory returns one entry per category, in input order.
func SpendByCategory(cats []core.Category, txs []core.Transaction) []CategorySpend {
	out := make([]CategorySpend, 0, len(cats))
	for _, cat := range cats {
		spent := Spent(cat, txs)
		remaining := BudgetRemaining(cat.Budget, spent)
		out = append(out, CategorySpend{
			Category:    cat,
			Spent:       spent,
			Remaining:   remaining,
			PercentUsed: Percent(spent.Cents, cat.Budget.Cents),
			Overspent:   remaining.Cents < 0,
		})
	}
	return out
}
