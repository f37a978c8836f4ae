package finance

import "eixo/internal/core"

// RecentCount is how many transactions the dashboard lists.
const RecentCount = 5

type Dashboard struct {
	Totals     Totals             `json:"totals"`
	Month      MonthComparison    `json:"month"`
	CashFlow   []CashFlowPoint    `json:"cash_flow"`
	Categories []CategorySpend    `json:"categories"`
	Delivery   DeliveryInsight    `json:"delivery"`
	Goals      []GoalProgress     `json:"goals"`
	Recent     []core.Transaction `json:"recent"`
}

// BuildDashboard recomputes every dashboard figure from s.
func BuildDashboard(s Snapshot, today core.Date) Dashboard {
	return Dashboard{
		Totals:     ComputeTotals(s.Transactions),
		Month:      CompareMonths(s.Transactions, today),
		CashFlow:   CashFlow(s.Transactions, today, CashFlowMonths),
		Categories: SpendByCategory(s.Categories, s.Transactions),
		Delivery:   Delivery(s.Transactions),
		Goals:      GoalsProgress(s.Goals, today),
		Recent:     Recent(s.Transactions, RecentCount),
	}
}
