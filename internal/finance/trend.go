package finance

import (
	"math"

	"eixo/internal/core"
)

// CashFlowMonths is the length of the dashboard cash-flow series.
const CashFlowMonths = 6

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

type MonthComparison struct {
	Current  core.Money `json:"current"`
	Previous core.Money `json:"previous"`
	// HasPrior is false when the previous month had no activity; Percent and
	// Positive are then meaningless and left zero.
	HasPrior bool    `json:"has_prior"`
	Percent  float64 `json:"percent"`
	Positive bool    `json:"positive"`
}

type CashFlowPoint struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Label   string     `json:"label"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// CompareMonths compares the balance of the current month (day 1 to today)
// with the full previous calendar month.
func CompareMonths(txs []core.Transaction, today core.Date) MonthComparison {
	first := today.FirstOfMonth()
	prevFirst := core.Date{Time: first.AddDate(0, -1, 0)}

	var cmp MonthComparison
	prevActivity := false
	for _, tx := range txs {
		switch {
		case tx.Date.SameMonth(first) && !tx.Date.After(today.Time):
			cmp.Current = cmp.Current.Add(tx.Signed())
		case tx.Date.SameMonth(prevFirst):
			cmp.Previous = cmp.Previous.Add(tx.Signed())
			prevActivity = true
		}
	}
	if !prevActivity {
		return cmp
	}

	if cmp.Previous.IsZero() {
		// Activity that nets to zero has no meaningful base; only a
		// positive current balance reads as growth.
		if cmp.Current.Cents > 0 {
			cmp.HasPrior = true
			cmp.Percent = 100
			cmp.Positive = true
		}
		return cmp
	}

	diff := math.Abs(float64(cmp.Current.Cents - cmp.Previous.Cents))
	base := math.Abs(float64(cmp.Previous.Cents))
	cmp.HasPrior = true
	cmp.Percent = round1(diff / base * 100)
	cmp.Positive = cmp.Current.Cents >= cmp.Previous.Cents
	return cmp
}

// CashFlow returns income and expense sums for the trailing months calendar
// months ending with today's month, oldest first.
func CashFlow(txs []core.Transaction, today core.Date, months int) []CashFlowPoint {
	if months < 1 {
		return []CashFlowPoint{}
	}
	first := today.FirstOfMonth()
	points := make([]CashFlowPoint, months)
	for i := range points {
		m := first.AddDate(0, -(months - 1 - i), 0)
		points[i] = CashFlowPoint{
			Year:  m.Year(),
			Month: int(m.Month()),
			Label: monthLabels[m.Month()-1],
		}
	}
	for _, tx := range txs {
		for i := range points {
			p := &points[i]
			if tx.Date.Year() != p.Year || int(tx.Date.Month()) != p.Month {
				continue
			}
			switch tx.Type {
			case core.Income:
				p.Income = p.Income.Add(tx.Amount)
			case core.Expense:
				p.Expense = p.Expense.Add(tx.Amount)
			}
			break
		}
	}
	return points
}
