package finance

import (
	"errors"
	"sort"

	"eixo/internal/core"
)

// Statement windows offered to the user, in days.
var Windows = []int{1, 7, 30}

var ErrInvalidWindow = errors.New("invalid statement window")

// ValidWindow reports whether days is one of Windows.
func ValidWindow(days int) bool {
	for _, w := range Windows {
		if w == days {
			return true
		}
	}
	return false
}

// InWindow reports whether d falls in [today-(days-1), today]. Both sides are
// calendar days so the time of day never matters.
func InWindow(d core.Date, days int, today core.Date) bool {
	if days < 1 {
		return false
	}
	start := today.AddDays(-(days - 1))
	return !d.Before(start.Time) && !d.After(today.Time)
}

// FilterWindow returns the transactions dated within the last days calendar
// days, today included, keeping input order.
func FilterWindow(txs []core.Transaction, days int, today core.Date) ([]core.Transaction, error) {
	if days < 1 {
		return nil, ErrInvalidWindow
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if InWindow(tx.Date, days, today) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type Statement struct {
	Days         int                `json:"days"`
	From         string             `json:"from"`
	To           string             `json:"to"`
	Totals       Totals             `json:"totals"`
	Transactions []core.Transaction `json:"transactions"`
}

// BuildStatement filters txs to the window and totals the result. Entries
// come back newest first.
func BuildStatement(txs []core.Transaction, days int, today core.Date) (Statement, error) {
	in, err := FilterWindow(txs, days, today)
	if err != nil {
		return Statement{}, err
	}
	SortNewestFirst(in)
	return Statement{
		Days:         days,
		From:         today.AddDays(-(days - 1)).String(),
		To:           today.String(),
		Totals:       ComputeTotals(in),
		Transactions: in,
	}, nil
}

// SortNewestFirst orders by date descending, then creation time descending.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// Recent returns up to n transactions, newest first, without touching txs.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	cp := make([]core.Transaction, len(txs))
	copy(cp, txs)
	SortNewestFirst(cp)
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
