package finance

import (
	"fmt"
	"sort"
	"time"

	"eixo/internal/core"
)

// Verdict is the outcome of an affordability check.
type Verdict struct {
	Verdict     core.Verdict `json:"verdict"`
	Balance     core.Money   `json:"balance"`
	After       core.Money   `json:"after"`
	Explanation string       `json:"explanation"`
}

func (v Verdict) Yes() bool { return v.Verdict == core.VerdictYes }

// Afford decides whether a purchase of amount fits the all-time balance. The
// answer is yes only when the balance covers the amount and what is left stays
// strictly above 10% of total income.
func Afford(txs []core.Transaction, amount core.Money) Verdict {
	t := ComputeTotals(txs)
	after := t.Balance.Sub(amount)
	v := Verdict{Balance: t.Balance, After: after}

	// after > income*0.10, kept in integer cents
	if t.Balance.Cents >= amount.Cents && after.Cents*10 > t.Income.Cents {
		v.Verdict = core.VerdictYes
		v.Explanation = fmt.Sprintf("Sim! Você pode fazer essa compra. Após a compra, você ainda terá %s disponível.", after)
		return v
	}
	v.Verdict = core.VerdictNo
	v.Explanation = fmt.Sprintf("Não recomendamos. Essa compra comprometeria muito seu saldo atual de %s.", t.Balance)
	return v
}

// HistoryView is the affordability history as one user may see it.
type HistoryView struct {
	Entries []core.AffordabilityQuery `json:"entries"`
	Locked  bool                      `json:"locked"`
	Hidden  int                       `json:"hidden"`
}

// VisibleHistory returns the full history, newest first, for premium users.
// Free users see no entries, only how many are locked away.
func VisibleHistory(premium bool, history []core.AffordabilityQuery) HistoryView {
	if !premium {
		return HistoryView{Entries: []core.AffordabilityQuery{}, Locked: len(history) > 0, Hidden: len(history)}
	}
	cp := make([]core.AffordabilityQuery, len(history))
	copy(cp, history)
	SortHistoryNewestFirst(cp)
	return HistoryView{Entries: cp}
}

func SortHistoryNewestFirst(h []core.AffordabilityQuery) {
	sort.SliceStable(h, func(i, j int) bool {
		return h[i].CreatedAt.After(h[j].CreatedAt)
	})
}

// CountOn returns how many queries were made on day, as seen in loc.
func CountOn(history []core.AffordabilityQuery, day core.Date, loc *time.Location) int {
	n := 0
	for _, q := range history {
		if core.DateOf(q.CreatedAt.In(loc)).Equal(day.Time) {
			n++
		}
	}
	return n
}
