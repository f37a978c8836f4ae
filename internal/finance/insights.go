package finance

import (
	"strings"

	"eixo/internal/core"
)

const deliveryKeyword = "ifood"

type DeliveryInsight struct {
	Count           int        `json:"count"`
	Spent           core.Money `json:"spent"`
	PotentialSaving core.Money `json:"potential_saving"`
}

// Delivery sums expenses whose description mentions the delivery app. The
// potential saving assumes cutting 60% of that spend.
func Delivery(txs []core.Transaction) DeliveryInsight {
	var d DeliveryInsight
	for _, tx := range txs {
		if tx.Type != core.Expense || !strings.Contains(strings.ToLower(tx.Description), deliveryKeyword) {
			continue
		}
		d.Count++
		d.Spent = d.Spent.Add(tx.Amount)
	}
	d.PotentialSaving = core.Money{Cents: d.Spent.Cents * 6 / 10}
	return d
}
