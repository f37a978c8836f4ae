// Package export serializes transaction lists for download and spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"eixo/internal/core"
)

// Header is the fixed column order of every export.
var Header = []string{"Data", "Descrição", "Tipo", "Categoria", "Valor"}

// Row renders one transaction in Header order. Valor is the plain decimal
// amount without currency symbol.
func Row(tx core.Transaction) []string {
	return []string{
		tx.Date.String(),
		tx.Description,
		string(tx.Type),
		tx.Category,
		tx.Amount.Decimal(),
	}
}

// Rows returns the header followed by one row per transaction, in input order.
func Rows(txs []core.Transaction) [][]string {
	out := make([][]string, 0, len(txs)+1)
	out = append(out, Header)
	for _, tx := range txs {
		out = append(out, Row(tx))
	}
	return out
}

// WriteCSV writes txs as CSV with standard quoting of free-text fields.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(txs)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Filename is the suggested download name for an export made on day.
func Filename(day core.Date) string {
	return "eixo-transacoes-" + day.String() + ".csv"
}
