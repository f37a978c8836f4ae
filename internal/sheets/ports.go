package sheets

import "context"

// TransactionExporter writes a rendered transaction table to a spreadsheet.
// rows[0] is the header. The returned ref identifies the written tab.
type TransactionExporter interface {
	ExportTransactions(ctx context.Context, title string, rows [][]string) (ref string, err error)
}
