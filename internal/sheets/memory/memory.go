// Package memory is a TransactionExporter that keeps exports in process. It
// stands in for Google Sheets when no credentials are configured.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Export struct {
	Title string
	Rows  [][]string
}

type Exporter struct {
	mu      sync.Mutex
	exports []Export
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportTransactions(_ context.Context, title string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", errors.New("nothing to export")
	}
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports = append(e.exports, Export{Title: title, Rows: cp})
	return fmt.Sprintf("mem:%d", len(e.exports)), nil
}

// Exports returns what has been written so far, oldest first.
func (e *Exporter) Exports() []Export {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Export(nil), e.exports...)
}
