package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"eixo/internal/core"
)

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		{Description: "Salário", Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Salário", Date: core.NewDate(2025, 3, 5)},
		{Description: "Pizza", Amount: core.Money{Cents: 4590}, Type: core.Expense, Category: "Alimentação", Date: core.NewDate(2025, 3, 10)},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"Data,Descrição,Tipo,Categoria,Valor",
		"2025-03-05,Salário,receita,Salário,5000",
		"2025-03-10,Pizza,despesa,Alimentação,45.9",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteCSV_QuotesFreeText(t *testing.T) {
	txs := []core.Transaction{{
		Description: `Jantar, "especial"`,
		Amount:      core.Money{Cents: 12000},
		Type:        core.Expense,
		Category:    "Lazer, fim de semana",
		Date:        core.NewDate(2025, 3, 1),
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 || len(records[1]) != len(Header) {
		t.Fatalf("unexpected records: %q", records)
	}
	if records[1][1] != `Jantar, "especial"` || records[1][3] != "Lazer, fim de semana" {
		t.Errorf("free text not preserved: %q", records[1])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Data,Descrição,Tipo,Categoria,Valor\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(core.NewDate(2025, 3, 10)); got != "eixo-transacoes-2025-03-10.csv" {
		t.Errorf("Filename = %q", got)
	}
}
