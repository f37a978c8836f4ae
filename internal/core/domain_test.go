package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2025-03-31")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-31" {
		t.Fatalf("String() = %q", d.String())
	}
	if got := d.AddDays(1).String(); got != "2025-04-01" {
		t.Fatalf("AddDays(1) = %q", got)
	}
	if got := d.FirstOfMonth().String(); got != "2025-03-01" {
		t.Fatalf("FirstOfMonth() = %q", got)
	}
	if got := NewDate(2025, 3, 1).DaysUntil(NewDate(2025, 3, 31)); got != 30 {
		t.Fatalf("DaysUntil = %d", got)
	}
	if _, err := ParseDate("31/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	late := time.Date(2025, 3, 31, 23, 59, 0, 0, time.FixedZone("BRT", -3*3600))
	if got := DateOf(late).String(); got != "2025-03-31" {
		t.Fatalf("DateOf kept local calendar day, got %q", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Description: "Mercado",
		Amount:      Money{Cents: 100},
		Type:        Expense,
		Category:    "Alimentação",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	installment := good
	installment.Installment = true
	installment.InstallmentLabel = "3x"
	if err := installment.Validate(); err != nil {
		t.Fatalf("installment expected ok, got %v", err)
	}

	mutate := func(f func(*Transaction)) Transaction {
		tx := good
		f(&tx)
		return tx
	}
	bads := []struct {
		tx   Transaction
		want error
	}{
		{mutate(func(tx *Transaction) { tx.Description = "  " }), ErrEmptyDescription},
		{mutate(func(tx *Transaction) { tx.Description = strings.Repeat("a", 201) }), ErrDescriptionTooLong},
		{mutate(func(tx *Transaction) { tx.Amount = Money{} }), ErrInvalidAmount},
		{mutate(func(tx *Transaction) { tx.Type = "transfer" }), ErrInvalidType},
		{mutate(func(tx *Transaction) { tx.Category = "" }), ErrEmptyCategory},
		{mutate(func(tx *Transaction) { tx.Installment = true }), ErrInvalidLabel},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: err = %v, want %v", i, err, tc.want)
		}
	}
	if err := mutate(func(tx *Transaction) { tx.Date = Date{} }).Validate(); err == nil {
		t.Fatalf("zero date should fail")
	}
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Type: Income, Amount: Money{Cents: 500}}
	out := Transaction{Type: Expense, Amount: Money{Cents: 500}}
	if in.Signed().Cents != 500 || out.Signed().Cents != -500 {
		t.Fatalf("Signed() = %d / %d", in.Signed().Cents, out.Signed().Cents)
	}
}

func TestCategoryValidateAndDefaults(t *testing.T) {
	c := Category{Name: "Pets", Budget: Money{Cents: 10000}}.WithDefaults()
	if c.Color != DefaultCategoryColor || c.Icon != DefaultCategoryIcon {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	c.Color = "green"
	if err := c.Validate(); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
	c.Color = "#00ff00"
	c.Budget = Money{}
	if err := c.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	for _, dc := range DefaultCategories {
		if err := dc.Validate(); err != nil {
			t.Fatalf("default category %q invalid: %v", dc.Name, err)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	g := Goal{Name: "Viagem", Target: Money{Cents: 500000}, Deadline: NewDate(2026, 12, 1)}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	g.Deadline = Date{}
	if err := g.Validate(); !errors.Is(err, ErrInvalidDeadline) {
		t.Fatalf("expected ErrInvalidDeadline, got %v", err)
	}
	g.Deadline = NewDate(2026, 12, 1)
	g.Name = ""
	if err := g.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestUserDisplayName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{Name: "Ana Souza", Email: "ana@example.com"}, "Ana Souza"},
		{User{Email: "joao.silva@example.com"}, "Joao.silva"},
		{User{Email: "élis@example.com"}, "Élis"},
		{User{}, ""},
	}
	for _, tc := range cases {
		if got := tc.user.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}
