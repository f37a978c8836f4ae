package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"R$ 35,90", 3590, true},
		{"1.234,56", 123456, true},
		{"1,234.56", 123456, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		cents   int64
		fixed   string
		decimal string
		str     string
	}{
		{150000, "1500.00", "1500", "R$ 1500.00"},
		{1250, "12.50", "12.5", "R$ 12.50"},
		{1, "0.01", "0.01", "R$ 0.01"},
		{-5000, "-50.00", "-50", "R$ -50.00"},
		{0, "0.00", "0", "R$ 0.00"},
	}
	for _, tc := range cases {
		m := Money{Cents: tc.cents}
		if m.Fixed() != tc.fixed {
			t.Errorf("Fixed(%d) = %q, want %q", tc.cents, m.Fixed(), tc.fixed)
		}
		if m.Decimal() != tc.decimal {
			t.Errorf("Decimal(%d) = %q, want %q", tc.cents, m.Decimal(), tc.decimal)
		}
		if m.String() != tc.str {
			t.Errorf("String(%d) = %q, want %q", tc.cents, m.String(), tc.str)
		}
	}
}
