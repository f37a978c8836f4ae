package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"eixo/internal/core"
	"eixo/internal/finance"
)

func parserFor(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	parser := parserFor(t, "application/json", `{"id": "123", "name": " test ", "amount": 42.5, "premium": false}`)

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}
	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
	if v := parser.Get("premium"); v != "false" {
		t.Errorf("Get('premium') = %q, want 'false'", v)
	}
	if !parser.Has("premium") || parser.Has("missing") {
		t.Error("Has() mismatch")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	parser := parserFor(t, "application/x-www-form-urlencoded", "id=456&name=form+test&value=100")

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	parser := parserFor(t, "", "")

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
	if list := parser.GetList("letters"); len(list) != 0 {
		t.Errorf("GetList on empty body = %v", list)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name": `))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// The error sticks.
	if err := p.Parse(); err == nil {
		t.Fatal("expected second Parse to return the same error")
	}
}

func TestRequestBodyParser_GetList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"json array", `{"letters": ["A", "b ", "", "C"]}`, []string{"A", "b", "C"}},
		{"json comma string", `{"letters": "A,B,C"}`, []string{"A", "B", "C"}},
		{"form repeated", "letters=A&letters=B", []string{"A", "B"}},
		{"form comma", "letters=A%2CD%2CE", []string{"A", "D", "E"}},
		{"missing", `{"other": 1}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parserFor(t, "", tt.body).GetList("letters")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetList = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_Typed(t *testing.T) {
	p := parserFor(t, "application/json",
		`{"amount": "1.234,56", "bad": "abc", "zero": 0, "date": "2025-03-15", "baddate": "15/03/2025", "n": 3, "nan": "x"}`)

	m, err := p.Money("amount")
	if err != nil || m.Cents != 123456 {
		t.Errorf("Money(amount) = %v, %v", m, err)
	}
	for _, key := range []string{"bad", "zero", "missing"} {
		if _, err := p.Money(key); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Money(%s) error = %v, want ErrInvalidAmount", key, err)
		}
	}

	d, err := p.Date("date")
	if err != nil || d.String() != "2025-03-15" {
		t.Errorf("Date(date) = %v, %v", d, err)
	}
	if d, err := p.Date("missing"); err != nil || !d.IsZero() {
		t.Errorf("Date(missing) = %v, %v", d, err)
	}
	if _, err := p.Date("baddate"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("Date(baddate) error = %v", err)
	}

	if n, err := p.Int("n"); err != nil || n != 3 {
		t.Errorf("Int(n) = %d, %v", n, err)
	}
	if n, err := p.Int("missing"); err != nil || n != 0 {
		t.Errorf("Int(missing) = %d, %v", n, err)
	}
	if _, err := p.Int("nan"); err == nil {
		t.Error("Int(nan) should fail")
	}
}

func TestRequestBodyParser_GetRawKeepsPassword(t *testing.T) {
	p := parserFor(t, "", `{"password": "  s3nha  "}`)
	if got := p.GetRaw("password"); got != "  s3nha  " {
		t.Errorf("GetRaw = %q", got)
	}
	if got := p.Get("password"); got != "s3nha" {
		t.Errorf("Get = %q", got)
	}
}

func TestParseWindowDays(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 30, false},
		{"days=1", 1, false},
		{"days=7", 7, false},
		{"days=30", 30, false},
		{"days=3", 0, true},
		{"days=abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseWindowDays(q)
			if tt.wantErr {
				if !errors.Is(err, finance.ErrInvalidWindow) {
					t.Errorf("error = %v, want ErrInvalidWindow", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseWindowDays(%q) = %d, %v; want %d", tt.query, got, err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  mercado  ", "mercado"},
		{"a\x00b\x07c", "abc"},
		{"linha\tcom\ttab", "linha\tcom\ttab"},
		{"iFood 🍔", "iFood 🍔"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
