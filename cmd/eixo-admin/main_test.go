package main

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"eixo/internal/persona"
)

func TestParseLetters(t *testing.T) {
	tests := []struct {
		args []string
		want []persona.Letter
	}{
		{[]string{"A", "C", "B"}, []persona.Letter{"A", "C", "B"}},
		{[]string{"ACB"}, []persona.Letter{"A", "C", "B"}},
		{[]string{"A,C", "b"}, []persona.Letter{"A", "C", "b"}},
	}
	for _, tt := range tests {
		if got := parseLetters(tt.args); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseLetters(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestQuizCommand(t *testing.T) {
	letters := "CCCCCCCC"
	want, err := persona.ClassifyLetters(parseLetters([]string{letters}))
	if err != nil {
		t.Fatalf("ClassifyLetters: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"quiz", letters})
	if err := root.Execute(); err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if !strings.Contains(out.String(), "Persona: "+string(want)) {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), persona.ProfileOf(want).Paywall) {
		t.Error("paywall copy missing")
	}
}

func TestQuizCommandRejectsUnknownLetter(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"quiz", "Z"})
	if err := root.Execute(); !errors.Is(err, persona.ErrInvalidLetter) {
		t.Errorf("error = %v, want ErrInvalidLetter", err)
	}
}
