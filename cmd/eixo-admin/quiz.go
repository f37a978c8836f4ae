package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eixo/internal/persona"
)

func quizCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <letters>",
		Short: "Score quiz answers without an account",
		Long: `Classify answer letters given in question order, either as separate
arguments (A C B) or as one word (ACB), and print the resulting profile.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := persona.ClassifyLetters(parseLetters(args))
			if err != nil {
				return err
			}
			profile := persona.ProfileOf(p)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persona: %s (%s)\n\n", p, p.Key())
			fmt.Fprintln(out, profile.Headline)
			fmt.Fprintln(out)
			fmt.Fprintln(out, profile.Description)
			fmt.Fprintf(out, "\nPaywall: %s\n", profile.Paywall)
			return nil
		},
	}
}

func parseLetters(args []string) []persona.Letter {
	var letters []persona.Letter
	for _, arg := range args {
		for _, part := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			if len(part) > 1 {
				for _, r := range part {
					letters = append(letters, persona.Letter(string(r)))
				}
				continue
			}
			letters = append(letters, persona.Letter(part))
		}
	}
	return letters
}
