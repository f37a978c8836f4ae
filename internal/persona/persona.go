// Package persona scores the onboarding quiz and maps the result to one of
// the five fixed behavioral personas.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// Persona is one of the fixed behavioral archetypes. The value is the
// display name, which is also what gets persisted on the user record.
type Persona string

const (
	EquilibristaAnsioso Persona = "Equilibrista Ansioso"
	PlanejadorFrustrado Persona = "Planejador Frustrado"
	InvestidorInseguro  Persona = "Investidor Inseguro"
	GastadorConsciente  Persona = "Gastador Consciente"
	CansadoDoDinheiro   Persona = "Cansado do Dinheiro"
)

// Default is assigned when no quiz result is available.
const Default = EquilibristaAnsioso

// Priority is the tie-break order: the first persona in this list whose score
// equals the maximum wins.
var Priority = []Persona{
	EquilibristaAnsioso,
	PlanejadorFrustrado,
	InvestidorInseguro,
	GastadorConsciente,
	CansadoDoDinheiro,
}

var keys = map[Persona]string{
	EquilibristaAnsioso: "equilibrista",
	PlanejadorFrustrado: "planejador",
	InvestidorInseguro:  "investidor",
	GastadorConsciente:  "gastador",
	CansadoDoDinheiro:   "cansado",
}

var ErrUnknownPersona = errors.New("unknown persona")

// Valid reports whether p is one of the five personas.
func (p Persona) Valid() bool {
	_, ok := keys[p]
	return ok
}

// Key returns the short slug used in URLs ("equilibrista", "planejador"...).
func (p Persona) Key() string {
	return keys[p]
}

func (p Persona) String() string {
	return string(p)
}

// Parse accepts either the display name or the short key, case-insensitive.
func Parse(s string) (Persona, error) {
	s = strings.TrimSpace(s)
	for p, key := range keys {
		if strings.EqualFold(s, key) || strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

// Scores tallies one point per answer for the persona it is labelled with.
// Answers carrying an unknown persona are ignored.
func Scores(answers []Persona) map[Persona]int {
	scores := make(map[Persona]int, len(Priority))
	for _, p := range Priority {
		scores[p] = 0
	}
	for _, a := range answers {
		if _, ok := scores[a]; ok {
			scores[a]++
		}
	}
	return scores
}

// Classify returns the persona with the highest score, breaking ties with
// Priority. Any number of answers is accepted; with none, every score is zero
// and the first priority entry wins.
func Classify(answers []Persona) Persona {
	scores := Scores(answers)

	max := 0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	for _, p := range Priority {
		if scores[p] == max {
			return p
		}
	}
	return Default
}
