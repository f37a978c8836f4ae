package persona

import (
	"errors"
	"fmt"
	"strings"
)

// Letter identifies an option within a question (A to E).
type Letter string

type Option struct {
	Letter  Letter  `json:"letter"`
	Text    string  `json:"text"`
	Persona Persona `json:"-"`
}

type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"question"`
	Options []Option `json:"options"`
}

var (
	ErrTooManyAnswers = errors.New("too many answers")
	ErrInvalidLetter  = errors.New("invalid answer letter")
)

// Questions is the fixed onboarding quiz. Each option carries the persona it
// scores for.
var Questions = []Question{
	{
		ID:   1,
		Text: "Quando você pensa em dinheiro hoje, o que sente primeiro?",
		Options: []Option{
			{"A", "Ansiedade", EquilibristaAnsioso},
			{"B", "Cansaço", CansadoDoDinheiro},
			{"C", "Confusão", InvestidorInseguro},
			{"D", "Vontade de fazer certo, mas medo", GastadorConsciente},
			{"E", "Tranquilidade… até a fatura chegar", EquilibristaAnsioso},
		},
	},
	{
		ID:   2,
		Text: "Seu cartão de crédito hoje é mais:",
		Options: []Option{
			{"A", "Um aliado até virar susto", EquilibristaAnsioso},
			{"B", "Algo que evito olhar", CansadoDoDinheiro},
			{"C", "Uma ferramenta que uso, mas não domino", PlanejadorFrustrado},
			{"D", "Algo que uso sem pensar muito", GastadorConsciente},
			{"E", "Algo que me dá dor de cabeça", CansadoDoDinheiro},
		},
	},
	{
		ID:   3,
		Text: "Quando você parcela uma compra:",
		Options: []Option{
			{"A", "Nem lembro que vai cair depois", EquilibristaAnsioso},
			{"B", "Sei que vai cair, mas não sei o impacto", EquilibristaAnsioso},
			{"C", "Tento calcular, mas nunca fica claro", PlanejadorFrustrado},
			{"D", "Só penso no valor da parcela", GastadorConsciente},
			{"E", "Evito parcelar, mas às vezes não dá", CansadoDoDinheiro},
		},
	},
	{
		ID:   4,
		Text: "Qual frase mais parece com você?",
		Options: []Option{
			{"A", "Já tentei me organizar várias vezes", PlanejadorFrustrado},
			{"B", "Começo animado e abandono", PlanejadorFrustrado},
			{"C", "Tenho planilha/app, mas quase não uso", InvestidorInseguro},
			{"D", "Nunca organizei de verdade", GastadorConsciente},
			{"E", "Pensar em dinheiro me esgota", CansadoDoDinheiro},
		},
	},
	{
		ID:   5,
		Text: "Sobre investir:",
		Options: []Option{
			{"A", "Já invisto, mas não sei se estou indo bem", InvestidorInseguro},
			{"B", "Quero investir, mas me sinto atrasado", InvestidorInseguro},
			{"C", "Invisto, mas não acompanho", PlanejadorFrustrado},
			{"D", "Ainda não invisto", GastadorConsciente},
			{"E", "Invisto e isso me deixa ansioso", EquilibristaAnsioso},
		},
	},
	{
		ID:   6,
		Text: "Ao pensar numa compra média (R$300–800):",
		Options: []Option{
			{"A", "Compro e penso depois", GastadorConsciente},
			{"B", "Penso muito e mesmo assim não sei", EquilibristaAnsioso},
			{"C", "Compro com culpa", EquilibristaAnsioso},
			{"D", "Evito por medo", CansadoDoDinheiro},
			{"E", "Compro e torço pra dar certo", PlanejadorFrustrado},
		},
	},
	{
		ID:   7,
		Text: "Você tem metas financeiras hoje?",
		Options: []Option{
			{"A", "Tenho, mas atraso", PlanejadorFrustrado},
			{"B", "Tenho, mas não acompanho", PlanejadorFrustrado},
			{"C", "Tenho ideias soltas", InvestidorInseguro},
			{"D", "Não tenho", GastadorConsciente},
			{"E", "Tenho, mas me sinto longe", EquilibristaAnsioso},
		},
	},
	{
		ID:   8,
		Text: "O que você mais gostaria de ouvir de um app financeiro?",
		Options: []Option{
			{"A", `"Pode gastar, isso não vai te prejudicar"`, EquilibristaAnsioso},
			{"B", `"Não gasta agora, você vai se agradecer depois"`, GastadorConsciente},
			{"C", `"Você está indo melhor do que imagina"`, InvestidorInseguro},
			{"D", `"Vamos organizar isso sem complicação"`, PlanejadorFrustrado},
			{"E", `"Relaxa, tá tudo sob controle"`, CansadoDoDinheiro},
		},
	},
}

// PersonaFor looks up the persona scored by the given letter on the question
// at index (zero-based).
func PersonaFor(index int, letter Letter) (Persona, error) {
	if index < 0 || index >= len(Questions) {
		return "", fmt.Errorf("%w: question %d", ErrTooManyAnswers, index+1)
	}
	want := Letter(strings.ToUpper(strings.TrimSpace(string(letter))))
	for _, opt := range Questions[index].Options {
		if opt.Letter == want {
			return opt.Persona, nil
		}
	}
	return "", fmt.Errorf("%w: %q on question %d", ErrInvalidLetter, letter, index+1)
}

// ClassifyLetters maps answer letters (in question order) to personas and
// classifies them. Fewer answers than questions are scored as collected.
func ClassifyLetters(letters []Letter) (Persona, error) {
	if len(letters) > len(Questions) {
		return "", fmt.Errorf("%w: got %d, quiz has %d questions", ErrTooManyAnswers, len(letters), len(Questions))
	}
	answers := make([]Persona, 0, len(letters))
	for i, l := range letters {
		p, err := PersonaFor(i, l)
		if err != nil {
			return "", err
		}
		answers = append(answers, p)
	}
	return Classify(answers), nil
}
