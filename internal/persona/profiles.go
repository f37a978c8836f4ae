package persona

// Profile is the copy shown for a persona on the result page and the paywall.
type Profile struct {
	Persona     Persona `json:"persona"`
	Key         string  `json:"key"`
	Headline    string  `json:"headline"`
	Text        string  `json:"text"`
	Description string  `json:"description"`
	Paywall     string  `json:"paywall"`
}

var profiles = map[Persona]Profile{
	EquilibristaAnsioso: {
		Headline:    "Você não gasta demais.\nVocê decide sem clareza.",
		Text:        "Parcelamentos invisíveis, metas que nunca chegam e aquela dúvida antes de gastar.\nNão é falta de disciplina.\nÉ falta de visão.",
		Description: "Você trabalha, ganha dinheiro e usa cartão parcelado. Mas vive com medo de errar. A ansiedade antes de gastar não é frescura, é falta de visão do impacto real.",
		Paywall:     "Decida sem ansiedade: com o Premium você consulta o \"Posso comprar?\" quantas vezes precisar.",
	},
	PlanejadorFrustrado: {
		Headline:    "Você não falha.\nO método falha.",
		Text:        "Controle financeiro nunca deveria parecer um segundo emprego.",
		Description: "Você já tentou planilha, app, anotação. Começa animado e abandona. Não é falta de disciplina, é cansaço mental. O Eixo não exige esforço. Ele centraliza.",
		Paywall:     "Metas ilimitadas e exportação completa: o Premium faz o método trabalhar por você.",
	},
	InvestidorInseguro: {
		Headline:    "Investir sem clareza\né ansiedade disfarçada.",
		Text:        "Você já deu o primeiro passo. Mas investir sem saber se pode, se está indo bem ou se deveria fazer diferente é ansiedade disfarçada de planejamento.\n\nO Eixo centraliza tudo: quanto você tem, quanto está comprometido, quanto pode investir de verdade, sem culpa, sem comparação.",
		Description: "Você já investe ou quer investir. Mas se compara muito e duvida constantemente. Falta clareza patrimonial. O Eixo mostra o todo, não só as partes.",
		Paywall:     "Veja o todo: histórico completo de decisões e metas sem limite no Premium.",
	},
	GastadorConsciente: {
		Headline:    "Você quer fazer certo.\nSó precisa de apoio na hora H.",
		Text:        "Você não é impulsivo por natureza. Você só não tem clareza suficiente no momento da decisão.\n\nO Eixo te mostra o impacto antes do clique.",
		Description: "Você quer fazer certo. Mas compra por impulso e se arrepende depois. Não é falta de vontade, é decisão no calor do momento. O Eixo te apoia na hora H.",
		Paywall:     "Apoio na hora H, sempre: análises \"Posso comprar?\" ilimitadas no Premium.",
	},
	CansadoDoDinheiro: {
		Headline:    "Dinheiro não precisa morar na sua cabeça.",
		Text:        "Você trabalha, ganha, paga contas, mas pensar em dinheiro virou peso. O Eixo centraliza tudo pra você parar de carregar isso sozinho.",
		Description: "Você trabalha muito. Dinheiro virou peso emocional. Quer parar de pensar nisso. O Eixo assume a carga mental pra você respirar.",
		Paywall:     "Deixe o Eixo carregar o peso: tudo liberado no Premium.",
	},
}

// ProfileOf returns the static copy for p, falling back to Default for
// unknown values.
func ProfileOf(p Persona) Profile {
	if !p.Valid() {
		p = Default
	}
	prof := profiles[p]
	prof.Persona = p
	prof.Key = p.Key()
	return prof
}
