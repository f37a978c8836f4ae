package finance

import "eixo/internal/core"

const OverdueStatus = "Prazo vencido"

type GoalProgress struct {
	Goal      core.Goal  `json:"goal"`
	Percent   float64    `json:"percent"`
	Remaining core.Money `json:"remaining"`
	DaysLeft  int        `json:"days_left"`
	Overdue   bool       `json:"overdue"`
	Status    string     `json:"status,omitempty"`
	Completed bool       `json:"completed"`
}

// Progress derives the display figures of g as of today. Remaining never goes
// below zero once the target is reached.
func Progress(g core.Goal, today core.Date) GoalProgress {
	p := GoalProgress{
		Goal:      g,
		Percent:   Percent(g.Saved.Cents, g.Target.Cents),
		Remaining: g.Target.Sub(g.Saved),
		DaysLeft:  today.DaysUntil(g.Deadline),
		Completed: g.Target.Cents > 0 && g.Saved.Cents >= g.Target.Cents,
	}
	if p.Remaining.Cents < 0 {
		p.Remaining = core.Money{}
	}
	if p.DaysLeft <= 0 {
		p.DaysLeft = 0
		p.Overdue = true
		p.Status = OverdueStatus
	}
	return p
}

// GoalsProgress maps Progress over goals, keeping order.
func GoalsProgress(goals []core.Goal, today core.Date) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, Progress(g, today))
	}
	return out
}

// Contribute returns g with amount added to the saved total. Contributions
// are strictly positive, so saved never decreases.
func Contribute(g core.Goal, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return g, err
	}
	g.Saved = g.Saved.Add(amount)
	return g, nil
}
