package http

import (
	"errors"
	"net/http"
	"strings"

	"eixo/internal/core"
	"eixo/internal/finance"
	"eixo/internal/services"
	"eixo/internal/session"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	d, err := s.finance.Dashboard(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, d)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	txs, err := s.finance.ListTransactions(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, map[string]interface{}{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, err := p.Money("amount")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := p.Date("date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	installments, err := p.Int("installments")
	if err != nil {
		s.writeError(w, r, core.ErrInvalidLabel)
		return
	}

	tx, err := s.finance.AddTransaction(r.Context(), sess.UserID, services.TransactionInput{
		Description:  p.Get("description"),
		Amount:       amount,
		Type:         core.TransactionType(strings.ToLower(p.Get("type"))),
		CategoryID:   p.Get("category_id"),
		Date:         date,
		Installments: installments,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.transactionsCreated.Inc()
	Created(w, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.finance.DeleteTransaction(r.Context(), sess.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	days, err := ParseWindowDays(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.finance.Statement(r.Context(), sess.UserID, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, st)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	cats, err := s.finance.Categories(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, map[string]interface{}{"categories": cats})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	budget, err := p.Money("budget")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.finance.AddCategory(r.Context(), sess.UserID, services.CategoryInput{
		Name:   p.Get("name"),
		Color:  p.Get("color"),
		Icon:   p.Get("icon"),
		Budget: budget,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Created(w, c)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	budget, err := p.Money("budget")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.finance.UpdateCategoryBudget(r.Context(), sess.UserID, r.PathValue("id"), budget); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.finance.DeleteCategory(r.Context(), sess.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	goals, err := s.finance.Goals(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, map[string]interface{}{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	target, err := p.Money("target")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deadline, err := p.Date("deadline")
	if err != nil {
		s.writeError(w, r, core.ErrInvalidDeadline)
		return
	}
	g, err := s.finance.AddGoal(r.Context(), sess, services.GoalInput{
		Name:     p.Get("name"),
		Target:   target,
		Deadline: deadline,
	})
	if err != nil {
		s.writeGated(w, r, sess, "goals", err)
		return
	}
	Created(w, g)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, err := p.Money("amount")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.finance.Contribute(r.Context(), sess.UserID, r.PathValue("id"), amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.finance.DeleteGoal(r.Context(), sess.UserID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, err := p.Money("amount")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.finance.CheckAffordability(r.Context(), sess, services.AffordabilityInput{
		Amount:      amount,
		Description: p.Get("description"),
	})
	if err != nil {
		if errors.Is(err, finance.ErrQuotaExceeded) {
			s.metrics.affordabilityBlocked.Inc()
		}
		s.writeGated(w, r, sess, "affordability", err)
		return
	}
	s.metrics.affordabilityAnswered.Inc()
	OK(w, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	h, err := s.finance.History(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, h)
}
