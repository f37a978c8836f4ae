package http

import (
	"net/http"
	"strconv"

	"eixo/internal/persona"
	"eixo/internal/services"
	"eixo/internal/session"
)

type meResponse struct {
	User    session.Snapshot `json:"user"`
	Profile persona.Profile  `json:"profile"`
}

func me(sess *session.Session) meResponse {
	return meResponse{User: sess.Snapshot(), Profile: persona.ProfileOf(sess.Persona())}
}

// parseBody parses the request body, writing a 400 on malformed input.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidBody).Write(w)
		return nil, false
	}
	return p, true
}

func (s *Server) handleQuizQuestions(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]interface{}{"questions": persona.Questions})
}

// handleQuizSubmit scores the quiz. Signed-in callers re-take it; anonymous
// callers get the result parked under the quiz cookie until they register.
func (s *Server) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	var answers services.QuizAnswers
	for _, l := range p.GetList("letters") {
		answers.Letters = append(answers.Letters, persona.Letter(l))
	}
	for _, v := range p.GetList("personas") {
		pp, err := persona.Parse(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		answers.Personas = append(answers.Personas, pp)
	}

	sess, _ := s.sessionFrom(r)
	var quizToken string
	if c, err := r.Cookie(quizCookieName); err == nil {
		quizToken = c.Value
	}

	res, err := s.accounts.SubmitQuiz(r.Context(), sess, quizToken, answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := NewJSONResponse().Body(res)
	if res.QuizToken != "" {
		resp.Cookie(s.newQuizCookie(res.QuizToken))
	}
	resp.Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	var quizToken string
	if c, err := r.Cookie(quizCookieName); err == nil {
		quizToken = c.Value
	}

	sess, err := s.accounts.Register(r.Context(), services.RegisterInput{
		Email:    p.Get("email"),
		Password: p.GetRaw("password"),
		Name:     p.Get("name"),
	}, quizToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Cookie(s.newSessionCookie(sess.Token)).
		Cookie(s.expiredCookie(quizCookieName)).
		Body(me(sess)).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	sess, err := s.accounts.Login(r.Context(), p.Get("email"), p.GetRaw("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Cookie(s.newSessionCookie(sess.Token)).
		Body(me(sess)).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		s.accounts.Logout(c.Value)
	}
	NewJSONResponse().
		Status(http.StatusNoContent).
		Cookie(s.expiredCookie(sessionCookieName)).
		Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	OK(w, me(sess))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if err := s.accounts.UpdateName(r.Context(), sess, p.Get("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, me(sess))
}

// handlePremium flips the premium flag of the caller. There is no payment
// step; an absent "premium" value means subscribe.
func (s *Server) handlePremium(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	premium := true
	if v := p.Get("premium"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			BadRequestError(msgInvalidBody).Write(w)
			return
		}
		premium = b
	}
	if err := s.accounts.SetPremium(r.Context(), sess, premium); err != nil {
		s.writeError(w, r, err)
		return
	}
	OK(w, me(sess))
}
