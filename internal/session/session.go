// Package session holds the per-login state the finance rules depend on:
// premium flag, persona and the affordability attempt counter.
package session

import (
	"sync"
	"time"

	"eixo/internal/core"
	"eixo/internal/persona"
)

// Session is created at login and discarded at logout or expiry. It is safe
// for concurrent use by requests sharing the same cookie.
type Session struct {
	Token     string
	UserID    string
	Email     string
	CreatedAt time.Time

	mu       sync.Mutex
	name     string
	premium  bool
	persona  persona.Persona
	attempts int
}

// New builds a session for an authenticated user.
func New(token string, u core.User, now time.Time) *Session {
	return &Session{
		Token:     token,
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: now,
		name:      u.DisplayName(),
		premium:   u.Premium,
		persona:   u.Persona,
	}
}

func (s *Session) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.premium
}

func (s *Session) SetPremium(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premium = v
}

func (s *Session) Persona() persona.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona
}

func (s *Session) SetPersona(p persona.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = p
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Attempts is the number of affordability queries answered in this session.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// RecordAttempt increments the affordability counter and returns the new value.
func (s *Session) RecordAttempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return s.attempts
}

// Snapshot is an immutable copy of the session state for serialization.
type Snapshot struct {
	UserID   string          `json:"user_id"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Premium  bool            `json:"premium"`
	Persona  persona.Persona `json:"persona"`
	Attempts int             `json:"affordability_attempts"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		UserID:   s.UserID,
		Email:    s.Email,
		Name:     s.name,
		Premium:  s.premium,
		Persona:  s.persona,
		Attempts: s.attempts,
	}
}
