package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"eixo/internal/cache"
	"eixo/internal/core"
	"eixo/internal/persona"
)

// Store keeps live sessions and anonymous quiz results in memory.
type Store struct {
	sessions *cache.LRUCache[*Session]
	pending  *cache.LRUCache[persona.Persona]
	now      func() time.Time
}

// NewStore creates a store holding at most maxEntries sessions, each expiring
// ttl after it was created. Pending quiz results share the same limits.
func NewStore(maxEntries int, ttl time.Duration) *Store {
	return &Store{
		sessions: cache.NewLRUCache[*Session](maxEntries, ttl),
		pending:  cache.NewLRUCache[persona.Persona](maxEntries, ttl),
		now:      time.Now,
	}
}

// Register hands both caches to a cleanup manager.
func (s *Store) Register(m *cache.Manager) {
	m.Register("sessions", s.sessions)
	m.Register("pending_personas", s.pending)
}

// Create opens a session for u and returns it.
func (s *Store) Create(u core.User) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	sess := New(token, u, s.now())
	s.sessions.Set(token, sess)
	return sess, nil
}

func (s *Store) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	return s.sessions.Get(token)
}

func (s *Store) Destroy(token string) {
	s.sessions.Delete(token)
}

// Active returns the number of tracked sessions, expired ones included until
// the next cleanup.
func (s *Store) Active() int {
	return s.sessions.Size()
}

// SetPendingPersona records a quiz result for a visitor who has not
// registered yet. A later result for the same token overwrites it.
func (s *Store) SetPendingPersona(token string, p persona.Persona) {
	s.pending.Set(token, p)
}

// PeekPendingPersona returns the pending result without consuming it.
func (s *Store) PeekPendingPersona(token string) (persona.Persona, bool) {
	if token == "" {
		return "", false
	}
	return s.pending.Get(token)
}

// TakePendingPersona consumes the pending result; a second call misses.
func (s *Store) TakePendingPersona(token string) (persona.Persona, bool) {
	if token == "" {
		return "", false
	}
	return s.pending.Take(token)
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
