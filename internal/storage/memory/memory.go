// Package memory is the default in-process backend. Data lives for the life
// of the process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"eixo/internal/core"
	"eixo/internal/persona"
	"eixo/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	users      map[string]core.User
	byEmail    map[string]string
	txs        []core.Transaction
	categories []core.Category
	goals      []core.Goal
	queries    []core.AffordabilityQuery
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		users:   map[string]core.User{},
		byEmail: map[string]string{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User, seed []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return core.ErrEmailTaken
	}
	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	for _, c := range seed {
		c.UserID = u.ID
		s.categories = append(s.categories, c)
	}
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) updateUser(id string, fn func(*core.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}

func (s *Store) UpdateUserName(_ context.Context, id, name string) error {
	return s.updateUser(id, func(u *core.User) { u.Name = name })
}

func (s *Store) SetUserPersona(_ context.Context, id string, p persona.Persona) error {
	return s.updateUser(id, func(u *core.User) { u.Persona = p })
}

func (s *Store) SetUserPremium(_ context.Context, id string, premium bool) error {
	return s.updateUser(id, func(u *core.User) { u.Premium = premium })
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	out := []core.Transaction{}
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) AddCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) CategoryByID(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) UpdateCategoryBudget(_ context.Context, userID, id string, budget core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id && s.categories[i].UserID == userID {
			s.categories[i].Budget = budget
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) AddGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) ContributeToGoal(_ context.Context, userID, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id && s.goals[i].UserID == userID {
			s.goals[i].Saved = s.goals[i].Saved.Add(amount)
			return s.goals[i], nil
		}
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) AddQuery(_ context.Context, q core.AffordabilityQuery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return nil
}

// ListQueries returns the user's history, newest first.
func (s *Store) ListQueries(_ context.Context, userID string) ([]core.AffordabilityQuery, error) {
	s.mu.Lock()
	out := []core.AffordabilityQuery{}
	for i := len(s.queries) - 1; i >= 0; i-- {
		if s.queries[i].UserID == userID {
			out = append(out, s.queries[i])
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
