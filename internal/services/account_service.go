package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"eixo/internal/auth"
	"eixo/internal/core"
	applog "eixo/internal/log"
	"eixo/internal/persona"
	"eixo/internal/session"
	"eixo/internal/storage"
)

// AccountService handles registration, login and the per-user settings kept
// on the session: display name, persona and the premium flag.
type AccountService struct {
	users    storage.UserRepository
	sessions *session.Store
	logger   *applog.Logger
	now      func() time.Time
}

func NewAccountService(users storage.UserRepository, sessions *session.Store, logger *applog.Logger) *AccountService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AccountService{
		users:    users,
		sessions: sessions,
		logger:   logger.WithComponent(applog.ComponentAccount),
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates the account, seeds the default categories and opens a
// session. The persona comes from the visitor's pending quiz result, which is
// consumed, or falls back to persona.Default.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, quizToken string) (*session.Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 60 {
		return nil, core.ErrNameTooLong
	}
	if utf8.RuneCountInString(in.Password) < auth.MinPasswordLength {
		return nil, core.ErrWeakPassword
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := persona.Default
	if pending, ok := s.sessions.PeekPendingPersona(quizToken); ok {
		p = pending
	}

	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Persona:      p,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u, seedCategories(u.ID)); err != nil {
		if !errors.Is(err, core.ErrEmailTaken) {
			s.logger.ErrorContext(ctx, "Failed to create user",
				applog.NewFields().WithOperation(applog.OpRegister).WithErrorType(applog.ErrorTypeDatabase).WithError(err).ToSlice()...)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	// Only consume the quiz result once the account exists.
	s.sessions.TakePendingPersona(quizToken)

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, u.ID, applog.FieldPersona, p.Key())
	return s.sessions.Create(u)
}

func seedCategories(userID string) []core.Category {
	out := make([]core.Category, len(core.DefaultCategories))
	for i, c := range core.DefaultCategories {
		c.ID = uuid.NewString()
		c.UserID = userID
		out[i] = c
	}
	return out
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password both yield core.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login failed", applog.FieldUserID, u.ID, applog.FieldErrorType, applog.ErrorTypeAuth)
		return nil, core.ErrInvalidCredentials
	}
	return s.sessions.Create(u)
}

func (s *AccountService) Logout(token string) {
	s.sessions.Destroy(token)
}

// Session resolves a session cookie value.
func (s *AccountService) Session(token string) (*session.Session, bool) {
	return s.sessions.Get(token)
}

func (s *AccountService) ActiveSessions() int {
	return s.sessions.Active()
}

func (s *AccountService) UpdateName(ctx context.Context, sess *session.Session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 60 {
		return core.ErrNameTooLong
	}
	if err := s.users.UpdateUserName(ctx, sess.UserID, name); err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	sess.SetName(name)
	return nil
}

// SetPremium stores the flag and applies it to the live session.
func (s *AccountService) SetPremium(ctx context.Context, sess *session.Session, premium bool) error {
	if err := s.users.SetUserPremium(ctx, sess.UserID, premium); err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	sess.SetPremium(premium)
	s.logger.InfoContext(ctx, "Premium flag changed", applog.FieldUserID, sess.UserID, applog.FieldPremium, premium)
	return nil
}

// SetPremiumByEmail is the offline variant used by the admin CLI. Live
// sessions pick the change up at their next login.
func (s *AccountService) SetPremiumByEmail(ctx context.Context, email string, premium bool) (core.User, error) {
	u, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := s.users.SetUserPremium(ctx, u.ID, premium); err != nil {
		return core.User{}, fmt.Errorf("set premium: %w", err)
	}
	u.Premium = premium
	return u, nil
}

// QuizAnswers carries either answer letters in question order or answers
// already labelled with a persona. Letters win when both are set.
type QuizAnswers struct {
	Letters  []persona.Letter  `json:"letters,omitempty"`
	Personas []persona.Persona `json:"personas,omitempty"`
}

type QuizResult struct {
	Persona persona.Persona `json:"persona"`
	Profile persona.Profile `json:"profile"`
	// QuizToken is set for anonymous callers; it keys the pending result
	// until registration.
	QuizToken string `json:"-"`
}

// SubmitQuiz scores the answers. A signed-in user has the persona overwritten;
// an anonymous visitor gets it parked under quizToken (a fresh token when
// empty) for Register to pick up.
func (s *AccountService) SubmitQuiz(ctx context.Context, sess *session.Session, quizToken string, answers QuizAnswers) (QuizResult, error) {
	p, err := classify(answers)
	if err != nil {
		return QuizResult{}, err
	}
	res := QuizResult{Persona: p, Profile: persona.ProfileOf(p)}

	if sess != nil {
		if err := s.users.SetUserPersona(ctx, sess.UserID, p); err != nil {
			return QuizResult{}, fmt.Errorf("set persona: %w", err)
		}
		sess.SetPersona(p)
		s.logger.InfoContext(ctx, "Persona updated", applog.FieldUserID, sess.UserID, applog.FieldPersona, p.Key())
		return res, nil
	}

	if quizToken == "" {
		if quizToken, err = session.NewToken(); err != nil {
			return QuizResult{}, err
		}
	}
	s.sessions.SetPendingPersona(quizToken, p)
	res.QuizToken = quizToken
	return res, nil
}

func classify(answers QuizAnswers) (persona.Persona, error) {
	if len(answers.Letters) > 0 {
		return persona.ClassifyLetters(answers.Letters)
	}
	for _, p := range answers.Personas {
		if !p.Valid() {
			return "", fmt.Errorf("%w: %q", persona.ErrUnknownPersona, p)
		}
	}
	if len(answers.Personas) > len(persona.Questions) {
		return "", persona.ErrTooManyAnswers
	}
	return persona.Classify(answers.Personas), nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", core.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
