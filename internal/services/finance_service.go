package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"eixo/internal/cache"
	"eixo/internal/core"
	"eixo/internal/finance"
	applog "eixo/internal/log"
	"eixo/internal/session"
	"eixo/internal/storage"
)

const dashboardCacheTTL = 5 * time.Minute

// FinanceService runs the user-facing finance operations: it validates
// input, persists through the repository and recomputes derived figures
// with the finance package on every read.
type FinanceService struct {
	repo        storage.Repository
	quotaWindow finance.QuotaWindow
	loc         *time.Location
	now         func() time.Time
	logger      *applog.Logger
	events      *applog.StructuredLogger
	dashboards  *cache.LRUCache[finance.Dashboard]
	locks       userLocks
}

type FinanceOptions struct {
	QuotaWindow finance.QuotaWindow
	Location    *time.Location
	// CacheSize bounds the dashboard cache; 0 disables it.
	CacheSize int
	Logger    *applog.Logger
}

func NewFinanceService(repo storage.Repository, opts FinanceOptions) *FinanceService {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	window := opts.QuotaWindow
	if window == "" {
		window = finance.QuotaLifetime
	}
	s := &FinanceService{
		repo:        repo,
		quotaWindow: window,
		loc:         loc,
		now:         time.Now,
		logger:      logger.WithComponent(applog.ComponentFinance),
		events:      applog.NewStructuredLogger(logger),
	}
	if opts.CacheSize > 0 {
		s.dashboards = cache.NewLRUCache[finance.Dashboard](opts.CacheSize, dashboardCacheTTL)
	}
	return s
}

// RegisterCaches hands the dashboard cache to a cleanup manager.
func (s *FinanceService) RegisterCaches(m *cache.Manager) {
	if s.dashboards != nil {
		m.Register("dashboards", s.dashboards)
	}
}

// Today is the current calendar day in the configured timezone.
func (s *FinanceService) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// Snapshot loads every list of the user concurrently.
func (s *FinanceService) Snapshot(ctx context.Context, userID string) (finance.Snapshot, error) {
	var snap finance.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Transactions, err = s.repo.ListTransactions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Categories, err = s.repo.ListCategories(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Goals, err = s.repo.ListGoals(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.History, err = s.repo.ListQueries(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.storageError(ctx, "Failed to load snapshot", userID, applog.OpRead, err)
		return finance.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Dashboard returns every dashboard figure, served from cache until the
// user's data changes or the day rolls over.
func (s *FinanceService) Dashboard(ctx context.Context, userID string) (finance.Dashboard, error) {
	today := s.Today()
	key := userID + ":" + today.String()
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			return d, nil
		}
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return finance.Dashboard{}, err
	}
	d := finance.BuildDashboard(snap, today)
	if s.dashboards != nil {
		s.dashboards.Set(key, d)
	}
	return d, nil
}

// userLocks serializes the quota-gated operations of one user, so the count
// read and the write that follows cannot interleave with another request.
type userLocks struct {
	m sync.Map
}

func (l *userLocks) lock(userID string) (unlock func()) {
	v, _ := l.m.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *FinanceService) invalidate(userID string) {
	if s.dashboards != nil {
		s.dashboards.DeletePrefix(userID + ":")
	}
}

func (s *FinanceService) storageError(ctx context.Context, msg, userID, op string, err error) {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, context.Canceled) {
		return
	}
	s.events.LogError(ctx, msg, err, applog.ComponentStorage, op,
		applog.NewFields().WithUser(userID).WithErrorType(applog.ErrorTypeDatabase))
}

// TransactionInput is a new transaction as submitted by the user. Amount is
// always positive; Type decides the sign. Installments of 2 or more mark the
// purchase as installments labelled "N/x".
type TransactionInput struct {
	Description  string               `json:"description"`
	Amount       core.Money           `json:"amount"`
	Type         core.TransactionType `json:"type"`
	CategoryID   string               `json:"category_id"`
	Date         core.Date            `json:"date"`
	Installments int                  `json:"installments"`
}

func (s *FinanceService) AddTransaction(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	if in.Installments < 0 {
		return core.Transaction{}, core.ErrInvalidLabel
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	cat, err := s.repo.CategoryByID(ctx, userID, in.CategoryID)
	if err != nil {
		s.storageError(ctx, "Failed to load category", userID, applog.OpRead, err)
		return core.Transaction{}, fmt.Errorf("load category: %w", err)
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  cat.ID,
		Category:    cat.Name,
		Date:        in.Date,
		CreatedAt:   s.now().UTC(),
	}
	if tx.Date.IsEmpty() {
		tx.Date = s.Today()
	}
	if in.Installments >= 2 {
		tx.Installment = true
		tx.InstallmentLabel = fmt.Sprintf("%d/x", in.Installments)
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.AddTransaction(ctx, tx); err != nil {
		s.storageError(ctx, "Failed to save transaction", userID, applog.OpCreate, err)
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(userID)
	s.events.LogTransactionCreated(ctx, userID, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category)
	return tx, nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *FinanceService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		s.storageError(ctx, "Failed to list transactions", userID, applog.OpList, err)
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		s.storageError(ctx, "Failed to delete transaction", userID, applog.OpDelete, err)
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// Statement filters transactions to the last days (1, 7 or 30) ending today.
func (s *FinanceService) Statement(ctx context.Context, userID string, days int) (finance.Statement, error) {
	if !finance.ValidWindow(days) {
		return finance.Statement{}, finance.ErrInvalidWindow
	}
	txs, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return finance.Statement{}, err
	}
	return finance.BuildStatement(txs, days, s.Today())
}

type CategoryInput struct {
	Name   string     `json:"name"`
	Color  string     `json:"color"`
	Icon   string     `json:"icon"`
	Budget core.Money `json:"budget"`
}

// Categories returns each category with its spend and remaining budget.
func (s *FinanceService) Categories(ctx context.Context, userID string) ([]finance.CategorySpend, error) {
	var (
		cats []core.Category
		txs  []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = s.repo.ListCategories(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.storageError(ctx, "Failed to load categories", userID, applog.OpList, err)
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return finance.SpendByCategory(cats, txs), nil
}

func (s *FinanceService) AddCategory(ctx context.Context, userID string, in CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		Color:  strings.TrimSpace(in.Color),
		Icon:   strings.TrimSpace(in.Icon),
		Budget: in.Budget,
	}.WithDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.AddCategory(ctx, c); err != nil {
		s.storageError(ctx, "Failed to save category", userID, applog.OpCreate, err)
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.invalidate(userID)
	return c, nil
}

func (s *FinanceService) UpdateCategoryBudget(ctx context.Context, userID, id string, budget core.Money) error {
	if err := budget.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateCategoryBudget(ctx, userID, id, budget); err != nil {
		s.storageError(ctx, "Failed to update budget", userID, applog.OpUpdate, err)
		return fmt.Errorf("update budget: %w", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *FinanceService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteCategory(ctx, userID, id); err != nil {
		s.storageError(ctx, "Failed to delete category", userID, applog.OpDelete, err)
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(userID)
	return nil
}

type GoalInput struct {
	Name     string     `json:"name"`
	Target   core.Money `json:"target"`
	Deadline core.Date  `json:"deadline"`
}

func (s *FinanceService) Goals(ctx context.Context, userID string) ([]finance.GoalProgress, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		s.storageError(ctx, "Failed to list goals", userID, applog.OpList, err)
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return finance.GoalsProgress(goals, s.Today()), nil
}

// AddGoal creates a goal unless a free user already has one. A blocked call
// returns finance.ErrQuotaExceeded and writes nothing. Concurrent calls for
// the same user run one at a time.
func (s *FinanceService) AddGoal(ctx context.Context, sess *session.Session, in GoalInput) (finance.GoalProgress, error) {
	g := core.Goal{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		Name:      strings.TrimSpace(in.Name),
		Target:    in.Target,
		Deadline:  in.Deadline,
		CreatedAt: s.now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return finance.GoalProgress{}, err
	}

	unlock := s.locks.lock(sess.UserID)
	defer unlock()

	goals, err := s.repo.ListGoals(ctx, sess.UserID)
	if err != nil {
		s.storageError(ctx, "Failed to list goals", sess.UserID, applog.OpList, err)
		return finance.GoalProgress{}, fmt.Errorf("list goals: %w", err)
	}
	if err := finance.CheckGoalQuota(sess, len(goals)); err != nil {
		s.events.LogPaywall(ctx, sess.UserID, "goals", sess.Persona().Key())
		return finance.GoalProgress{}, err
	}

	if err := s.repo.AddGoal(ctx, g); err != nil {
		s.storageError(ctx, "Failed to save goal", sess.UserID, applog.OpCreate, err)
		return finance.GoalProgress{}, fmt.Errorf("save goal: %w", err)
	}
	s.invalidate(sess.UserID)
	return finance.Progress(g, s.Today()), nil
}

// Contribute adds a positive amount to the goal's saved total.
func (s *FinanceService) Contribute(ctx context.Context, userID, goalID string, amount core.Money) (finance.GoalProgress, error) {
	if err := amount.Validate(); err != nil {
		return finance.GoalProgress{}, err
	}
	g, err := s.repo.ContributeToGoal(ctx, userID, goalID, amount)
	if err != nil {
		s.storageError(ctx, "Failed to contribute to goal", userID, applog.OpUpdate, err)
		return finance.GoalProgress{}, fmt.Errorf("contribute to goal: %w", err)
	}
	s.invalidate(userID)
	return finance.Progress(g, s.Today()), nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		s.storageError(ctx, "Failed to delete goal", userID, applog.OpDelete, err)
		return fmt.Errorf("delete goal: %w", err)
	}
	s.invalidate(userID)
	return nil
}

type AffordabilityInput struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
}

type AffordabilityResult struct {
	finance.Verdict
	Query core.AffordabilityQuery `json:"query"`
	// Saved is false when the answer could not be added to history.
	Saved bool `json:"saved"`
}

// CheckAffordability answers "can I buy this?". Free users are limited to
// finance.FreeAffordabilityLimit queries, counted per the configured window;
// a blocked call returns finance.ErrQuotaExceeded and changes nothing. A
// history write failure is logged and the verdict still returned. Checks for
// the same user run one at a time.
func (s *FinanceService) CheckAffordability(ctx context.Context, sess *session.Session, in AffordabilityInput) (AffordabilityResult, error) {
	if err := in.Amount.Validate(); err != nil {
		return AffordabilityResult{}, err
	}
	description := strings.TrimSpace(in.Description)
	if len([]rune(description)) > 200 {
		return AffordabilityResult{}, core.ErrDescriptionTooLong
	}

	unlock := s.locks.lock(sess.UserID)
	defer unlock()

	var (
		txs     []core.Transaction
		history []core.AffordabilityQuery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactions(gctx, sess.UserID)
		return err
	})
	if s.quotaWindow == finance.QuotaDaily {
		g.Go(func() error {
			var err error
			history, err = s.repo.ListQueries(gctx, sess.UserID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.storageError(ctx, "Failed to load affordability inputs", sess.UserID, applog.OpRead, err)
		return AffordabilityResult{}, fmt.Errorf("load affordability inputs: %w", err)
	}

	attempts := sess.Attempts()
	if s.quotaWindow == finance.QuotaDaily {
		attempts = finance.CountOn(history, s.Today(), s.loc)
	}
	if err := finance.CheckAffordabilityQuota(sess, attempts); err != nil {
		s.events.LogPaywall(ctx, sess.UserID, "affordability", sess.Persona().Key())
		return AffordabilityResult{}, err
	}

	v := finance.Afford(txs, in.Amount)
	q := core.AffordabilityQuery{
		ID:          uuid.NewString(),
		UserID:      sess.UserID,
		Amount:      in.Amount,
		Description: description,
		Verdict:     v.Verdict,
		Explanation: v.Explanation,
		CreatedAt:   s.now().UTC(),
	}
	res := AffordabilityResult{Verdict: v, Query: q, Saved: true}
	if err := s.repo.AddQuery(ctx, q); err != nil {
		s.storageError(ctx, "Failed to save affordability query", sess.UserID, applog.OpCreate, err)
		res.Saved = false
	}
	sess.RecordAttempt()
	s.events.LogAffordabilityAnswered(ctx, sess.UserID, in.Amount.Cents, string(v.Verdict))
	return res, nil
}

// History returns the affordability history as the session may see it.
func (s *FinanceService) History(ctx context.Context, sess *session.Session) (finance.HistoryView, error) {
	h, err := s.repo.ListQueries(ctx, sess.UserID)
	if err != nil {
		s.storageError(ctx, "Failed to list affordability history", sess.UserID, applog.OpList, err)
		return finance.HistoryView{}, fmt.Errorf("list history: %w", err)
	}
	return finance.VisibleHistory(sess.IsPremium(), h), nil
}
