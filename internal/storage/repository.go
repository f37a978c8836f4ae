package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"eixo/internal/core"
	"eixo/internal/persona"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string { return string(d) }

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLRepository implements Repository on database/sql. Queries are written
// with ? placeholders and rebound for postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent snapshot loads.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(DialectSQLite, dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: DialectSQLite}, nil
}

func NewPostgresRepository(ctx context.Context, dsn string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(DialectPostgres, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: DialectPostgres}, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2... for postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

// execOne runs a statement that must touch exactly one row.
func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string { return t.UTC().Format(timestampLayout) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

// Users

const userColumns = `id, email, name, password_hash, persona, premium, created_at`

func (r *SQLRepository) CreateUser(ctx context.Context, u core.User, seed []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, string(u.Persona), u.Premium, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	for _, c := range seed {
		_, err := tx.ExecContext(ctx, r.rebind(insertCategory), c.ID, u.ID, c.Name, c.Color, c.Icon, c.Budget.Cents, u.ID)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

func (r *SQLRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (r *SQLRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u         core.User
		p         string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &p, &u.Premium, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Persona = persona.Persona(p)
	t, err := parseTime(createdAt)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user created_at: %w", err)
	}
	u.CreatedAt = t
	return u, nil
}

func (r *SQLRepository) UpdateUserName(ctx context.Context, id, name string) error {
	if err := r.execOne(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id); err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	return nil
}

func (r *SQLRepository) SetUserPersona(ctx context.Context, id string, p persona.Persona) error {
	if err := r.execOne(ctx, `UPDATE users SET persona = ? WHERE id = ?`, string(p), id); err != nil {
		return fmt.Errorf("update user persona: %w", err)
	}
	return nil
}

func (r *SQLRepository) SetUserPremium(ctx context.Context, id string, premium bool) error {
	if err := r.execOne(ctx, `UPDATE users SET premium = ? WHERE id = ?`, premium, id); err != nil {
		return fmt.Errorf("update user premium: %w", err)
	}
	return nil
}

// Transactions

func (r *SQLRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.exec(ctx, `INSERT INTO transactions (id, user_id, description, amount_cents, type, category_id, category, date, installment, installment_label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Description, t.Amount.Cents, string(t.Type), t.CategoryID, t.Category,
		t.Date.String(), t.Installment, t.InstallmentLabel, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id, user_id, description, amount_cents, type, category_id, category, date, installment, installment_label, created_at
		FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t               core.Transaction
			typ, date, crAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount.Cents, &typ, &t.CategoryID, &t.Category,
			&date, &t.Installment, &t.InstallmentLabel, &crAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction %s date: %w", t.ID, err)
		}
		if t.CreatedAt, err = parseTime(crAt); err != nil {
			return nil, fmt.Errorf("parse transaction %s created_at: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := r.execOne(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Categories

// Categories list in creation order via a per-user position counter.
const insertCategory = `INSERT INTO categories (id, user_id, name, color, icon, budget_cents, position)
	VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM categories WHERE user_id = ?))`

func (r *SQLRepository) AddCategory(ctx context.Context, c core.Category) error {
	_, err := r.exec(ctx, insertCategory, c.ID, c.UserID, c.Name, c.Color, c.Icon, c.Budget.Cents, c.UserID)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLRepository) CategoryByID(ctx context.Context, userID, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT id, user_id, name, color, icon, budget_cents FROM categories WHERE id = ? AND user_id = ?`), id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.Budget.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id, user_id, name, color, icon, budget_cents FROM categories WHERE user_id = ? ORDER BY position`), userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.Budget.Cents); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) UpdateCategoryBudget(ctx context.Context, userID, id string, budget core.Money) error {
	if err := r.execOne(ctx, `UPDATE categories SET budget_cents = ? WHERE id = ? AND user_id = ?`, budget.Cents, id, userID); err != nil {
		return fmt.Errorf("update category budget: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := r.execOne(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Goals

const goalColumns = `id, user_id, name, target_cents, saved_cents, deadline, created_at`

func (r *SQLRepository) AddGoal(ctx context.Context, g core.Goal) error {
	_, err := r.exec(ctx, `INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Target.Cents, g.Saved.Cents, g.Deadline.String(), formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at`), userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g              core.Goal
		deadline, crAt string
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Saved.Cents, &deadline, &crAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, core.ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	var err error
	if g.Deadline, err = core.ParseDate(deadline); err != nil {
		return core.Goal{}, fmt.Errorf("parse goal %s deadline: %w", g.ID, err)
	}
	if g.CreatedAt, err = parseTime(crAt); err != nil {
		return core.Goal{}, fmt.Errorf("parse goal %s created_at: %w", g.ID, err)
	}
	return g, nil
}

func (r *SQLRepository) ContributeToGoal(ctx context.Context, userID, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := r.execOne(ctx, `UPDATE goals SET saved_cents = saved_cents + ? WHERE id = ? AND user_id = ?`, amount.Cents, id, userID); err != nil {
		return core.Goal{}, fmt.Errorf("contribute to goal: %w", err)
	}
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`), id, userID)
	return scanGoal(row)
}

func (r *SQLRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := r.execOne(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Affordability history

func (r *SQLRepository) AddQuery(ctx context.Context, q core.AffordabilityQuery) error {
	_, err := r.exec(ctx, `INSERT INTO affordability_queries (id, user_id, amount_cents, description, verdict, explanation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Amount.Cents, q.Description, string(q.Verdict), q.Explanation, formatTime(q.CreatedAt))
	if err != nil {
		return fmt.Errorf("create affordability query: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListQueries(ctx context.Context, userID string) ([]core.AffordabilityQuery, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id, user_id, amount_cents, description, verdict, explanation, created_at
		FROM affordability_queries WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list affordability queries: %w", err)
	}
	defer rows.Close()

	out := []core.AffordabilityQuery{}
	for rows.Next() {
		var (
			q             core.AffordabilityQuery
			verdict, crAt string
		)
		if err := rows.Scan(&q.ID, &q.UserID, &q.Amount.Cents, &q.Description, &verdict, &q.Explanation, &crAt); err != nil {
			return nil, fmt.Errorf("scan affordability query: %w", err)
		}
		q.Verdict = core.Verdict(verdict)
		if q.CreatedAt, err = parseTime(crAt); err != nil {
			return nil, fmt.Errorf("parse affordability query %s created_at: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
