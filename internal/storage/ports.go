// Package storage holds the persistence ports used by the services and the
// SQL implementation shared by the sqlite and postgres backends. Every
// operation is scoped by the owning user's id.
package storage

import (
	"context"

	"eixo/internal/core"
	"eixo/internal/persona"
)

type (
	UserRepository interface {
		// CreateUser stores u together with its seed categories. A duplicate
		// email returns core.ErrEmailTaken.
		CreateUser(ctx context.Context, u core.User, seed []core.Category) error
		UserByEmail(ctx context.Context, email string) (core.User, error)
		UserByID(ctx context.Context, id string) (core.User, error)
		UpdateUserName(ctx context.Context, id, name string) error
		SetUserPersona(ctx context.Context, id string, p persona.Persona) error
		SetUserPremium(ctx context.Context, id string, premium bool) error
	}

	TransactionRepository interface {
		AddTransaction(ctx context.Context, tx core.Transaction) error
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryRepository interface {
		AddCategory(ctx context.Context, c core.Category) error
		CategoryByID(ctx context.Context, userID, id string) (core.Category, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		UpdateCategoryBudget(ctx context.Context, userID, id string, budget core.Money) error
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	GoalRepository interface {
		AddGoal(ctx context.Context, g core.Goal) error
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		// ContributeToGoal adds amount to the saved total and returns the
		// updated goal.
		ContributeToGoal(ctx context.Context, userID, id string, amount core.Money) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	HistoryRepository interface {
		AddQuery(ctx context.Context, q core.AffordabilityQuery) error
		// ListQueries returns the user's affordability history, newest first.
		ListQueries(ctx context.Context, userID string) ([]core.AffordabilityQuery, error)
	}

	Repository interface {
		UserRepository
		TransactionRepository
		CategoryRepository
		GoalRepository
		HistoryRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
