package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"eixo/internal/core"
	"eixo/internal/persona"
	"eixo/internal/storage"
	"eixo/internal/storage/memory"
)

func backends(t *testing.T) map[string]storage.Repository {
	t.Helper()
	sqliteRepo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "eixo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { sqliteRepo.Close() })
	return map[string]storage.Repository{
		"sqlite": sqliteRepo,
		"memory": memory.New(),
	}
}

func seedUser(t *testing.T, ctx context.Context, repo storage.Repository, id, email string) core.User {
	t.Helper()
	u := core.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		Persona:      persona.Default,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	seed := []core.Category{
		{ID: id + "-c1", Name: "Alimentação", Color: "#10B981", Icon: "🍔", Budget: core.Money{Cents: 80000}},
		{ID: id + "-c2", Name: "Transporte", Color: "#3B82F6", Icon: "🚗", Budget: core.Money{Cents: 40000}},
	}
	if err := repo.CreateUser(ctx, u, seed); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestRepository_Users(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, ctx, repo, "u1", "Maria@Example.com")

			got, err := repo.UserByEmail(ctx, "maria@example.com")
			if err != nil {
				t.Fatalf("UserByEmail: %v", err)
			}
			if got.ID != u.ID || got.Persona != persona.Default || got.Premium {
				t.Errorf("unexpected user: %+v", got)
			}
			if !got.CreatedAt.Equal(u.CreatedAt) {
				t.Errorf("created_at = %v, want %v", got.CreatedAt, u.CreatedAt)
			}

			dup := u
			dup.ID = "u2"
			dup.Email = "MARIA@example.com"
			if err := repo.CreateUser(ctx, dup, nil); !errors.Is(err, core.ErrEmailTaken) {
				t.Errorf("duplicate email: got %v, want ErrEmailTaken", err)
			}

			if err := repo.UpdateUserName(ctx, u.ID, "Maria Silva"); err != nil {
				t.Fatalf("UpdateUserName: %v", err)
			}
			if err := repo.SetUserPremium(ctx, u.ID, true); err != nil {
				t.Fatalf("SetUserPremium: %v", err)
			}
			if err := repo.SetUserPersona(ctx, u.ID, persona.GastadorConsciente); err != nil {
				t.Fatalf("SetUserPersona: %v", err)
			}
			got, err = repo.UserByID(ctx, u.ID)
			if err != nil {
				t.Fatalf("UserByID: %v", err)
			}
			if got.Name != "Maria Silva" || !got.Premium || got.Persona != persona.GastadorConsciente {
				t.Errorf("updates not applied: %+v", got)
			}

			if _, err := repo.UserByID(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("missing user: got %v", err)
			}
			if err := repo.SetUserPremium(ctx, "missing", true); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("premium on missing user: got %v", err)
			}
		})
	}
}

func TestRepository_CategoriesKeepOrderAndScope(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, ctx, repo, "u1", "a@example.com")
			seedUser(t, ctx, repo, "u2", "b@example.com")

			extra := core.Category{ID: "u1-c3", UserID: "u1", Name: "Lazer", Color: "#F59E0B", Icon: "🎮", Budget: core.Money{Cents: 30000}}
			if err := repo.AddCategory(ctx, extra); err != nil {
				t.Fatalf("AddCategory: %v", err)
			}

			cats, err := repo.ListCategories(ctx, "u1")
			if err != nil {
				t.Fatalf("ListCategories: %v", err)
			}
			if len(cats) != 3 || cats[0].Name != "Alimentação" || cats[2].Name != "Lazer" {
				t.Fatalf("unexpected categories: %+v", cats)
			}

			if err := repo.UpdateCategoryBudget(ctx, "u1", "u1-c3", core.Money{Cents: 12345}); err != nil {
				t.Fatalf("UpdateCategoryBudget: %v", err)
			}
			c, err := repo.CategoryByID(ctx, "u1", "u1-c3")
			if err != nil || c.Budget.Cents != 12345 {
				t.Errorf("CategoryByID = %+v, %v", c, err)
			}

			if _, err := repo.CategoryByID(ctx, "u2", "u1-c3"); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("cross-user read: got %v", err)
			}
			if err := repo.DeleteCategory(ctx, "u2", "u1-c1"); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("cross-user delete: got %v", err)
			}
			if err := repo.DeleteCategory(ctx, "u1", "u1-c1"); err != nil {
				t.Fatalf("DeleteCategory: %v", err)
			}
			cats, _ = repo.ListCategories(ctx, "u1")
			if len(cats) != 2 {
				t.Errorf("expected 2 categories after delete, got %d", len(cats))
			}
		})
	}
}

func TestRepository_Transactions(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, ctx, repo, "u1", "a@example.com")
			base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

			txs := []core.Transaction{
				{ID: "t1", UserID: "u1", Description: "Salário", Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Salário", Date: core.NewDate(2025, 3, 5), CreatedAt: base},
				{ID: "t2", UserID: "u1", Description: "iFood", Amount: core.Money{Cents: 4590}, Type: core.Expense, CategoryID: "u1-c1", Category: "Alimentação", Date: core.NewDate(2025, 3, 10), CreatedAt: base.Add(time.Minute)},
				{ID: "t3", UserID: "u1", Description: "TV", Amount: core.Money{Cents: 300000}, Type: core.Expense, Category: "Lazer", Date: core.NewDate(2025, 3, 10), Installment: true, InstallmentLabel: "10/x", CreatedAt: base.Add(2 * time.Minute)},
			}
			for _, tx := range txs {
				if err := repo.AddTransaction(ctx, tx); err != nil {
					t.Fatalf("AddTransaction(%s): %v", tx.ID, err)
				}
			}

			got, err := repo.ListTransactions(ctx, "u1")
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 transactions, got %d", len(got))
			}
			if got[0].ID != "t3" || got[1].ID != "t2" || got[2].ID != "t1" {
				t.Errorf("order = %s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
			}
			if !got[0].Installment || got[0].InstallmentLabel != "10/x" || got[1].CategoryID != "u1-c1" {
				t.Errorf("fields lost: %+v / %+v", got[0], got[1])
			}
			if got[2].Date.String() != "2025-03-05" || got[2].Amount.Cents != 500000 {
				t.Errorf("date/amount lost: %+v", got[2])
			}

			if err := repo.DeleteTransaction(ctx, "other", "t1"); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("cross-user delete: got %v", err)
			}
			if err := repo.DeleteTransaction(ctx, "u1", "t1"); err != nil {
				t.Fatalf("DeleteTransaction: %v", err)
			}
			got, _ = repo.ListTransactions(ctx, "u1")
			if len(got) != 2 {
				t.Errorf("expected 2 after delete, got %d", len(got))
			}
			if other, _ := repo.ListTransactions(ctx, "other"); len(other) != 0 {
				t.Errorf("other user sees %d transactions", len(other))
			}
		})
	}
}

func TestRepository_Goals(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, ctx, repo, "u1", "a@example.com")
			g := core.Goal{ID: "g1", UserID: "u1", Name: "Viagem", Target: core.Money{Cents: 500000}, Deadline: core.NewDate(2025, 12, 31), CreatedAt: time.Now()}
			if err := repo.AddGoal(ctx, g); err != nil {
				t.Fatalf("AddGoal: %v", err)
			}

			updated, err := repo.ContributeToGoal(ctx, "u1", "g1", core.Money{Cents: 25000})
			if err != nil {
				t.Fatalf("ContributeToGoal: %v", err)
			}
			updated, err = repo.ContributeToGoal(ctx, "u1", "g1", core.Money{Cents: 5000})
			if err != nil {
				t.Fatalf("ContributeToGoal: %v", err)
			}
			if updated.Saved.Cents != 30000 || updated.Deadline.String() != "2025-12-31" {
				t.Errorf("unexpected goal: %+v", updated)
			}
			if _, err := repo.ContributeToGoal(ctx, "u1", "g1", core.Money{Cents: -1}); !errors.Is(err, core.ErrInvalidAmount) {
				t.Errorf("negative contribution: got %v", err)
			}
			if _, err := repo.ContributeToGoal(ctx, "u1", "nope", core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("missing goal: got %v", err)
			}

			goals, _ := repo.ListGoals(ctx, "u1")
			if len(goals) != 1 || goals[0].Saved.Cents != 30000 {
				t.Errorf("ListGoals = %+v", goals)
			}
			if err := repo.DeleteGoal(ctx, "u1", "g1"); err != nil {
				t.Fatalf("DeleteGoal: %v", err)
			}
			if goals, _ := repo.ListGoals(ctx, "u1"); len(goals) != 0 {
				t.Errorf("goal not deleted")
			}
		})
	}
}

func TestRepository_HistoryNewestFirst(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUser(t, ctx, repo, "u1", "a@example.com")
			base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
			for i, id := range []string{"q1", "q2", "q3"} {
				q := core.AffordabilityQuery{
					ID: id, UserID: "u1", Amount: core.Money{Cents: 1000}, Verdict: core.VerdictNo,
					Explanation: "Não recomendamos.", CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}
				if err := repo.AddQuery(ctx, q); err != nil {
					t.Fatalf("AddQuery: %v", err)
				}
			}
			got, err := repo.ListQueries(ctx, "u1")
			if err != nil {
				t.Fatalf("ListQueries: %v", err)
			}
			if len(got) != 3 || got[0].ID != "q3" || got[2].ID != "q1" {
				t.Errorf("unexpected history: %+v", got)
			}
			if got[0].Verdict != core.VerdictNo {
				t.Errorf("verdict lost: %+v", got[0])
			}
		})
	}
}
