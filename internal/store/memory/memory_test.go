package memory

import (
	"context"
	"testing"
	"time"

	"budgetbook/internal/core"
)

func seedUser(t *testing.T, s *Store, name string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Name: name})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func seedCategory(t *testing.T, s *Store, userID int64, name string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func TestCreateCategoryConflictPerUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "Alice")
	bob := seedUser(t, s, "Bob")

	seedCategory(t, s, alice.ID, "Food")

	if _, err := s.CreateCategory(ctx, core.Category{UserID: alice.ID, Name: "Food"}); !core.IsConflict(err) {
		t.Fatalf("duplicate name for same user expected conflict, got %v", err)
	}
	// Same name for a different user succeeds.
	if _, err := s.CreateCategory(ctx, core.Category{UserID: bob.ID, Name: "Food"}); err != nil {
		t.Fatalf("same name for different user should succeed, got %v", err)
	}
	// Unknown user is not found.
	if _, err := s.CreateCategory(ctx, core.Category{UserID: 999, Name: "X"}); !core.IsNotFound(err) {
		t.Fatalf("unknown user expected not found, got %v", err)
	}
}

func TestUpsertBudgetsKeepsOneRow(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "Alice")
	c := seedCategory(t, s, u.ID, "Food")
	month := core.Month{Year: 2025, Mon: time.March}

	first := []core.Budget{{UserID: u.ID, CategoryID: c.ID, Month: month, Amount: core.Money{Cents: 10000}}}
	if err := s.UpsertBudgets(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second := []core.Budget{{UserID: u.ID, CategoryID: c.ID, Month: month, Amount: core.Money{Cents: 20000}}}
	if err := s.UpsertBudgets(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	budgets, err := s.ListBudgets(ctx, u.ID, month)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected exactly one budget row, got %d", len(budgets))
	}
	if budgets[0].Amount.Cents != 20000 {
		t.Fatalf("expected latest amount 20000, got %d", budgets[0].Amount.Cents)
	}
}

func TestMonthlySpendSumsHalfOpenInterval(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "Alice")
	c := seedCategory(t, s, u.ID, "Food")
	month := core.Month{Year: 2025, Mon: time.March}

	dates := []struct {
		d     core.Date
		cents int64
	}{
		{core.NewDate(2025, time.March, 1), 100},
		{core.NewDate(2025, time.March, 31), 250},
		{core.NewDate(2025, time.February, 28), 999}, // outside
		{core.NewDate(2025, time.April, 1), 999},     // outside
	}
	for _, e := range dates {
		if _, err := s.CreateExpense(ctx, core.Expense{UserID: u.ID, CategoryID: c.ID, Date: e.d, Amount: core.Money{Cents: e.cents}}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	got, err := s.MonthlySpend(ctx, u.ID, c.ID, month)
	if err != nil {
		t.Fatalf("monthly spend: %v", err)
	}
	if got.Cents != 350 {
		t.Fatalf("expected 350 cents inside March, got %d", got.Cents)
	}

	// Zero matching rows yield exactly zero, not an error.
	empty, err := s.MonthlySpend(ctx, u.ID, c.ID, core.Month{Year: 2030, Mon: time.January})
	if err != nil {
		t.Fatalf("monthly spend empty month: %v", err)
	}
	if empty.Cents != 0 {
		t.Fatalf("expected 0 for empty month, got %d", empty.Cents)
	}
}

func TestDeleteUserCascadesAndIsolates(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "Alice")
	bob := seedUser(t, s, "Bob")
	ac := seedCategory(t, s, alice.ID, "Food")
	bc := seedCategory(t, s, bob.ID, "Food")
	month := core.Month{Year: 2025, Mon: time.March}

	_ = s.UpsertBudgets(ctx, []core.Budget{
		{UserID: alice.ID, CategoryID: ac.ID, Month: month, Amount: core.Money{Cents: 100}},
		{UserID: bob.ID, CategoryID: bc.ID, Month: month, Amount: core.Money{Cents: 200}},
	})
	_, _ = s.CreateExpense(ctx, core.Expense{UserID: alice.ID, CategoryID: ac.ID, Date: core.NewDate(2025, time.March, 2), Amount: core.Money{Cents: 50}})
	_, _ = s.CreateExpense(ctx, core.Expense{UserID: bob.ID, CategoryID: bc.ID, Date: core.NewDate(2025, time.March, 2), Amount: core.Money{Cents: 70}})

	if err := s.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := s.GetUser(ctx, alice.ID); !core.IsNotFound(err) {
		t.Fatalf("deleted user should be gone, got %v", err)
	}
	if cats, _ := s.ListCategories(ctx, alice.ID); len(cats) != 0 {
		t.Fatalf("expected no categories for deleted user, got %d", len(cats))
	}
	if budgets, _ := s.ListBudgets(ctx, alice.ID, month); len(budgets) != 0 {
		t.Fatalf("expected no budgets for deleted user, got %d", len(budgets))
	}
	if exps, _ := s.ListExpenses(ctx, alice.ID, 0); len(exps) != 0 {
		t.Fatalf("expected no expenses for deleted user, got %d", len(exps))
	}

	// Bob's data is untouched.
	if _, err := s.GetUser(ctx, bob.ID); err != nil {
		t.Fatalf("other user must survive: %v", err)
	}
	if exps, _ := s.ListExpenses(ctx, bob.ID, 0); len(exps) != 1 {
		t.Fatalf("other user's expenses must survive, got %d", len(exps))
	}

	if err := s.DeleteUser(ctx, alice.ID); !core.IsNotFound(err) {
		t.Fatalf("double delete expected not found, got %v", err)
	}
}

func TestListExpensesNewestFirstWithLimit(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "Alice")
	c := seedCategory(t, s, u.ID, "Food")

	for day := 1; day <= 5; day++ {
		_, _ = s.CreateExpense(ctx, core.Expense{UserID: u.ID, CategoryID: c.ID, Date: core.NewDate(2025, time.March, day), Amount: core.Money{Cents: int64(day)}})
	}

	exps, err := s.ListExpenses(ctx, u.ID, 3)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(exps) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(exps))
	}
	if exps[0].Date.Day() != 5 || exps[2].Date.Day() != 3 {
		t.Fatalf("expected newest first, got days %d..%d", exps[0].Date.Day(), exps[2].Date.Day())
	}
}
