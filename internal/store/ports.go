// Package store defines the persistence port of the expense tracker.
// Implementations live in the sqlite, postgres and memory subpackages.
package store

import (
	"context"

	"budgetbook/internal/core"
)

// Store is the relational persistence boundary. Every multi-row write
// (the cascading user delete, the batched budget upsert) is atomic:
// partial application must never be observable.
//
// Implementations translate their native uniqueness violations into
// core.ConflictError and missing rows into core.NotFoundError.
type Store interface {
	// CreateUser persists a new user and returns it with the assigned ID.
	// A non-empty email that belongs to another user is a conflict.
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	// DeleteUser removes the user and all owned expenses, budgets and
	// categories in one transaction.
	DeleteUser(ctx context.Context, id int64) error

	// CreateCategory persists a new category. A duplicate name for the
	// same user is a conflict.
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	// GetCategory returns the category only when it belongs to userID.
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)

	// UpsertBudgets inserts or updates budget rows in one transaction.
	// Each (user, category, month) triple keeps exactly one row holding
	// the latest amount.
	UpsertBudgets(ctx context.Context, budgets []core.Budget) error
	GetBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error)

	// CreateExpense persists a new expense and returns it with the
	// assigned ID. Expenses are append-only.
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	// ListExpenses returns the most recent expenses, newest first.
	ListExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error)
	// MonthlySpend sums expense amounts over [month, month.Next()).
	// categoryID 0 means all categories. Zero matching rows yield 0.
	MonthlySpend(ctx context.Context, userID, categoryID int64, month core.Month) (core.Money, error)

	Close() error
}
