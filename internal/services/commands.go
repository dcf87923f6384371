// Package services contains the command handlers and the reporting engine
// that sit between the HTTP layer and the store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// Commands validates and applies user actions against the store. An
// optional AMQP client publishes budget alerts; publishing failures are
// logged and never fail the originating request.
type Commands struct {
	store  store.Store
	alerts *amqp.Client
}

func NewCommands(st store.Store, alerts *amqp.Client) *Commands {
	return &Commands{
		store:  st,
		alerts: alerts,
	}
}

// CreateUser persists a new user. The name is required after trimming;
// an email that is empty after trimming is stored as absent.
func (c *Commands) CreateUser(ctx context.Context, name, email string) (core.User, error) {
	u := core.User{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	return c.store.CreateUser(ctx, u)
}

// DeleteUser removes a user and everything they own in one transaction.
func (c *Commands) DeleteUser(ctx context.Context, id int64) error {
	return c.store.DeleteUser(ctx, id)
}

// CreateCategory adds a category for an existing user. Duplicate names
// per user are a conflict.
func (c *Commands) CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error) {
	cat := core.Category{
		UserID: userID,
		Name:   strings.TrimSpace(name),
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	return c.store.CreateCategory(ctx, cat)
}

// BudgetItemError reports one skipped entry of a budget batch.
type BudgetItemError struct {
	Category core.Category
	Err      error
}

// SaveBudgets applies a batched budget submission for one user and month.
// rawAmounts maps category ID to the amount text as submitted; blank
// entries are skipped, malformed or negative entries produce a per-item
// error without aborting the batch. The remaining valid entries are
// upserted in one transaction. Returns the number of budgets saved plus
// the per-item errors.
func (c *Commands) SaveBudgets(ctx context.Context, userID int64, month core.Month, rawAmounts map[int64]string) (int, []BudgetItemError, error) {
	if month.IsZero() {
		return 0, nil, core.Validation("month", "must be a valid month in YYYY-MM form")
	}
	if _, err := c.store.GetUser(ctx, userID); err != nil {
		return 0, nil, err
	}
	cats, err := c.store.ListCategories(ctx, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("list categories: %w", err)
	}

	var (
		valid    []core.Budget
		itemErrs []BudgetItemError
	)
	for _, cat := range cats {
		raw, ok := rawAmounts[cat.ID]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		amount, err := core.ParseAmount(raw)
		if err != nil {
			itemErrs = append(itemErrs, BudgetItemError{Category: cat, Err: err})
			continue
		}
		b := core.Budget{
			UserID:     userID,
			CategoryID: cat.ID,
			Month:      month,
			Amount:     amount,
		}
		// One bad entry must not poison the whole batch.
		if err := b.Validate(); err != nil {
			itemErrs = append(itemErrs, BudgetItemError{Category: cat, Err: err})
			continue
		}
		valid = append(valid, b)
	}

	if err := c.store.UpsertBudgets(ctx, valid); err != nil {
		return 0, itemErrs, fmt.Errorf("save budgets: %w", err)
	}
	return len(valid), itemErrs, nil
}

// RecordExpenseInput is a validated-typed expense submission.
type RecordExpenseInput struct {
	UserID      int64
	CategoryID  int64
	Amount      core.Money
	Date        core.Date
	Description string
}

// RecordExpense persists an expense and evaluates the budget status of its
// category and month. The evaluation has HasBudget false when no budget
// exists for that month.
func (c *Commands) RecordExpense(ctx context.Context, in RecordExpenseInput) (core.Expense, core.BudgetEvaluation, error) {
	if _, err := c.store.GetUser(ctx, in.UserID); err != nil {
		return core.Expense{}, core.BudgetEvaluation{}, err
	}
	cat, err := c.store.GetCategory(ctx, in.UserID, in.CategoryID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.Expense{}, core.BudgetEvaluation{}, core.Validation("category", "must be one of your categories")
		}
		return core.Expense{}, core.BudgetEvaluation{}, err
	}

	exp := core.Expense{
		UserID:      in.UserID,
		CategoryID:  cat.ID,
		Date:        in.Date,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, core.BudgetEvaluation{}, err
	}

	exp, err = c.store.CreateExpense(ctx, exp)
	if err != nil {
		return core.Expense{}, core.BudgetEvaluation{}, fmt.Errorf("record expense: %w", err)
	}

	ev, err := c.evaluateBudget(ctx, in.UserID, cat, core.MonthOf(exp.Date))
	if err != nil {
		// The expense is saved; a failed evaluation must not undo that.
		slog.ErrorContext(ctx, "Budget evaluation failed after expense save",
			"error", err, "expense_id", exp.ID, "category", cat.Name)
		return exp, core.BudgetEvaluation{}, nil
	}

	return exp, ev, nil
}

func (c *Commands) evaluateBudget(ctx context.Context, userID int64, cat core.Category, month core.Month) (core.BudgetEvaluation, error) {
	budget, err := c.store.GetBudget(ctx, userID, cat.ID, month)
	if core.IsNotFound(err) {
		return core.BudgetEvaluation{}, nil
	}
	if err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("get budget: %w", err)
	}

	spent, err := c.store.MonthlySpend(ctx, userID, cat.ID, month)
	if err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("monthly spend: %w", err)
	}

	ev := core.EvaluateBudget(spent, budget.Amount)
	if ev.Status != core.StatusOK {
		c.publishAlert(ctx, userID, cat, month, ev)
	}
	return ev, nil
}

func (c *Commands) publishAlert(ctx context.Context, userID int64, cat core.Category, month core.Month, ev core.BudgetEvaluation) {
	if c.alerts == nil {
		return
	}
	msg := amqp.NewBudgetAlertMessage(userID, cat, month, ev)
	if err := c.alerts.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"error", err, "category", cat.Name, "month", month.String())
	}
}
