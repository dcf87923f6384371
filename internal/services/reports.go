package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// Reports computes monthly spend aggregates and budget status per category.
type Reports struct {
	store store.Store
}

func NewReports(st store.Store) *Reports {
	return &Reports{store: st}
}

// MonthlySpend sums expense amounts for the user over the month bucket.
// categoryID 0 means all categories; zero matching rows yield 0.
func (r *Reports) MonthlySpend(ctx context.Context, userID, categoryID int64, month core.Month) (core.Money, error) {
	return r.store.MonthlySpend(ctx, userID, categoryID, month)
}

// MonthlyReport returns the total spend for the month plus one row per
// category: budget (zero when unset), spend, remaining and status.
func (r *Reports) MonthlyReport(ctx context.Context, userID int64, month core.Month) (core.MonthlyReport, error) {
	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return core.MonthlyReport{}, err
	}

	total, err := r.store.MonthlySpend(ctx, userID, 0, month)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("month total: %w", err)
	}

	cats, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list categories: %w", err)
	}

	budgets, err := r.store.ListBudgets(ctx, userID, month)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list budgets: %w", err)
	}
	budgetByCategory := make(map[int64]core.Money, len(budgets))
	for _, b := range budgets {
		budgetByCategory[b.CategoryID] = b.Amount
	}

	// Per-category sums are independent queries; fan out with a small
	// bound so one report never floods the store.
	rows := make([]core.CategoryReport, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, cat := range cats {
		g.Go(func() error {
			spent, err := r.store.MonthlySpend(gctx, userID, cat.ID, month)
			if err != nil {
				return fmt.Errorf("spend for category %q: %w", cat.Name, err)
			}
			budget := budgetByCategory[cat.ID] // zero when unset
			rows[i] = core.CategoryReport{
				Category:  cat,
				Budget:    budget,
				Spent:     spent,
				Remaining: budget.Sub(spent),
				Status:    core.ClassifyBudget(spent, budget),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.MonthlyReport{}, err
	}

	return core.MonthlyReport{
		Month:      month,
		Total:      total,
		Categories: rows,
	}, nil
}
