package services

import (
	"context"
	"testing"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/store/memory"
)

func TestMonthlyReport(t *testing.T) {
	st := memory.New()
	cmds := NewCommands(st, nil)
	reports := NewReports(st)
	ctx := context.Background()
	month := core.Month{Year: 2025, Mon: time.March}

	u, _ := cmds.CreateUser(ctx, "Alice", "")
	food, _ := cmds.CreateCategory(ctx, u.ID, "Food")
	transport, _ := cmds.CreateCategory(ctx, u.ID, "Transport")
	fun, _ := cmds.CreateCategory(ctx, u.ID, "Fun")

	if _, _, err := cmds.SaveBudgets(ctx, u.ID, month, map[int64]string{
		food.ID:      "100",
		transport.ID: "50",
	}); err != nil {
		t.Fatalf("save budgets: %v", err)
	}

	spend := func(catID, cents int64, day int) {
		t.Helper()
		if _, _, err := cmds.RecordExpense(ctx, RecordExpenseInput{
			UserID:     u.ID,
			CategoryID: catID,
			Amount:     core.Money{Cents: cents},
			Date:       core.NewDate(2025, time.March, day),
		}); err != nil {
			t.Fatalf("record expense: %v", err)
		}
	}
	spend(food.ID, 12000, 3)     // exceeds 100 budget by 20
	spend(transport.ID, 4600, 8) // 46 of 50, near limit
	spend(fun.ID, 700, 12)       // no budget set

	// An expense in another month must not leak into the report.
	spend(food.ID, 5000, 3)
	if _, _, err := cmds.RecordExpense(ctx, RecordExpenseInput{
		UserID:     u.ID,
		CategoryID: food.ID,
		Amount:     core.Money{Cents: 99900},
		Date:       core.NewDate(2025, time.April, 1),
	}); err != nil {
		t.Fatalf("record april expense: %v", err)
	}

	rep, err := reports.MonthlyReport(ctx, u.ID, month)
	if err != nil {
		t.Fatalf("monthly report: %v", err)
	}

	wantTotal := int64(12000 + 4600 + 700 + 5000)
	if rep.Total.Cents != wantTotal {
		t.Fatalf("expected total %d, got %d", wantTotal, rep.Total.Cents)
	}
	if len(rep.Categories) != 3 {
		t.Fatalf("expected 3 category rows, got %d", len(rep.Categories))
	}

	byName := make(map[string]core.CategoryReport)
	for _, row := range rep.Categories {
		byName[row.Category.Name] = row
	}

	foodRow := byName["Food"]
	if foodRow.Status != core.StatusExceeded {
		t.Fatalf("food expected exceeded, got %s", foodRow.Status)
	}
	if foodRow.Spent.Cents != 17000 || foodRow.Budget.Cents != 10000 {
		t.Fatalf("food row mismatch: %+v", foodRow)
	}

	transportRow := byName["Transport"]
	if transportRow.Status != core.StatusNearLimit {
		t.Fatalf("transport expected near limit, got %s", transportRow.Status)
	}
	if transportRow.Remaining.Cents != 400 {
		t.Fatalf("transport expected 400 remaining, got %d", transportRow.Remaining.Cents)
	}

	funRow := byName["Fun"]
	if funRow.Budget.Cents != 0 {
		t.Fatalf("fun budget should default to zero, got %d", funRow.Budget.Cents)
	}
	if funRow.Status != core.StatusExceeded {
		// Any spend against a zero budget is an overrun.
		t.Fatalf("fun expected exceeded, got %s", funRow.Status)
	}
}

func TestMonthlyReportEmptyMonth(t *testing.T) {
	st := memory.New()
	cmds := NewCommands(st, nil)
	reports := NewReports(st)
	ctx := context.Background()

	u, _ := cmds.CreateUser(ctx, "Alice", "")
	_, _ = cmds.CreateCategory(ctx, u.ID, "Food")

	rep, err := reports.MonthlyReport(ctx, u.ID, core.Month{Year: 2030, Mon: time.January})
	if err != nil {
		t.Fatalf("monthly report: %v", err)
	}
	if rep.Total.Cents != 0 {
		t.Fatalf("expected zero total, got %d", rep.Total.Cents)
	}
	if len(rep.Categories) != 1 || rep.Categories[0].Status != core.StatusOK {
		t.Fatalf("empty month should be ok per category, got %+v", rep.Categories)
	}
}

func TestMonthlyReportUnknownUser(t *testing.T) {
	reports := NewReports(memory.New())
	if _, err := reports.MonthlyReport(context.Background(), 42, core.CurrentMonth()); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
