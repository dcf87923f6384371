// Package worker contains the budget alert consumer run by the alerts
// worker binary.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// AlertWorker processes budget alert messages. Alerts are re-checked
// against the store before being surfaced, since the budget or spend may
// have changed between publish and delivery. Repeated alerts for the same
// user, category, month and status are suppressed within a dedupe window.
type AlertWorker struct {
	store        store.Store
	dedupeWindow time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewAlertWorker(st store.Store, dedupeWindow time.Duration) *AlertWorker {
	return &AlertWorker{
		store:        st,
		dedupeWindow: dedupeWindow,
		seen:         make(map[string]time.Time),
	}
}

// HandleAlertMessage processes a single budget alert from AMQP. A nil
// return acknowledges the message; errors cause a redelivery.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.UserID <= 0 || msg.CategoryID <= 0 {
		slog.WarnContext(ctx, "Dropping malformed alert message",
			"user_id", msg.UserID, "category_id", msg.CategoryID)
		return nil
	}
	month, err := core.ParseMonth(msg.Month)
	if err != nil {
		slog.WarnContext(ctx, "Dropping alert with malformed month",
			"month", msg.Month, "user_id", msg.UserID)
		return nil
	}

	if w.suppressed(msg) {
		slog.DebugContext(ctx, "Suppressing duplicate alert",
			"user_id", msg.UserID, "category", msg.Category, "month", msg.Month, "status", msg.Status)
		return nil
	}

	// Re-evaluate against current data. The alert is stale when the
	// budget was raised or the offending expense removed in the meantime.
	ev, fresh, err := w.currentEvaluation(ctx, msg.UserID, msg.CategoryID, month)
	if err != nil {
		return fmt.Errorf("re-evaluate alert (user=%d, category=%d, month=%s): %w",
			msg.UserID, msg.CategoryID, msg.Month, err)
	}
	if !fresh {
		slog.InfoContext(ctx, "Alert is stale, budget back under threshold",
			"user_id", msg.UserID, "category", msg.Category, "month", msg.Month)
		return nil
	}

	w.record(msg)
	w.surface(ctx, msg, ev)
	return nil
}

// currentEvaluation recomputes the budget status. The second return is
// false when the alert no longer applies.
func (w *AlertWorker) currentEvaluation(ctx context.Context, userID, categoryID int64, month core.Month) (core.BudgetEvaluation, bool, error) {
	budget, err := w.store.GetBudget(ctx, userID, categoryID, month)
	if core.IsNotFound(err) {
		// User, category or budget deleted after publish.
		return core.BudgetEvaluation{}, false, nil
	}
	if err != nil {
		return core.BudgetEvaluation{}, false, err
	}

	spent, err := w.store.MonthlySpend(ctx, userID, categoryID, month)
	if err != nil {
		return core.BudgetEvaluation{}, false, err
	}

	ev := core.EvaluateBudget(spent, budget.Amount)
	return ev, ev.Status != core.StatusOK, nil
}

func (w *AlertWorker) surface(ctx context.Context, msg *amqp.BudgetAlertMessage, ev core.BudgetEvaluation) {
	attrs := []any{
		"user_id", msg.UserID,
		"category", msg.Category,
		"month", msg.Month,
		"spent_cents", ev.Spent.Cents,
		"budget_cents", ev.Budget.Cents,
		"remaining_cents", ev.Remaining.Cents,
	}
	switch ev.Status {
	case core.StatusExceeded:
		slog.ErrorContext(ctx, "Budget exceeded", attrs...)
	default:
		slog.WarnContext(ctx, "Budget near limit", attrs...)
	}
}

func dedupeKey(msg *amqp.BudgetAlertMessage) string {
	return fmt.Sprintf("%d:%d:%s:%s", msg.UserID, msg.CategoryID, msg.Month, msg.Status)
}

func (w *AlertWorker) suppressed(msg *amqp.BudgetAlertMessage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.seen[dedupeKey(msg)]
	return ok && time.Since(last) < w.dedupeWindow
}

func (w *AlertWorker) record(msg *amqp.BudgetAlertMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.seen[dedupeKey(msg)] = now

	// Drop entries that fell out of the window to bound the map.
	for key, ts := range w.seen {
		if now.Sub(ts) >= w.dedupeWindow {
			delete(w.seen, key)
		}
	}
}
