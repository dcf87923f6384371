package amqp

import (
	"encoding/json"
	"time"

	"budgetbook/internal/core"
)

// BudgetAlertMessage notifies the alerts worker that a category's monthly
// spend has crossed its budget threshold. It carries everything the worker
// needs to surface the alert without a database round trip.
type BudgetAlertMessage struct {
	UserID      int64             `json:"user_id"`
	CategoryID  int64             `json:"category_id"`
	Category    string            `json:"category"`
	Month       string            `json:"month"` // YYYY-MM
	Status      core.BudgetStatus `json:"status"`
	SpentCents  int64             `json:"spent_cents"`
	BudgetCents int64             `json:"budget_cents"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewBudgetAlertMessage builds an alert message from a budget evaluation.
func NewBudgetAlertMessage(userID int64, cat core.Category, month core.Month, ev core.BudgetEvaluation) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		UserID:      userID,
		CategoryID:  cat.ID,
		Category:    cat.Name,
		Month:       month.String(),
		Status:      ev.Status,
		SpentCents:  ev.Spent.Cents,
		BudgetCents: ev.Budget.Cents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
