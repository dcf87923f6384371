package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
)

// expenseListLimit caps the expense history shown on the expenses page.
const expenseListLimit = 50

type contextKey string

const requestIDKey contextKey = "request_id"

// pathUserID extracts the {id} path segment as a user ID.
func pathUserID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validation("id", "must be a positive integer")
	}
	return id, nil
}

// queryMonth parses the month query parameter in YYYY-MM form, defaulting
// to the current month when absent or malformed.
func queryMonth(r *http.Request) core.Month {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return core.CurrentMonth()
	}
	month, err := core.ParseMonth(raw)
	if err != nil {
		return core.CurrentMonth()
	}
	return month
}

// formMonth parses the month form field in YYYY-MM form. An empty field
// falls back to the current month: the budget form always submits its
// month input, so the fallback only serves hand-built requests.
func formMonth(r *http.Request) (core.Month, error) {
	raw := strings.TrimSpace(r.Form.Get("month"))
	if raw == "" {
		return core.CurrentMonth(), nil
	}
	return core.ParseMonth(raw)
}

// formatEuros formats cents as a Euro currency string (e.g., "€12,34").
func formatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(euros, 10) + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// statusLabel maps a budget status to its display text.
func statusLabel(status core.BudgetStatus) string {
	switch status {
	case core.StatusExceeded:
		return "Exceeded"
	case core.StatusNearLimit:
		return "Near limit"
	default:
		return "OK"
	}
}

// statusClass maps a budget status to its CSS class.
func statusClass(status core.BudgetStatus) string {
	switch status {
	case core.StatusExceeded:
		return "status-exceeded"
	case core.StatusNearLimit:
		return "status-near"
	default:
		return "status-ok"
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
