package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"budgetbook/internal/core"
	"budgetbook/internal/services"
)

func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", errorStatus(err))
		return
	}

	cats, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err, "user_id", userID)
		http.Error(w, "failed to load categories", http.StatusInternalServerError)
		return
	}
	catNames := make(map[int64]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}

	items, err := s.getExpenses(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense list error", "error", err, "user_id", userID)
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}

	type catRow struct {
		ID   int64
		Name string
	}
	type expenseRow struct {
		Date        string
		Category    string
		Amount      string
		Description string
	}
	data := struct {
		UserID     int64
		UserName   string
		Today      string
		Categories []catRow
		Expenses   []expenseRow
	}{
		UserID:   user.ID,
		UserName: user.Name,
		Today:    core.Today().String(),
	}
	for _, c := range cats {
		data.Categories = append(data.Categories, catRow{ID: c.ID, Name: c.Name})
	}
	for _, e := range items {
		data.Expenses = append(data.Expenses, expenseRow{
			Date:        e.Date.Format("2006-01-02"),
			Category:    catNames[e.CategoryID],
			Amount:      formatEuros(e.Amount.Cents),
			Description: e.Description,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "expenses.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Expenses template execution failed", "error", err, "template", "expenses.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		DomainErrorResponse(err).Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	categoryID, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("category_id")), 10, 64)
	if err != nil || categoryID <= 0 {
		UnprocessableEntityError("Choose a category").Write(w)
		return
	}

	amount, err := core.ParseExpenseAmount(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	// The form pre-fills today, so an empty date means the field was
	// tampered with or cleared; reject it rather than guess.
	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		UnprocessableEntityError("Date must be in YYYY-MM-DD form").Write(w)
		return
	}

	exp, eval, err := s.commands.RecordExpense(r.Context(), services.RecordExpenseInput{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      amount,
		Date:        date,
		Description: sanitizeInput(r.Form.Get("description")),
	})
	if err != nil {
		slog.WarnContext(r.Context(), "Expense rejected", "error", err, "user_id", userID, "category_id", categoryID)
		DomainErrorResponse(err).Write(w)
		return
	}

	month := core.MonthOf(exp.Date)
	s.invalidateUser(userID)
	s.accessLog.LogExpenseRecorded(r.Context(), userID, exp.CategoryID, exp.Amount.Cents, month.String())

	builder := NewHTMXResponse().
		TriggerExpenseRecorded(userID, month).
		TriggerFormReset().
		BodyHTML(`<div class="success">Recorded ` + formatEuros(exp.Amount.Cents) +
			` on ` + template.HTMLEscapeString(exp.Date.Format("2006-01-02")) + `</div>`)

	switch {
	case !eval.HasBudget, eval.Status == core.StatusOK:
		builder.TriggerSuccessNotification("Expense recorded")
	case eval.Status == core.StatusNearLimit:
		builder.TriggerWarningNotification(fmt.Sprintf("Near budget limit: %s remaining this month", formatEuros(eval.Remaining.Cents)))
	case eval.Status == core.StatusExceeded:
		builder.TriggerErrorNotification(fmt.Sprintf("Budget exceeded by %s this month", formatEuros(eval.Remaining.Abs().Cents)))
	}

	builder.Write(w)
}
