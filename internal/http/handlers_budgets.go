package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleBudgetsPage(w http.ResponseWriter, r *http.Request) {
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

	month := queryMonth(r)
	cats, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err, "user_id", userID)
		http.Error(w, "failed to load categories", http.StatusInternalServerError)
		return
	}
	budgets, err := s.store.ListBudgets(r.Context(), userID, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget list error", "error", err, "user_id", userID, "month", month.String())
		http.Error(w, "failed to load budgets", http.StatusInternalServerError)
		return
	}

	current := make(map[int64]string, len(budgets))
	for _, b := range budgets {
		current[b.CategoryID] = b.Amount.String()
	}

	type budgetRow struct {
		CategoryID int64
		Name       string
		Amount     string
	}
	data := struct {
		UserID    int64
		UserName  string
		Month     string
		PrevMonth string
		NextMonth string
		Rows      []budgetRow
	}{
		UserID:    user.ID,
		UserName:  user.Name,
		Month:     month.String(),
		PrevMonth: month.Prev().String(),
		NextMonth: month.Next().String(),
	}
	for _, c := range cats {
		data.Rows = append(data.Rows, budgetRow{
			CategoryID: c.ID,
			Name:       c.Name,
			Amount:     current[c.ID],
		})
	}

	if err := s.templates.ExecuteTemplate(w, "budgets.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Budgets template execution failed", "error", err, "template", "budgets.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSaveBudgets applies a batched budget form. Fields are named
// amount_<categoryID>; blank fields are skipped, malformed ones reported
// per item without aborting the rest.
func (s *Server) handleSaveBudgets(w http.ResponseWriter, r *http.Request) {
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

	month, err := formMonth(r)
	if err != nil {
		UnprocessableEntityError("Month must be in YYYY-MM form").Write(w)
		return
	}

	rawAmounts := make(map[int64]string)
	for field, values := range r.Form {
		id, ok := strings.CutPrefix(field, "amount_")
		if !ok || len(values) == 0 {
			continue
		}
		catID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		rawAmounts[catID] = values[0]
	}

	saved, itemErrs, err := s.commands.SaveBudgets(r.Context(), userID, month, rawAmounts)
	if err != nil {
		slog.WarnContext(r.Context(), "Budget save failed", "error", err, "user_id", userID, "month", month.String())
		DomainErrorResponse(err).Write(w)
		return
	}

	s.invalidateUser(userID)
	slog.InfoContext(r.Context(), "Budgets saved",
		"user_id", userID, "month", month.String(), "saved", saved, "rejected", len(itemErrs))

	var body strings.Builder
	fmt.Fprintf(&body, `<div class="success">Saved %d budget(s) for %s</div>`, saved, template.HTMLEscapeString(month.String()))
	for _, ie := range itemErrs {
		fmt.Fprintf(&body, `<div class="error">%s: %s</div>`,
			template.HTMLEscapeString(ie.Category.Name), template.HTMLEscapeString(ie.Err.Error()))
	}

	builder := NewHTMXResponse().
		TriggerBudgetsSaved(userID, month).
		BodyHTML(body.String())
	if len(itemErrs) > 0 {
		builder.TriggerWarningNotification(fmt.Sprintf("Saved %d budget(s), %d entries rejected", saved, len(itemErrs)))
	} else {
		builder.TriggerSuccessNotification(fmt.Sprintf("Saved %d budget(s)", saved))
	}
	builder.Write(w)
}
