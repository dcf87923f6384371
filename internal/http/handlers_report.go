package http

import (
	"log/slog"
	"net/http"
)

// handleReport renders the monthly report: one row per category with budget,
// spend, remaining and status, plus the month total.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
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
	report, err := s.getReport(r.Context(), userID, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report error", "error", err, "user_id", userID, "month", month.String())
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	type reportRow struct {
		Category    string
		Budget      string
		Spent       string
		Remaining   string
		StatusLabel string
		StatusClass string
		Overspent   bool
	}
	data := struct {
		UserID    int64
		UserName  string
		Month     string
		PrevMonth string
		NextMonth string
		Total     string
		Rows      []reportRow
	}{
		UserID:    user.ID,
		UserName:  user.Name,
		Month:     month.String(),
		PrevMonth: month.Prev().String(),
		NextMonth: month.Next().String(),
		Total:     formatEuros(report.Total.Cents),
	}
	for _, row := range report.Categories {
		data.Rows = append(data.Rows, reportRow{
			Category:    row.Category.Name,
			Budget:      formatEuros(row.Budget.Cents),
			Spent:       formatEuros(row.Spent.Cents),
			Remaining:   formatEuros(row.Remaining.Cents),
			StatusLabel: statusLabel(row.Status),
			StatusClass: statusClass(row.Status),
			Overspent:   row.Remaining.IsNegative(),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "report.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Report template execution failed", "error", err, "template", "report.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
