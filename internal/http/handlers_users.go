package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"budgetbook/internal/core"
)

// handleIndex renders the landing page: the user list plus a creation form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "User list error", "error", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}

	type userRow struct {
		ID    int64
		Name  string
		Email string
	}
	data := struct {
		Users []userRow
	}{}
	for _, u := range users {
		data.Users = append(data.Users, userRow{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	email := sanitizeInput(r.Form.Get("email"))

	user, err := s.commands.CreateUser(r.Context(), name, email)
	if err != nil {
		slog.WarnContext(r.Context(), "User creation rejected", "error", err, "name", name)
		DomainErrorResponse(err).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "User created", "user_id", user.ID, "name", user.Name)
	NewHTMXResponse().
		TriggerUserCreated(user.ID).
		TriggerFormReset().
		TriggerSuccessNotification("User " + user.Name + " created").
		BodyHTML(`<div class="success">User <strong>` + template.HTMLEscapeString(user.Name) + `</strong> created (#` + strconv.FormatInt(user.ID, 10) + `)</div>`).
		Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		DomainErrorResponse(err).Write(w)
		return
	}

	if err := s.commands.DeleteUser(r.Context(), userID); err != nil {
		slog.WarnContext(r.Context(), "User deletion failed", "error", err, "user_id", userID)
		DomainErrorResponse(err).Write(w)
		return
	}

	s.invalidateUser(userID)
	slog.InfoContext(r.Context(), "User deleted", "user_id", userID)
	NewHTMXResponse().
		TriggerUserDeleted(userID).
		TriggerSuccessNotification("User deleted").
		BodyHTML(`<div class="success">User deleted</div>`).
		Write(w)
}

// handleDashboard renders the per-user dashboard: the current month report
// summary with links to the detail pages.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
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
		slog.ErrorContext(r.Context(), "Dashboard report error", "error", err, "user_id", userID, "month", month.String())
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	exceeded, near := 0, 0
	for _, row := range report.Categories {
		switch row.Status {
		case core.StatusExceeded:
			exceeded++
		case core.StatusNearLimit:
			near++
		}
	}

	data := struct {
		UserID     int64
		UserName   string
		Month      string
		PrevMonth  string
		NextMonth  string
		Total      string
		Categories int
		Exceeded   int
		NearLimit  int
	}{
		UserID:     user.ID,
		UserName:   user.Name,
		Month:      month.String(),
		PrevMonth:  month.Prev().String(),
		NextMonth:  month.Next().String(),
		Total:      formatEuros(report.Total.Cents),
		Categories: len(report.Categories),
		Exceeded:   exceeded,
		NearLimit:  near,
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
