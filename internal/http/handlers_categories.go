package http

import (
	"html/template"
	"log/slog"
	"net/http"
)

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
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

	type catRow struct {
		ID   int64
		Name string
	}
	data := struct {
		UserID     int64
		UserName   string
		Categories []catRow
	}{UserID: user.ID, UserName: user.Name}
	for _, c := range cats {
		data.Categories = append(data.Categories, catRow{ID: c.ID, Name: c.Name})
	}

	if err := s.templates.ExecuteTemplate(w, "categories.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Categories template execution failed", "error", err, "template", "categories.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
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

	name := sanitizeInput(r.Form.Get("name"))
	cat, err := s.commands.CreateCategory(r.Context(), userID, name)
	if err != nil {
		slog.WarnContext(r.Context(), "Category creation rejected", "error", err, "user_id", userID, "name", name)
		DomainErrorResponse(err).Write(w)
		return
	}

	s.invalidateUser(userID)
	slog.InfoContext(r.Context(), "Category created", "user_id", userID, "category_id", cat.ID, "name", cat.Name)
	NewHTMXResponse().
		TriggerCategoryCreated(userID).
		TriggerFormReset().
		TriggerSuccessNotification("Category " + cat.Name + " added").
		BodyHTML(`<div class="success">Category <strong>` + template.HTMLEscapeString(cat.Name) + `</strong> added</div>`).
		Write(w)
}
