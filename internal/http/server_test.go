package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/services"
	"budgetbook/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	commands := services.NewCommands(st, nil)
	reports := services.NewReports(st)
	s := NewServer(":0", st, commands, reports)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s, st
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := get(s, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestCreateUser(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s, "/users", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Ada") {
		t.Fatalf("expected confirmation fragment, got %s", rec.Body.String())
	}
	if trigger := rec.Header().Get("HX-Trigger"); !strings.Contains(trigger, "user:created") {
		t.Fatalf("expected user:created trigger, got %s", trigger)
	}

	// Blank name fails validation.
	rec = postForm(s, "/users", url.Values{"name": {"   "}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank name, got %d", rec.Code)
	}

	// Duplicate email conflicts.
	rec = postForm(s, "/users", url.Values{"name": {"Grace"}, "email": {"ada@example.com"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	s, st := newTestServer(t)

	u, err := st.CreateUser(context.Background(), core.User{Name: "Ada"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	path := "/users/" + strconv.FormatInt(u.ID, 10) + "/delete"
	rec := postForm(s, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := st.GetUser(context.Background(), u.ID); !core.IsNotFound(err) {
		t.Fatalf("expected user gone, got %v", err)
	}

	// Deleting again is a 404.
	rec = postForm(s, path, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIndexListsUsers(t *testing.T) {
	s, st := newTestServer(t)

	if _, err := st.CreateUser(context.Background(), core.User{Name: "Ada"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := get(s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Ada") {
		t.Fatalf("expected user name in page")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s, "/")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected frame options header")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("expected CSP header")
	}
}

func TestRateLimitOnPost(t *testing.T) {
	s, _ := newTestServer(t)

	var last int
	for i := 0; i < 61; i++ {
		rec := postForm(s, "/users", url.Values{"name": {"   "}})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 60 requests, got %d", last)
	}
}
