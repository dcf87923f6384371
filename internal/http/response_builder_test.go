package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetbook/internal/core"
)

func TestHTMXResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		TriggerUserCreated(7).
		TriggerSuccessNotification("done").
		BodyHTML(`<div class="success">ok</div>`).
		Write(rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected html content type, got %s", ct)
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "user:created") || !strings.Contains(trigger, "show-notification") {
		t.Fatalf("expected both triggers, got %s", trigger)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("expected body written")
	}
}

func TestNoTriggerHeaderWithoutTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().BodyString("plain").Write(rec)

	if rec.Header().Get("HX-Trigger") != "" {
		t.Fatalf("expected no HX-Trigger header")
	}
}

func TestErrorResponseEscapesHTML(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponse(http.StatusUnprocessableEntity, `<script>alert("x")</script>`).Write(rec)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<script>") {
		t.Fatalf("expected escaped markup, got %s", rec.Body.String())
	}
}

func TestDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", core.Validation("name", "required"), http.StatusUnprocessableEntity},
		{"not found", core.NotFound("user", 7), http.StatusNotFound},
		{"conflict", core.Conflict("category", "duplicate name"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			DomainErrorResponse(tc.err).Write(rec)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
