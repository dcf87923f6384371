package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newCaptureLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	return l, &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	l, buf := newCaptureLogger(ComponentWorker)

	l.Info("alert handled", "user_id", 7)

	out := buf.String()
	if !strings.Contains(out, "component=worker") {
		t.Fatalf("expected component field, got %s", out)
	}
	if !strings.Contains(out, "user_id=7") {
		t.Fatalf("expected caller attrs preserved, got %s", out)
	}
}

func TestWithComponentRestamps(t *testing.T) {
	l, buf := newCaptureLogger(ComponentApp)

	l.WithComponent(ComponentHTTP).Warn("slow response")
	if out := buf.String(); !strings.Contains(out, "component=http") {
		t.Fatalf("expected http component, got %s", out)
	}

	// The original logger keeps its own stamp.
	buf.Reset()
	l.Error("boom")
	if out := buf.String(); !strings.Contains(out, "component=app") {
		t.Fatalf("expected app component, got %s", out)
	}
}

func TestDefaultComponentFallback(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil)})
	if l.Component() != ComponentApp {
		t.Fatalf("expected default component, got %s", l.Component())
	}
}
