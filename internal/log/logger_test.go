package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentWorker, Writer: &buf, NoColor: true})

	logger.Info("ledger reconciled", FieldUserID, "u1")
	logger.Debug("hidden")
	logger.WithComponent(ComponentSheets).Warn("slow append")

	out := buf.String()
	for _, want := range []string{"ledger reconciled", "component=worker", "user_id=u1", "component=sheets", "slow append"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Writer: &buf, NoColor: true})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "handled")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req_1") || !strings.Contains(out, "component=http") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("FromContext without logger component = %q, want unknown", got)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithUser("u1").WithRequestID("").WithError(nil, ErrorTypeInternal)
	if len(f) != 1 || f[FieldUserID] != "u1" {
		t.Errorf("fields = %v", f)
	}
	if got := len(f.ToSlice()); got != 2 {
		t.Errorf("ToSlice() len = %d, want 2", got)
	}
}
