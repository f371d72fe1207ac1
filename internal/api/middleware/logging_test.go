package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func loggedRequest(t *testing.T, path string, status int) string {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return buf.String()
}

func TestRequestLoggerDemotesHealthChecks(t *testing.T) {
	for _, path := range []string{"/health", "/ready"} {
		out := loggedRequest(t, path, http.StatusOK)
		if !strings.Contains(out, `"level":"DEBUG"`) {
			t.Errorf("%s: expected debug level, got %s", path, out)
		}
	}
}

func TestRequestLoggerLogsOtherPathsAtInfo(t *testing.T) {
	out := loggedRequest(t, "/whoami", http.StatusOK)
	if !strings.Contains(out, `"level":"INFO"`) {
		t.Errorf("expected info level, got %s", out)
	}
	if !strings.Contains(out, `"path":"/whoami"`) {
		t.Errorf("expected path attr, got %s", out)
	}
}

func TestRequestLoggerElevatesFailures(t *testing.T) {
	out := loggedRequest(t, "/ready", http.StatusServiceUnavailable)
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("expected warn level for a failing check, got %s", out)
	}

	out = loggedRequest(t, "/whoami", http.StatusInternalServerError)
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("expected error level for a 500, got %s", out)
	}
}
