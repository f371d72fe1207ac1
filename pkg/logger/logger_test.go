package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// captureLogger returns a Logger writing JSON records into buf.
func captureLogger(buf *bytes.Buffer) *Logger {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(handler)}
}

func TestWithContextExtractsUpdateFields(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	ctx := ContextWithChatID(context.Background(), 42)
	ctx = ContextWithUpdateID(ctx, 7)

	log.WithContext(ctx).Info("handling update")

	out := buf.String()
	if !strings.Contains(out, `"chat_id":42`) {
		t.Errorf("expected chat_id in output, got %s", out)
	}
	if !strings.Contains(out, `"update_id":7`) {
		t.Errorf("expected update_id in output, got %s", out)
	}
}

func TestWithContextExtractsRunID(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	ctx := ContextWithRunID(context.Background(), "run-123")
	log.WithContext(ctx).Info("step complete")

	if !strings.Contains(buf.String(), `"run_id":"run-123"`) {
		t.Errorf("expected run_id in output, got %s", buf.String())
	}
}

func TestWithContextIgnoresEmptyValues(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	log.WithContext(context.Background()).Info("no request fields")

	out := buf.String()
	for _, field := range []string{"chat_id", "update_id", "run_id"} {
		if strings.Contains(out, field) {
			t.Errorf("expected %s to be absent, got %s", field, out)
		}
	}
}

func TestRunIDFromContext(t *testing.T) {
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty run ID, got %q", got)
	}

	ctx := ContextWithRunID(context.Background(), "run-abc")
	if got := RunIDFromContext(ctx); got != "run-abc" {
		t.Errorf("expected run-abc, got %q", got)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	log.WithComponent("poller").Info("started")

	if !strings.Contains(buf.String(), `"component":"poller"`) {
		t.Errorf("expected component in output, got %s", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	log.WithError(errors.New("boom")).Error("request failed")

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field in output, got %s", buf.String())
	}
}
