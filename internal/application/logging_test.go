package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/example/exam-scheduler/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		out = append(out, entry)
	}
	return out
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)))

	serviceLogger(ctx, baseLogger, "ExamService", "Propose", "exam_id", "e1").Info("hello")

	if base.Len() != 0 {
		t.Fatalf("expected base logger to stay silent")
	}
	entries := decodeLines(t, &scoped)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["service"] != "ExamService" || entry["operation"] != "Propose" || entry["exam_id"] != "e1" {
		t.Fatalf("unexpected attributes: %v", entry)
	}
}

func TestLogOutcomeLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := context.Background()

	logOutcome(ctx, logger, nil, "failed", "done", "exam_id", "e1")
	logOutcome(ctx, logger, &ConflictError{Reason: "slot taken"}, "failed", "done")
	logOutcome(ctx, logger, io.ErrUnexpectedEOF, "failed", "done")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("expected three entries, got %d", len(entries))
	}
	want := []struct{ level, msg, kind string }{
		{"INFO", "done", ""},
		{"WARN", "failed", "conflict"},
		{"ERROR", "failed", "unexpected"},
	}
	for i, w := range want {
		if entries[i]["level"] != w.level || entries[i]["msg"] != w.msg {
			t.Fatalf("entry %d: expected %s %q, got %v", i, w.level, w.msg, entries[i])
		}
		if w.kind != "" && entries[i]["error_kind"] != w.kind {
			t.Fatalf("entry %d: expected kind %q, got %v", i, w.kind, entries[i]["error_kind"])
		}
	}
	if entries[0]["exam_id"] != "e1" {
		t.Fatalf("expected success attributes, got %v", entries[0])
	}
}
