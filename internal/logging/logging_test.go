package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}

	var buf bytes.Buffer
	logger := New(&buf, "info")
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected stored logger")
	}
	if WithLogger(ctx, nil) != ctx {
		t.Fatal("nil logger must not change the context")
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("unexpected request id %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestSpansShareTraceAndLinkParents(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "info"))
	ctx = WithRequestID(ctx, "req-42")

	outerCtx, outer := StartSpan(ctx, "outer")
	innerCtx, inner := StartSpan(outerCtx, "inner")

	if TraceIDFromContext(innerCtx) != "req-42" {
		t.Fatalf("expected trace id from request id, got %q", TraceIDFromContext(innerCtx))
	}
	if SpanIDFromContext(innerCtx) == SpanIDFromContext(outerCtx) {
		t.Fatal("expected a new span id for the child span")
	}

	inner.Fail(errors.New("boom"))
	inner.End()
	outer.End()

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["msg"] != "span failed" || lines[0]["error"] != "boom" {
		t.Fatalf("unexpected inner entry %v", lines[0])
	}
	if lines[0]["parent_span_id"] != SpanIDFromContext(outerCtx) {
		t.Fatalf("inner span should point at outer span, got %v", lines[0]["parent_span_id"])
	}
	if lines[1]["msg"] != "span completed" || lines[1]["span_name"] != "outer" {
		t.Fatalf("unexpected outer entry %v", lines[1])
	}
	for _, line := range lines {
		if line["trace_id"] != "req-42" {
			t.Fatalf("expected trace id on every span line, got %v", line)
		}
	}
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.Fail(errors.New("ignored"))
	s.End()
}
