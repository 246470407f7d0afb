package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	l.With(String("component", "test")).Info(context.Background(), "evaluated",
		Int("issues", 3), Float("mass_kg", 214.5), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "evaluated" || rec["component"] != "test" || rec["error"] != "boom" {
		t.Errorf("record = %v", rec)
	}
	if rec["issues"] != float64(3) || rec["mass_kg"] != 214.5 {
		t.Errorf("numeric fields = %v %v", rec["issues"], rec["mass_kg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	ctx := context.Background()

	l.Debug(ctx, "debug message")
	l.Info(ctx, "info message")
	l.Warn(ctx, "warn message")
	l.Error(ctx, "error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn leaked: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("missing messages: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"":        "INFO",
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).Level().String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("request id %q is not a UUID: %v", id, err)
	}
	again, id2 := EnsureRequestID(ctx)
	if id2 != id || RequestIDFromContext(again) != id {
		t.Errorf("existing id should be kept, got %q then %q", id, id2)
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	ctx := ContextWithRequestID(context.Background(), "req-1")

	ctx, l := WithRequestLogger(ctx, base)
	FromContext(ContextWithLogger(ctx, l)).Info(ctx, "hello")

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	l := FromContext(context.Background())
	if _, ok := l.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", l)
	}
	// Must not panic.
	l.With(String("k", "v")).Error(context.Background(), "dropped")
}
