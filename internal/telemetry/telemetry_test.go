package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"debug":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_JSONWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := WithItem(WithJobID(NewLogger(&buf, "json", slog.LevelInfo), "job-1"), "B0TEST")

	logger.Info("item started")
	logger.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["job_id"] != "job-1" || rec["item"] != "B0TEST" {
		t.Errorf("context fields missing: %v", rec)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "TEXT", slog.LevelInfo).Info("hello", "k", "v")

	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text format, got %q", buf.String())
	}
}

func TestMetricsRecorders(t *testing.T) {
	// регистрация promauto прошла, запись не паникует
	RecordJob("SUCCEEDED")
	RecordItem("FAILED")
	RecordAttempt("FAILED")
	ObserveStep("navigate", 10*time.Millisecond, nil)
	ObserveStep("download", time.Second, errors.New("timeout"))
	RecordSnapshotFailure()
	RecordAuthFailure()
}
