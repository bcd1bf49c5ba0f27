package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithLevel(&buf, "info")

	l.Debug("[test] hidden %d", 1)
	l.Info("[test] shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "[test] shown 2") {
		t.Errorf("info line missing: %q", out)
	}
}

func TestLoggerWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithLevel(&buf, "debug").With("run", "abc")

	l.Warn("[ingest] something")
	if !strings.Contains(buf.String(), "run=abc") {
		t.Errorf("expected run field in %q", buf.String())
	}
}

func TestLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithLevel(&buf, "loud")

	l.Debug("[test] hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("invalid level should fall back to info")
	}
	if !strings.Contains(buf.String(), "Invalid LOG_LEVEL") {
		t.Errorf("expected warning about invalid level, got %q", buf.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithLevel(&buf, "info")
	child := l.With("run", "x")

	l.SetLevel("debug")
	child.Debug("[test] now visible")
	l.SetLevel("nonsense")
	l.Debug("[test] still debug")

	out := buf.String()
	if !strings.Contains(out, "now visible") || !strings.Contains(out, "still debug") {
		t.Errorf("expected debug lines after SetLevel: %q", out)
	}
}
