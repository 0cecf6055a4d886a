package slogutil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("snapshot matched", "file", "Test.verified.txt", "count", 42)

	output := buf.String()
	for _, want := range []string{"[info]", "snapshot matched", " | file=Test.verified.txt", " count=42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestLineHandler_Values(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"plain string", "abc", "k=abc"},
		{"string with space", "a b", `k="a b"`},
		{"empty string", "", `k=""`},
		{"duration", 1500 * time.Millisecond, "k=1.5s"},
		{"error", errors.New("disk full"), `k="disk full"`},
		{"bool", true, "k=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, slog.LevelInfo).Info("m", "k", tt.value)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %s in output, got: %s", tt.want, buf.String())
			}
		})
	}
}

func TestLineHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("run", "r1").WithGroup("target")

	logger.Info("compared", "ext", "txt")

	output := buf.String()
	if !strings.Contains(output, "| run=r1 target.ext=txt") {
		t.Errorf("expected grouped attributes, got: %s", output)
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	output := buf.String()
	if strings.Contains(output, "[debug]") || strings.Contains(output, "[info]") {
		t.Errorf("records below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "[warn]") || !strings.Contains(output, "[error]") {
		t.Errorf("warn and error should be logged, got: %s", output)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")

	if !strings.Contains(buf.String(), `"msg":"hello"`) || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}

	buf.Reset()
	New(&buf, "human", slog.LevelInfo).Info("hello")
	if !strings.Contains(buf.String(), "[info] hello") {
		t.Errorf("expected line output, got: %s", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		base      slog.Level
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{slog.LevelWarn, 0, false, slog.LevelWarn},
		{slog.LevelWarn, 1, false, slog.LevelInfo},
		{slog.LevelWarn, 2, false, slog.LevelDebug},
		{slog.LevelWarn, 5, false, slog.LevelDebug},
		{slog.LevelError, 1, false, slog.LevelWarn},
		{slog.LevelInfo, 3, true, levelOff},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.base, tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%v, %d, %v) = %v, want %v", tt.base, tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled at error level")
	}
	logger.Error("dropped")
}
