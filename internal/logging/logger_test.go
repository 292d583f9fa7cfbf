package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewWritesToExtraWriters(t *testing.T) {
	buf := NewLogBuffer(10)
	logger, err := New(Options{Level: "warn", Format: "json", Extra: []io.Writer{buf}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "job_id", "abc")

	logs := buf.GetLogs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 buffered line, got %d: %v", len(logs), logs)
	}
	if !strings.Contains(logs[0], `"msg":"kept"`) || !strings.Contains(logs[0], `"job_id":"abc"`) {
		t.Fatalf("unexpected json line %q", logs[0])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLogBufferKeepsNewestLines(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(buf, "line %d\n", i)
	}
	logs := buf.GetLogs()
	if len(logs) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(logs))
	}
	if logs[0] != "line 2\n" || logs[2] != "line 4\n" {
		t.Fatalf("unexpected lines %q", logs)
	}

	logs[0] = "mutated"
	if buf.GetLogs()[0] != "line 2\n" {
		t.Fatal("GetLogs should return a copy")
	}
}

func TestNewLogBufferDefault(t *testing.T) {
	if buf := NewLogBuffer(0); buf.max != DefaultBufferLines {
		t.Fatalf("expected default capacity %d, got %d", DefaultBufferLines, buf.max)
	}
}
