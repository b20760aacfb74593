package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var lineRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - (DEBUG|INFO|WARN|ERROR) - `)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewLineHandler(&buf, slog.LevelInfo))

	log.Info("Task 1 completed successfully", "task_id", "1", "note", "two words")

	line := buf.String()
	if !lineRE.MatchString(line) {
		t.Fatalf("line has wrong prefix: %q", line)
	}
	if !strings.HasSuffix(line, `- INFO - Task 1 completed successfully task_id=1 note="two words"`+"\n") {
		t.Errorf("line = %q", line)
	}
}

func TestLineHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewLineHandler(&buf, slog.LevelWarn))

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(buf.String(), "- WARN - shown") {
		t.Errorf("warn line missing: %q", buf.String())
	}
}

func TestLineHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewLineHandler(&buf, slog.LevelDebug)).With("run", "abc").WithGroup("script")

	log.Debug("retry", "attempt", 2, slog.Group("cmd", "name", "python3"))

	want := " - DEBUG - retry run=abc script.attempt=2 script.cmd.name=python3\n"
	if !strings.HasSuffix(buf.String(), want) {
		t.Errorf("line = %q, want suffix %q", buf.String(), want)
	}
}

func TestNew_FileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "execution.log")
	var console bytes.Buffer

	logger, err := New(Options{File: path, Level: "info", Console: true, Stderr: &console})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("Starting task execution")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "Starting task execution") {
		t.Errorf("file = %q", data)
	}
	if console.String() != string(data) {
		t.Errorf("console = %q, file = %q", console.String(), data)
	}
}

func TestNew_Discard(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	logger.Error("nowhere")
	if err := logger.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
