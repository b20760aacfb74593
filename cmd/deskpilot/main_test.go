package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/deskpilot/internal/config"
	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/internal/state"
	"github.com/ShayCichocki/deskpilot/internal/version"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

func init() {
	color.NoColor = true
}

func TestGoalFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"Open Notepad"}, "Open Notepad"},
		{[]string{" Create", "a", "web", "page "}, "Create a web page"},
	}
	for _, tt := range tests {
		if got := goalFromArgs(tt.args); got != tt.want {
			t.Errorf("goalFromArgs(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestRunStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want state.RunStatus
	}{
		{nil, state.RunCompleted},
		{orchestrator.ErrStopped, state.RunStopped},
		{fmt.Errorf("%w: %w", orchestrator.ErrStopped, context.Canceled), state.RunStopped},
		{orchestrator.ErrTaskLimit, state.RunFailed},
		{errors.New("boom"), state.RunFailed},
	}
	for _, tt := range tests {
		if got := runStatusFor(tt.err); got != tt.want {
			t.Errorf("runStatusFor(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
		{49 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

type recordingNotifier struct {
	recipient, subject, body string
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, subject, body string) {
	n.recipient, n.subject, n.body = recipient, subject, body
}

func TestNotifyRunFailure(t *testing.T) {
	n := &recordingNotifier{}
	notifyRunFailure(n, "ops@example.com", errors.New("decomposition failed"))

	if n.recipient != "ops@example.com" || n.subject != "Task Execution Failed" {
		t.Errorf("notification = %+v", n)
	}
	if n.body != "The task execution has failed: decomposition failed" {
		t.Errorf("body = %q", n.body)
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	report := &orchestrator.Report{
		Tasks:      []models.Task{{ID: "1", Description: "Open editor"}, {ID: "3", Description: "Save file"}},
		Successful: 2,
		Processed:  3,
		Dropped: []orchestrator.DroppedTask{
			{Task: models.Task{ID: "2", Description: "Type text"}, Err: errors.New("api down")},
		},
	}

	printReport(&buf, report)
	out := buf.String()
	for _, want := range []string{
		"Execution completed. 2/3 tasks successful (66.7%)",
		"1: Open editor",
		"3: Save file",
		"Dropped tasks:",
		"2: Type text (api down)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTaskList_Empty(t *testing.T) {
	var buf bytes.Buffer
	printTaskList(&buf, "Task list:", nil)
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestStatusOutput(t *testing.T) {
	db, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	j, err := state.StartRun(db, "Build a web page", nil)
	if err != nil {
		t.Fatal(err)
	}
	j.HandleEvent(orchestrator.Event{Type: orchestrator.EventTaskStarted, TaskID: "1", Description: "Open editor", Timestamp: time.Now()})
	j.HandleEvent(orchestrator.Event{Type: orchestrator.EventAttemptFailed, TaskID: "1", Attempt: 1, Error: errors.New("exit status 1"), Timestamp: time.Now()})
	if err := j.Finish(state.RunCompleted, 1, 1, "Execution completed. 1/1 tasks successful (100.0%)"); err != nil {
		t.Fatal(err)
	}

	var list bytes.Buffer
	if err := listRuns(&list, db, 5); err != nil {
		t.Fatalf("listRuns failed: %v", err)
	}
	if !strings.Contains(list.String(), j.RunID()) || !strings.Contains(list.String(), "completed") {
		t.Errorf("list = %q", list.String())
	}

	var detail bytes.Buffer
	if err := showRun(&detail, db, j.RunID()); err != nil {
		t.Fatalf("showRun failed: %v", err)
	}
	for _, want := range []string{"Goal: Build a web page", "task_started", "Open editor", "exit status 1", "Summary: Execution completed."} {
		if !strings.Contains(detail.String(), want) {
			t.Errorf("detail missing %q:\n%s", want, detail.String())
		}
	}

	if err := showRun(&detail, db, "missing"); err == nil {
		t.Error("showRun of unknown id should fail")
	}
}

func TestDisplayConfig_MasksSecrets(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"
	cfg.SMTP.Password = "hunter2"

	var buf bytes.Buffer
	displayConfig(&buf, cfg)
	out := buf.String()

	if strings.Contains(out, "abcdefghijklmnop") || strings.Contains(out, "hunter2") {
		t.Errorf("secrets leaked:\n%s", out)
	}
	if !strings.Contains(out, "anthropic.api_key: sk-ant-...wxyz [config_file]") {
		t.Errorf("api key line missing:\n%s", out)
	}
	if !strings.Contains(out, "execution.script_timeout: 2m0s") {
		t.Errorf("timeout line missing:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if strings.TrimSpace(buf.String()) != version.String() {
		t.Errorf("version output = %q", buf.String())
	}
}
