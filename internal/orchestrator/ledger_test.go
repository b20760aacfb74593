package orchestrator

import (
	"errors"
	"testing"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

func TestLedger_InitializeAndStatus(t *testing.T) {
	l := NewLedger(3)

	if got := l.Status("1"); got != models.TaskStatusUnknown {
		t.Errorf("status before init = %s, want unknown", got)
	}
	if err := l.Initialize("1"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := l.Status("1"); got != models.TaskStatusPending {
		t.Errorf("status = %s, want pending", got)
	}

	l.UpdateStatus("1", models.TaskStatusFailed)
	if got := l.Status("1"); got != models.TaskStatusFailed {
		t.Errorf("status = %s, want failed", got)
	}
}

func TestLedger_IncrementRetryBudget(t *testing.T) {
	l := NewLedger(2)
	_ = l.Initialize("1")

	want := []bool{true, true, false, false}
	for i, w := range want {
		if got := l.IncrementRetry("1"); got != w {
			t.Errorf("IncrementRetry #%d = %v, want %v", i+1, got, w)
		}
	}
	if l.Retries("1") != 4 {
		t.Errorf("Retries = %d, want 4", l.Retries("1"))
	}
}

func TestLedger_ZeroAndNegativeBudget(t *testing.T) {
	for _, max := range []int{0, -5} {
		l := NewLedger(max)
		if l.MaxRetries() != 0 {
			t.Errorf("NewLedger(%d).MaxRetries() = %d, want 0", max, l.MaxRetries())
		}
		_ = l.Initialize("1")
		if l.IncrementRetry("1") {
			t.Errorf("NewLedger(%d): first increment should exhaust the budget", max)
		}
	}
}

func TestLedger_ReinitializeResets(t *testing.T) {
	l := NewLedger(3)
	_ = l.Initialize("1")
	l.IncrementRetry("1")
	l.UpdateStatus("1", models.TaskStatusCompleted)

	_ = l.Initialize("1")
	if l.Retries("1") != 0 || l.Status("1") != models.TaskStatusPending {
		t.Errorf("re-initialize did not reset: retries=%d status=%s", l.Retries("1"), l.Status("1"))
	}
	if l.InitializedCount() != 1 {
		t.Errorf("InitializedCount = %d, want 1", l.InitializedCount())
	}
}

func TestLedger_Retire(t *testing.T) {
	l := NewLedger(3)
	_ = l.Initialize("2")
	l.UpdateStatus("2", models.TaskStatusCompleted)
	l.Retire("2")

	if !l.IsRetired("2") {
		t.Error("expected retired")
	}
	if got := l.Status("2"); got != models.TaskStatusUnknown {
		t.Errorf("status after retire = %s, want unknown", got)
	}
	if l.SuccessfulCount() != 0 {
		t.Errorf("SuccessfulCount = %d, want 0", l.SuccessfulCount())
	}
	if err := l.Initialize("2"); !errors.Is(err, ErrRetiredTask) {
		t.Errorf("Initialize retired id: err = %v, want ErrRetiredTask", err)
	}
	if l.InitializedCount() != 1 {
		t.Errorf("InitializedCount = %d, want 1", l.InitializedCount())
	}
}

func TestLedger_SuccessfulCount(t *testing.T) {
	l := NewLedger(3)
	for _, id := range []models.TaskID{"1", "2", "3", "4"} {
		_ = l.Initialize(id)
	}
	l.UpdateStatus("1", models.TaskStatusCompleted)
	l.UpdateStatus("3", models.TaskStatusCompleted)
	l.UpdateStatus("4", models.TaskStatusFailed)

	if l.SuccessfulCount() != 2 {
		t.Errorf("SuccessfulCount = %d, want 2", l.SuccessfulCount())
	}
	if l.SuccessfulCount() > l.InitializedCount() {
		t.Error("successful count exceeds initialized count")
	}
}
