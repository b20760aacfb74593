package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// DroppedTask is a task that was abandoned after exhausting its retries.
type DroppedTask struct {
	Task models.Task
	Err  error
}

// Report summarizes one engine run.
type Report struct {
	// Tasks is the final working sequence after all splices and drops.
	Tasks []models.Task
	// Successful is the ledger's completed count.
	Successful int
	// Initialized is the number of distinct identifiers ever initialized.
	Initialized int
	// Initial is the length of the input sequence.
	Initial int
	// Processed is the number of times the cursor visited a task.
	Processed int
	// Splits counts re-decompositions.
	Splits int
	// Remaining is the number of tasks left unprocessed when the run ended early.
	Remaining int
	Dropped   []DroppedTask
	Duration  time.Duration
}

// Total returns the number of leaf tasks the run was accountable for: the
// final sequence plus every dropped task.
func (r *Report) Total() int {
	return len(r.Tasks) + len(r.Dropped)
}

// SuccessRate returns the completed share of Total as a percentage.
func (r *Report) SuccessRate() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(total) * 100
}

// Summary returns the one-line completion summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("Execution completed. %d/%d tasks successful (%.1f%%)", r.Successful, r.Total(), r.SuccessRate())
}

// String renders a multi-line report.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString(r.Summary())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Initial tasks: %d, processed: %d, splits: %d, dropped: %d\n",
		r.Initial, r.Processed, r.Splits, len(r.Dropped))
	if r.Remaining > 0 {
		fmt.Fprintf(&sb, "Unprocessed: %d\n", r.Remaining)
	}
	for _, d := range r.Dropped {
		fmt.Fprintf(&sb, "  dropped %s: %s (%v)\n", d.Task.ID, d.Task.Description, d.Err)
	}
	return sb.String()
}
