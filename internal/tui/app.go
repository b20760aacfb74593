package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/deskpilot/internal/orchestrator"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// maxLogEntries is the number of activity lines shown.
const maxLogEntries = 8

// ProgressState tracks run progress as seen through engine events.
type ProgressState struct {
	Goal           string
	CurrentID      models.TaskID
	CurrentTask    string
	Attempt        int
	Completed      int
	FailedAttempts int
	Splits         int
	Dropped        int
	Remaining      int
	Started        time.Time
}

// Apply updates the state with e.
func (s *ProgressState) Apply(e orchestrator.Event) {
	switch e.Type {
	case orchestrator.EventTaskStarted:
		s.CurrentID = e.TaskID
		s.CurrentTask = e.Description
		s.Attempt = 1
	case orchestrator.EventAttemptFailed:
		s.FailedAttempts++
		s.Attempt = e.Attempt + 1
	case orchestrator.EventTaskCompleted:
		s.Completed++
	case orchestrator.EventTaskSplit:
		s.Splits++
	case orchestrator.EventTaskDropped:
		s.Dropped++
	case orchestrator.EventRunFinished:
		s.CurrentID = ""
		s.CurrentTask = ""
		s.Attempt = 0
	}
	s.Remaining = e.Remaining
}

// Percent returns completion as a percentage of completed plus remaining work.
func (s ProgressState) Percent() float64 {
	total := s.Completed + s.Remaining
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total) * 100
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	Timestamp time.Time
	Kind      string
	Message   string
}

// EventMsg wraps an engine event delivered to the program.
type EventMsg struct {
	Event orchestrator.Event
}

// DoneMsg is sent when the engine returns.
type DoneMsg struct {
	Report *orchestrator.Report
	Err    error
}

// eventsClosedMsg signals that the event channel was closed.
type eventsClosedMsg struct{}

// App is the bubbletea model for the run progress display.
type App struct {
	state    ProgressState
	events   <-chan orchestrator.Event
	spinner  spinner.Model
	logs     []LogEntry
	width    int
	height   int
	quitting bool
	done     bool
	report   *orchestrator.Report
	err      error
	onQuit   func()

	// Styles
	headerStyle   lipgloss.Style
	labelStyle    lipgloss.Style
	valueStyle    lipgloss.Style
	taskStyle     lipgloss.Style
	progressFull  lipgloss.Style
	progressEmpty lipgloss.Style
	logStyle      lipgloss.Style
	logTimeStyle  lipgloss.Style
	kindStyle     lipgloss.Style
	errorStyle    lipgloss.Style
	doneStyle     lipgloss.Style
	hintStyle     lipgloss.Style
}

// NewApp creates a progress model for goal reading from events. onQuit, if
// non-nil, is called when the user quits before the run finished.
func NewApp(goal string, events <-chan orchestrator.Event, onQuit func()) *App {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)
	return &App{
		state:   ProgressState{Goal: goal, Started: time.Now()},
		events:  events,
		spinner: sp,
		onQuit:  onQuit,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		taskStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")),

		progressFull: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		progressEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		kindStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(15),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// NewProgram creates a bubbletea program around a new App.
func NewProgram(goal string, events <-chan orchestrator.Event, onQuit func()) (*tea.Program, *App) {
	app := NewApp(goal, events, onQuit)
	return tea.NewProgram(app, tea.WithAltScreen()), app
}

// waitForEvent reads the next event from ch.
func waitForEvent(ch <-chan orchestrator.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: e}
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, waitForEvent(a.events))
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			if !a.done && a.onQuit != nil {
				a.onQuit()
			}
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case EventMsg:
		a.state.Apply(msg.Event)
		a.addLog(msg.Event)
		return a, waitForEvent(a.events)

	case eventsClosedMsg:
		a.events = nil

	case DoneMsg:
		a.done = true
		a.report = msg.Report
		a.err = msg.Err
	}

	return a, nil
}

// addLog appends the activity line for e.
func (a *App) addLog(e orchestrator.Event) {
	var text string
	switch e.Type {
	case orchestrator.EventTaskStarted:
		text = fmt.Sprintf("Task %s: %s", e.TaskID, e.Description)
	case orchestrator.EventAttemptFailed:
		text = fmt.Sprintf("Task %s attempt %d failed", e.TaskID, e.Attempt)
		if e.Error != nil {
			text += ": " + e.Error.Error()
		}
	case orchestrator.EventTaskCompleted:
		text = fmt.Sprintf("Task %s completed successfully", e.TaskID)
	case orchestrator.EventTaskSplit:
		text = fmt.Sprintf("Task %s split into %d subtasks", e.TaskID, len(e.Subtasks))
	case orchestrator.EventTaskDropped:
		text = fmt.Sprintf("Task %s dropped", e.TaskID)
	default:
		text = e.Message
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	a.logs = append(a.logs, LogEntry{Timestamp: ts, Kind: string(e.Type), Message: text})
	if len(a.logs) > maxLogEntries {
		a.logs = a.logs[len(a.logs)-maxLogEntries:]
	}
}

// State returns the current progress state.
func (a *App) State() ProgressState {
	return a.state
}

// Logs returns the retained activity log.
func (a *App) Logs() []LogEntry {
	return a.logs
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting && !a.done {
		return "Run cancelled.\n"
	}

	var b strings.Builder

	b.WriteString(a.headerStyle.Render("=== deskpilot ==="))
	b.WriteString("\n\n")

	b.WriteString(a.labelStyle.Render("Goal:"))
	b.WriteString(a.taskStyle.Render(truncate(a.state.Goal, 60)))
	b.WriteString("\n")

	if a.state.CurrentID != "" {
		b.WriteString(a.labelStyle.Render("Current:"))
		b.WriteString(a.spinner.View())
		b.WriteString(" ")
		b.WriteString(a.valueStyle.Render(string(a.state.CurrentID)))
		b.WriteString(" ")
		b.WriteString(a.taskStyle.Render(truncate(a.state.CurrentTask, 50)))
		b.WriteString(a.hintStyle.Render(fmt.Sprintf("  (attempt %d)", a.state.Attempt)))
		b.WriteString("\n")
	}

	b.WriteString(a.labelStyle.Render("Completed:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.state.Completed)))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Remaining:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.state.Remaining)))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Splits:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.state.Splits)))
	b.WriteString("  ")
	b.WriteString(a.labelStyle.Render("Dropped:"))
	b.WriteString(a.valueStyle.Render(fmt.Sprintf("%d", a.state.Dropped)))
	b.WriteString("\n")

	b.WriteString(a.renderProgressBar(a.state.Percent(), 30))
	b.WriteString("\n\n")

	b.WriteString(a.renderLogs())

	b.WriteString("\n")
	switch {
	case a.done && a.err != nil:
		b.WriteString(a.errorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
	case a.done && a.report != nil:
		b.WriteString(a.doneStyle.Render(a.report.Summary() + " Press q to exit."))
	case a.done:
		b.WriteString(a.doneStyle.Render("Run finished. Press q to exit."))
	default:
		b.WriteString(a.hintStyle.Render("Press q to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderProgressBar renders a progress bar.
func (a *App) renderProgressBar(pct float64, width int) string {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	filled := int(pct / 100 * float64(width))
	empty := width - filled

	bar := a.progressFull.Render(strings.Repeat("█", filled)) +
		a.progressEmpty.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("  %s %.0f%%", bar, pct)
}

// renderLogs renders the recent log entries.
func (a *App) renderLogs() string {
	if len(a.logs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("252")).
		Render("Activity Log"))
	b.WriteString("\n")

	for _, entry := range a.logs {
		ts := a.logTimeStyle.Render(entry.Timestamp.Format("15:04:05"))
		kind := a.kindStyle.Render(entry.Kind)
		msg := a.logStyle.Render(truncate(entry.Message, 80))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", ts, kind, msg))
	}

	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
