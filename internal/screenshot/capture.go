// Package screenshot captures the screen to PNG files using a platform tool.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ShayCichocki/deskpilot/internal/exec"
)

// PathPlaceholder is replaced by the output file in a capture command.
const PathPlaceholder = "{path}"

// ErrNoCaptureTool is returned when no capture command is configured and
// none of the platform defaults is installed.
var ErrNoCaptureTool = errors.New("no screenshot tool available")

// Capturer takes a screenshot and returns the path of the saved PNG.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// tool is a capture command line; {path} marks the output file.
type tool struct {
	binary string
	args   []string
}

// platformTools lists capture tools in preference order.
var platformTools = map[string][]tool{
	"darwin": {
		{binary: "screencapture", args: []string{"-x", PathPlaceholder}},
	},
	"linux": {
		{binary: "gnome-screenshot", args: []string{"-f", PathPlaceholder}},
		{binary: "grim", args: []string{PathPlaceholder}},
		{binary: "scrot", args: []string{"--overwrite", PathPlaceholder}},
		{binary: "import", args: []string{"-window", "root", PathPlaceholder}},
	},
	"windows": {
		{binary: "powershell", args: []string{"-NoProfile", "-Command",
			"Add-Type -AssemblyName System.Windows.Forms,System.Drawing; " +
				"$b=[System.Windows.Forms.Screen]::PrimaryScreen.Bounds; " +
				"$i=New-Object System.Drawing.Bitmap $b.Width,$b.Height; " +
				"[System.Drawing.Graphics]::FromImage($i).CopyFromScreen($b.Location,[System.Drawing.Point]::Empty,$b.Size); " +
				"$i.Save('" + PathPlaceholder + "')"}},
	},
}

// Service saves screenshots as <dir>/screenshot_<YYYYMMDD_HHMMSS>.png.
type Service struct {
	dir     string
	command string
	goos    string
	runner  exec.CommandRunner
	logger  *slog.Logger
	now     func() time.Time
}

// Config configures a Service.
type Config struct {
	// Dir is where screenshots are written.
	Dir string
	// Command overrides the platform tool. It runs through the shell with
	// {path} replaced by the output file.
	Command string
	Runner  exec.CommandRunner
	Logger  *slog.Logger
}

// NewService creates a screenshot service.
func NewService(cfg Config) *Service {
	runner := cfg.Runner
	if runner == nil {
		runner = exec.NewRunner()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		dir:     cfg.Dir,
		command: cfg.Command,
		goos:    runtime.GOOS,
		runner:  runner,
		logger:  logger,
		now:     time.Now,
	}
}

var _ Capturer = (*Service)(nil)

// Capture takes a screenshot and returns the file path.
func (s *Service) Capture(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot directory: %w", err)
	}
	path := s.nextPath()

	var output []byte
	var err error
	if s.command != "" {
		output, err = s.runner.RunShell(ctx, "", strings.ReplaceAll(s.command, PathPlaceholder, path))
	} else {
		t, lookErr := s.pickTool()
		if lookErr != nil {
			return "", lookErr
		}
		output, err = s.runner.Run(ctx, "", t.binary, substitute(t.args, path)...)
	}
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: no file written: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("capture screenshot: %s is empty", path)
	}

	s.logger.Debug("screenshot captured", "path", path, "bytes", info.Size())
	return path, nil
}

// nextPath returns a timestamped file name, adding a counter when two
// captures fall in the same second.
func (s *Service) nextPath() string {
	base := "screenshot_" + s.now().Format("20060102_150405")
	path := filepath.Join(s.dir, base+".png")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d.png", base, i))
	}
}

func (s *Service) pickTool() (tool, error) {
	for _, t := range platformTools[s.goos] {
		if _, err := s.runner.LookPath(t.binary); err == nil {
			return t, nil
		}
	}
	return tool{}, fmt.Errorf("%w for %s; set execution.screenshot_command", ErrNoCaptureTool, s.goos)
}

func substitute(args []string, path string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, PathPlaceholder, path)
	}
	return out
}
