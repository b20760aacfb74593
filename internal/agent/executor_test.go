package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/deskpilot/internal/script"
	"github.com/ShayCichocki/deskpilot/pkg/models"
)

// fakeCapturer writes numbered screenshots into dir.
type fakeCapturer struct {
	dir   string
	err   error
	shots int
}

func (f *fakeCapturer) Capture(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.shots++
	path := filepath.Join(f.dir, fmt.Sprintf("shot%d.png", f.shots))
	return path, os.WriteFile(path, []byte{byte(f.shots)}, 0644)
}

type fakeOracle struct {
	method      string
	methodErr   error
	code        string
	codeErr     error
	complete    bool
	completeErr error

	completeImage []byte
}

func (f *fakeOracle) ChooseMethod(context.Context, []byte, string) (string, error) {
	return f.method, f.methodErr
}

func (f *fakeOracle) GenerateCode(context.Context, []byte, string, string) (string, error) {
	return f.code, f.codeErr
}

func (f *fakeOracle) IsComplete(_ context.Context, img []byte, _ string) (bool, error) {
	f.completeImage = img
	return f.complete, f.completeErr
}

type fakeRunner struct {
	err   error
	paths []string
}

func (f *fakeRunner) Run(_ context.Context, path string, _ script.Language) error {
	f.paths = append(f.paths, path)
	return f.err
}

type fixture struct {
	capturer *fakeCapturer
	oracle   *fakeOracle
	runner   *fakeRunner
	exec     *Executor
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		capturer: &fakeCapturer{dir: dir},
		oracle:   &fakeOracle{method: "Python_file", code: "print('hi')", complete: true},
		runner:   &fakeRunner{},
		dir:      dir,
	}
	f.exec = NewExecutor(ExecutorConfig{
		Screenshots: f.capturer,
		Oracle:      f.oracle,
		Store:       script.NewStore(filepath.Join(dir, "scripts")),
		Runner:      f.runner,
		Language:    script.Python,
	})
	return f
}

var task = models.Task{ID: "2-1", Description: "Open Notepad"}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t)

	ok, err := f.exec.Execute(context.Background(), task)
	if err != nil || !ok {
		t.Fatalf("Execute = %v, %v; want true, nil", ok, err)
	}

	want := filepath.Join(f.dir, "scripts", "python", "generated_script_2-1.py")
	if len(f.runner.paths) != 1 || f.runner.paths[0] != want {
		t.Errorf("ran %v, want %s", f.runner.paths, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("script not written: %v", err)
	}
	if string(data) != "#!/usr/bin/env python3\n# Generated Python Script\nprint('hi')\n" {
		t.Errorf("script = %q", data)
	}

	// The completion check must see the screen after the script ran.
	if f.capturer.shots != 2 {
		t.Errorf("screenshots = %d, want 2", f.capturer.shots)
	}
	if len(f.oracle.completeImage) != 1 || f.oracle.completeImage[0] != 2 {
		t.Errorf("completion check saw %v, want the second screenshot", f.oracle.completeImage)
	}
}

func TestExecute_PlainFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"screenshot fails", func(f *fixture) { f.capturer.err = errors.New("no display") }},
		{"unsupported method", func(f *fixture) { f.oracle.method = "Manual" }},
		{"script exhausted", func(f *fixture) { f.runner.err = script.ErrRunExhausted }},
		{"not complete", func(f *fixture) { f.oracle.complete = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			ok, err := f.exec.Execute(context.Background(), task)
			if err != nil {
				t.Errorf("err = %v, want nil", err)
			}
			if ok {
				t.Error("ok = true, want false")
			}
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	boom := errors.New("api down")
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"choose method", func(f *fixture) { f.oracle.methodErr = boom }},
		{"generate code", func(f *fixture) { f.oracle.codeErr = boom }},
		{"completion check", func(f *fixture) { f.oracle.completeErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			ok, err := f.exec.Execute(context.Background(), task)
			if !errors.Is(err, boom) {
				t.Errorf("err = %v, want %v", err, boom)
			}
			if ok {
				t.Error("ok = true, want false")
			}
		})
	}
}

func TestExecute_UnsupportedMethodSkipsScript(t *testing.T) {
	f := newFixture(t)
	f.oracle.method = "Shell_file"

	if ok, _ := f.exec.Execute(context.Background(), task); ok {
		t.Fatal("expected failure")
	}
	if len(f.runner.paths) != 0 {
		t.Errorf("script ran for unsupported method: %v", f.runner.paths)
	}
}

func TestExecute_ShellLanguage(t *testing.T) {
	f := newFixture(t)
	f.oracle.method = "Shell_file"
	f.exec = NewExecutor(ExecutorConfig{
		Screenshots: f.capturer,
		Oracle:      f.oracle,
		Store:       script.NewStore(filepath.Join(f.dir, "scripts")),
		Runner:      f.runner,
		Language:    script.Shell,
	})

	ok, err := f.exec.Execute(context.Background(), task)
	if err != nil || !ok {
		t.Fatalf("Execute = %v, %v; want true, nil", ok, err)
	}
	if filepath.Ext(f.runner.paths[0]) != ".sh" {
		t.Errorf("script path = %s, want .sh", f.runner.paths[0])
	}
}
