package script

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

// fakeRunner fails the first failures runs, then succeeds.
type fakeRunner struct {
	failures int
	path     map[string]bool
	calls    []call
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name, args})
	if len(f.calls) <= f.failures {
		return []byte("Traceback: boom"), fmt.Errorf("exit status 1")
	}
	return []byte("ok"), nil
}

func (f *fakeRunner) RunShell(ctx context.Context, workDir, command string) ([]byte, error) {
	return f.Run(ctx, workDir, "sh", "-c", command)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.path[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}

func TestRetryRunner_Command(t *testing.T) {
	tests := []struct {
		name     string
		path     map[string]bool
		lang     Language
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"python3 preferred", map[string]bool{"python3": true, "python": true}, Python, "python3", []string{"s.py"}, false},
		{"python fallback", map[string]bool{"python": true}, Python, "python", []string{"s.py"}, false},
		{"no python", nil, Python, "", nil, true},
		{"batch", nil, Batch, "cmd", []string{"/c", "s.py"}, false},
		{"shell", nil, Shell, "bash", []string{"s.py"}, false},
		{"unknown", nil, "ruby", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetryRunner(&fakeRunner{path: tt.path})
			name, args, err := r.Command("s.py", tt.lang)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Command error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if fmt.Sprint(args) != fmt.Sprint(tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestRetryRunner_SucceedsAfterRetries(t *testing.T) {
	fr := &fakeRunner{failures: 2, path: map[string]bool{"python3": true}}
	r := NewRetryRunner(fr, WithAttempts(5), WithDelay(0))

	if err := r.Run(context.Background(), "s.py", Python); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(fr.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(fr.calls))
	}
}

func TestRetryRunner_Exhausted(t *testing.T) {
	fr := &fakeRunner{failures: 100}
	r := NewRetryRunner(fr, WithAttempts(3), WithDelay(0))

	err := r.Run(context.Background(), "s.sh", Shell)
	if !errors.Is(err, ErrRunExhausted) {
		t.Fatalf("err = %v, want ErrRunExhausted", err)
	}
	if len(fr.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(fr.calls))
	}
}

func TestRetryRunner_NoInterpreterNotRetried(t *testing.T) {
	fr := &fakeRunner{}
	r := NewRetryRunner(fr, WithDelay(0))

	if err := r.Run(context.Background(), "s.py", Python); err == nil {
		t.Fatal("expected error without interpreter")
	}
	if len(fr.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(fr.calls))
	}
}

func TestRetryRunner_CanceledDuringDelay(t *testing.T) {
	fr := &fakeRunner{failures: 100}
	r := NewRetryRunner(fr, WithAttempts(5), WithDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, "s.sh", Shell)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if len(fr.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(fr.calls))
	}
}

func TestWithAttempts_IgnoresInvalid(t *testing.T) {
	r := NewRetryRunner(&fakeRunner{}, WithAttempts(0))
	if r.Attempts() != DefaultAttempts {
		t.Errorf("Attempts = %d, want %d", r.Attempts(), DefaultAttempts)
	}
}
