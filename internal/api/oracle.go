package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/deskpilot/internal/decompose"
	"github.com/ShayCichocki/deskpilot/internal/prompt"
)

// Oracle answers the decomposition, execution and completion questions by
// rendering a prompt template and sending it to the model.
type Oracle struct {
	llm     Completer
	prompts *prompt.Library
	logger  *slog.Logger
}

var _ decompose.Oracle = (*Oracle)(nil)

// NewOracle creates an Oracle. A nil library uses the embedded prompts.
func NewOracle(llm Completer, prompts *prompt.Library, logger *slog.Logger) *Oracle {
	if prompts == nil {
		prompts = prompt.MustLoadDefaults()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Oracle{llm: llm, prompts: prompts, logger: logger}
}

func (o *Oracle) ask(ctx context.Context, name string, data prompt.Data, image []byte) (string, error) {
	r, err := o.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	text, err := o.llm.Complete(ctx, Request{System: r.System, Prompt: r.User, Image: image})
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// IsOperable reports whether task can be executed directly as one PC operation.
// An ambiguous answer counts as no, so the task is broken down further.
func (o *Oracle) IsOperable(ctx context.Context, task string) (bool, error) {
	text, err := o.ask(ctx, prompt.CheckOperable, prompt.Data{Task: task}, nil)
	if err != nil {
		return false, err
	}
	ok, err := ParseBool(text)
	if err != nil {
		o.logger.Warn("operability answer unclear, treating as not operable", "task", task, "error", err)
		return false, nil
	}
	return ok, nil
}

// BreakDown asks for an ordered list of subtasks of goal.
func (o *Oracle) BreakDown(ctx context.Context, goal string) ([]string, error) {
	text, err := o.ask(ctx, prompt.BreakDown, prompt.Data{Goal: goal}, nil)
	if errors.Is(err, ErrEmptyResponse) {
		return nil, fmt.Errorf("%w: %w", decompose.ErrMalformedResponse, err)
	}
	if err != nil {
		return nil, err
	}
	return decompose.ParseSubtasks(text)
}

// ChooseMethod asks which execution method suits task on the current screen
// and returns the normalized method tag.
func (o *Oracle) ChooseMethod(ctx context.Context, screenshot []byte, task string) (string, error) {
	text, err := o.ask(ctx, prompt.SelectMethod, prompt.Data{Task: task}, screenshot)
	if err != nil {
		return "", err
	}
	return ParseMethod(text), nil
}

// GenerateCode asks for a script in language that performs task.
func (o *Oracle) GenerateCode(ctx context.Context, screenshot []byte, task, language string) (string, error) {
	text, err := o.ask(ctx, prompt.RunWithScript, prompt.Data{Task: task, Language: language}, screenshot)
	if err != nil {
		return "", err
	}
	code := StripCodeFence(text)
	if code == "" {
		return "", fmt.Errorf("%s: %w", prompt.RunWithScript, ErrEmptyResponse)
	}
	return code, nil
}

// IsComplete asks whether screenshot shows task as done. An ambiguous answer
// counts as not complete.
func (o *Oracle) IsComplete(ctx context.Context, screenshot []byte, task string) (bool, error) {
	text, err := o.ask(ctx, prompt.CompletionCheck, prompt.Data{Task: task}, screenshot)
	if err != nil {
		return false, err
	}
	ok, err := ParseBool(text)
	if err != nil {
		o.logger.Warn("completion answer unclear, treating as incomplete", "task", task, "error", err)
		return false, nil
	}
	return ok, nil
}
