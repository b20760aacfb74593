// Package prompt loads and renders the model prompt templates.
//
// Default templates are embedded in the binary. A directory of YAML files may
// be given to override or add templates by name.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"
)

// Template names.
const (
	BreakDown       = "task_break_down"
	CheckOperable   = "task_check_pc_level"
	SelectMethod    = "select_best_method_for_task_run"
	RunWithScript   = "task_run_with_script"
	CompletionCheck = "task_completion_check"
)

// ErrUnknownPrompt is returned when rendering a name with no template.
var ErrUnknownPrompt = errors.New("unknown prompt")

//go:embed templates/*.yaml
var defaults embed.FS

// Data is the set of values a template can reference.
type Data struct {
	Goal     string
	Task     string
	Language string
}

// Rendered is a prompt ready to send.
type Rendered struct {
	System string
	User   string
}

// entry is one named template as it appears in a YAML file.
type entry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Library holds the compiled templates.
type Library struct {
	templates map[string]compiled
}

// Load builds a library from the embedded defaults, then applies every
// *.yaml file in overrideDir (if non-empty) in lexical order. A later file
// replaces a template of the same name.
func Load(overrideDir string) (*Library, error) {
	lib := &Library{templates: make(map[string]compiled)}

	if err := lib.loadFS(defaults, "templates"); err != nil {
		return nil, fmt.Errorf("load default prompts: %w", err)
	}

	if overrideDir != "" {
		info, err := os.Stat(overrideDir)
		if err != nil {
			return nil, fmt.Errorf("stat prompt dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("prompt dir %s is not a directory", overrideDir)
		}
		if err := lib.loadFS(os.DirFS(overrideDir), "."); err != nil {
			return nil, fmt.Errorf("load prompts from %s: %w", overrideDir, err)
		}
	}

	return lib, nil
}

// MustLoadDefaults returns the embedded templates. It panics if they do not parse.
func MustLoadDefaults() *Library {
	lib, err := Load("")
	if err != nil {
		panic(err)
	}
	return lib
}

func (l *Library) loadFS(fsys fs.FS, dir string) error {
	matches, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(dir, "*.yaml")))
	if err != nil {
		return err
	}
	sort.Strings(matches)

	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := l.add(name, data); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) add(file string, data []byte) error {
	var entries map[string]entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	for name, e := range entries {
		if strings.TrimSpace(e.User) == "" {
			return fmt.Errorf("parse %s: prompt %q has no user text", file, name)
		}
		system, err := template.New(name + ".system").Option("missingkey=error").Parse(e.System)
		if err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
		user, err := template.New(name + ".user").Option("missingkey=error").Parse(e.User)
		if err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
		l.templates[name] = compiled{system: system, user: user}
	}
	return nil
}

// Names returns the template names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for n := range l.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template.
func (l *Library) Render(name string, data Data) (Rendered, error) {
	c, ok := l.templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("render %s: %w", name, ErrUnknownPrompt)
	}

	var sys, usr bytes.Buffer
	if err := c.system.Execute(&sys, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", name, err)
	}
	if err := c.user.Execute(&usr, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", name, err)
	}

	return Rendered{
		System: strings.TrimSpace(sys.String()),
		User:   strings.TrimSpace(usr.String()),
	}, nil
}
