// Package script turns generated code into script files and runs them.
package script

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLanguage is returned for a script language with no generator.
var ErrUnsupportedLanguage = errors.New("unsupported script language")

// Language is a script language.
type Language string

const (
	Python Language = "python"
	Batch  Language = "batch"
	Shell  Language = "shell"
)

// ParseLanguage parses a configured language name.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case Python, Batch, Shell:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
}

// Extension returns the file extension for scripts in l.
func (l Language) Extension() string {
	switch l {
	case Python:
		return ".py"
	case Batch:
		return ".bat"
	case Shell:
		return ".sh"
	}
	return ".txt"
}

// MethodTag returns the execution method tag the model uses for l,
// e.g. "Python_file".
func (l Language) MethodTag() string {
	switch l {
	case Python:
		return "Python_file"
	case Batch:
		return "Batch_file"
	case Shell:
		return "Shell_file"
	}
	return ""
}

var headers = map[Language]string{
	Python: "#!/usr/bin/env python3\n# Generated Python Script\n",
	Batch:  "@echo off\nREM Generated Batch Script\n",
	Shell:  "#!/bin/bash\n# Generated Shell Script\n",
}

// Generate wraps code in the header for l.
func Generate(code string, l Language) (string, error) {
	header, ok := headers[l]
	if !ok {
		return "", fmt.Errorf("generate script: %w: %q", ErrUnsupportedLanguage, l)
	}
	code = strings.TrimRight(code, "\n")
	return header + code + "\n", nil
}
