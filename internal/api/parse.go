package api

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrAmbiguousAnswer is returned by ParseBool for text that is neither a
// yes nor a no.
var ErrAmbiguousAnswer = errors.New("ambiguous yes/no answer")

// ParseBool reads a yes/no answer from free model text. Only the first word
// counts, ignoring case and surrounding punctuation.
func ParseBool(response string) (bool, error) {
	word := firstWord(response)
	switch word {
	case "yes", "true", "y", "complete", "completed", "done":
		return true, nil
	case "no", "false", "n", "incomplete", "not":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrAmbiguousAnswer, preview(response))
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// StripCodeFence returns the body of the first fenced code block in
// response, or the trimmed response when it has no fence.
func StripCodeFence(response string) string {
	start := strings.Index(response, "```")
	if start < 0 {
		return strings.TrimSpace(response)
	}
	rest := response[start+3:]

	// Skip the info string (language tag) on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return ""
	}

	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ParseMethod normalizes an execution method tag from free model text,
// e.g. "`Python_file`." becomes "Python_file".
func ParseMethod(response string) string {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= 80 {
		return s
	}
	return string([]rune(s)[:80]) + "..."
}
