package decompose

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// subtaskObject is accepted when the model answers with objects instead of strings.
type subtaskObject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Task        string `json:"task"`
}

// ParseSubtasks extracts an ordered list of subtask descriptions from a model
// response. The response may contain text around a JSON array; the array may
// hold strings or objects with a task, description or title field.
func ParseSubtasks(response string) ([]string, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("%w: no JSON array found in response: %q", ErrMalformedResponse, preview(response))
	}
	raw := []byte(response[jsonStart : jsonEnd+1])

	var subtasks []string
	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		subtasks = asStrings
	} else {
		var asObjects []subtaskObject
		if objErr := json.Unmarshal(raw, &asObjects); objErr != nil {
			return nil, fmt.Errorf("%w: unmarshal JSON: %v", ErrMalformedResponse, err)
		}
		for _, o := range asObjects {
			switch {
			case o.Task != "":
				subtasks = append(subtasks, o.Task)
			case o.Description != "":
				subtasks = append(subtasks, o.Description)
			default:
				subtasks = append(subtasks, o.Title)
			}
		}
	}

	out := make([]string, 0, len(subtasks))
	for _, s := range subtasks {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty task list returned", ErrMalformedResponse)
	}
	return out, nil
}

// preview shortens s to at most 200 bytes without splitting a rune.
func preview(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}
