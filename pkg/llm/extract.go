package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONArray is returned when a response holds no '[' ... ']' span.
var ErrNoJSONArray = errors.New("no JSON array found in response")

// ExtractJSONArray strips markdown code fences from text and returns the span
// from the first '[' to the last ']'. Prose around the array is discarded.
func ExtractJSONArray(text string) (string, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONArray
	}
	return cleaned[start : end+1], nil
}
