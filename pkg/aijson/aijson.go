// Package aijson recovers JSON-shaped values from AI model output that is
// not guaranteed to be valid JSON: fenced in markdown, surrounded by prose,
// or carrying small formatting defects such as trailing commas.
package aijson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoStructure is returned when no parseable JSON value could be recovered
// from the input after all extraction and repair attempts.
var ErrNoStructure = errors.New("no valid JSON structure found in response")

var (
	fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

	// A line break directly before a comma usually means the model broke the
	// line inside a string field; the quote belongs right before the comma.
	danglingLineBreak = regexp.MustCompile(`"\s*\n\s*,`)

	// Trailing comma before a closing bracket or brace.
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
)

// Parse recovers a JSON value from raw model output.
//
// Attempts are ordered narrowest first: the fenced/trimmed content with
// textual repairs is parsed strictly, and only if that fails is the wider
// first-to-last bracket slice of the original text tried. The wide slice runs
// last because it can mis-extract when several JSON-like fragments appear in
// the surrounding prose.
func Parse(raw string) (any, error) {
	content := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	var v any
	if err := json.Unmarshal([]byte(repair(content)), &v); err == nil {
		return v, nil
	}

	var lastErr error
	for _, sliced := range sliceCandidates(raw) {
		err := json.Unmarshal([]byte(repair(sliced)), &v)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoStructure, lastErr)
	}
	return nil, ErrNoStructure
}

// ParseInto recovers a JSON value from raw model output and unmarshals it
// into target.
func ParseInto(raw string, target any) error {
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("re-marshal recovered value: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("recovered value has wrong shape: %w", err)
	}
	return nil
}

func repair(s string) string {
	s = danglingLineBreak.ReplaceAllString(s, `",`)
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// sliceCandidates cuts the substrings between the first opening and last
// closing bracket of each kind, object span first. The array span still gets
// a parse attempt when the object span exists but is not valid JSON, as with
// an array of objects embedded in prose.
func sliceCandidates(raw string) []string {
	var out []string
	if s, ok := span(raw, '{', '}'); ok {
		out = append(out, s)
	}
	if s, ok := span(raw, '[', ']'); ok {
		out = append(out, s)
	}
	return out
}

func span(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
