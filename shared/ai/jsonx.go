package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON marks responses from which no JSON object could be recovered.
// It is distinct from transport failures so the pipeline can report a
// parse-error reason rather than a network one.
var ErrNoJSON = errors.New("no JSON object found in model response")

// A strategy tries to pull a candidate JSON object out of model output.
// Strategies run in order; the first hit wins.
type strategy func(string) (string, bool)

var strategies = []strategy{
	directObject,
	fencedBlock,
	balancedObject,
}

// extractJSON recovers a JSON object from model output that may be bare,
// fenced in a code block, or buried in prose.
func extractJSON(text string) (string, bool) {
	for _, s := range strategies {
		if candidate, ok := s(text); ok {
			return candidate, true
		}
	}
	return "", false
}

// decodeJSON extracts and unmarshals a JSON object from model output.
func decodeJSON(text string, v any) error {
	candidate, ok := extractJSON(text)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoJSON, truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("%w: unmarshal failed: %v", ErrNoJSON, err)
	}
	return nil
}

func directObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, true
	}
	return "", false
}

func fencedBlock(text string) (string, bool) {
	idx := strings.Index(text, "```")
	if idx == -1 {
		return "", false
	}
	rest := text[idx+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "json" || tag == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	inner := strings.TrimSpace(rest[:end])
	if strings.HasPrefix(inner, "{") && json.Valid([]byte(inner)) {
		return inner, true
	}
	return "", false
}

// balancedObject scans for the first brace-balanced object literal,
// ignoring braces inside string values.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
