package analyzer

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	errEmptyOutput  = errors.New("model returned empty output")
	errNoJSONObject = errors.New("no JSON object found in model output")
)

// parseModelJSON returns the JSON object carried by the model's text.
//
// Strict parsing is attempted first (after removing markdown code fences).
// Failing that, every balanced top-level {...} span is collected, skipping
// braces inside string literals, and the largest span that is valid JSON
// wins. Spans of equal length resolve to the earliest.
func parseModelJSON(text string) (gjson.Result, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return gjson.Result{}, errEmptyOutput
	}
	if gjson.Valid(cleaned) {
		if doc := gjson.Parse(cleaned); doc.IsObject() {
			return doc, nil
		}
	}
	if obj, ok := largestJSONObject(cleaned); ok {
		return gjson.Parse(obj), nil
	}
	return gjson.Result{}, errNoJSONObject
}

func largestJSONObject(s string) (string, bool) {
	best := ""
	for _, candidate := range balancedObjects(s) {
		if !gjson.Valid(candidate) {
			// {note: {"a": 1}} is not JSON, but its inner object may be
			if inner, ok := largestJSONObject(candidate[1 : len(candidate)-1]); ok && len(inner) > len(best) {
				best = inner
			}
			continue
		}
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best, best != ""
}

// balancedObjects returns the top-level brace-balanced spans of s in order.
// An opening brace that is never closed is skipped and scanning resumes at
// the next character.
func balancedObjects(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := matchingBrace(s, i)
		if end < 0 {
			continue
		}
		out = append(out, s[i:end+1])
		i = end
	}
	return out
}

// matchingBrace returns the index of the brace closing the one at start,
// or -1. Quotes are only tracked inside the object, so prose apostrophes
// and quotes before it do not matter.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
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
				return i
			}
		}
	}
	return -1
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
