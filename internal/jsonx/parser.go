// Package jsonx recovers structured JSON from unreliable model output.
//
// Language models asked for JSON frequently wrap it in explanatory prose or
// markdown code fences. Parse tries a fixed chain of recovery strategies and
// reports failure instead of erroring, so callers can decide how to degrade.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// Parse extracts a JSON value from arbitrary text. The recovery chain, first
// success wins:
//
//  1. parse the whole (trimmed) string
//  2. parse the contents of the first fenced code block, tagged or not
//  3. parse the earliest-starting {...} or [...] span, matched greedily to
//     the last closing bracket of the same kind
//
// Returns (nil, false) when no strategy yields valid JSON. Never panics.
func Parse(text string) (any, bool) {
	if v, err := decode(strings.TrimSpace(text)); err == nil {
		return v, true
	}

	if inner, ok := ExtractFenced(text); ok {
		if v, err := decode(inner); err == nil {
			return v, true
		}
		// The fenced body is the best candidate we have. Keep scanning
		// inside it for a bracketed span rather than the outer prose.
		text = inner
	}

	if span, ok := extractSpan(text); ok {
		if v, err := decode(span); err == nil {
			return v, true
		}
	}

	return nil, false
}

// ExtractFenced returns the body of the first triple-backtick code block,
// with or without a "json" language tag.
func ExtractFenced(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// extractSpan picks the greedy object or array span. When both exist the one
// that starts earliest in the string wins; the span always runs to the last
// closing bracket of its kind so trailing prose after valid JSON is ignored.
func extractSpan(text string) (string, bool) {
	objStart := strings.Index(text, "{")
	objEnd := strings.LastIndex(text, "}")
	arrStart := strings.Index(text, "[")
	arrEnd := strings.LastIndex(text, "]")

	objOK := objStart != -1 && objEnd > objStart
	arrOK := arrStart != -1 && arrEnd > arrStart

	switch {
	case objOK && arrOK:
		if objStart < arrStart {
			return text[objStart : objEnd+1], true
		}
		return text[arrStart : arrEnd+1], true
	case objOK:
		return text[objStart : objEnd+1], true
	case arrOK:
		return text[arrStart : arrEnd+1], true
	}
	return "", false
}

func decode(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
