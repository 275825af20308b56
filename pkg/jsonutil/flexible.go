// Package jsonutil decodes loosely typed JSON produced by language models.
package jsonutil

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// listSeparators splits a tag list the model returned as one string: "a, b、c / d".
var listSeparators = regexp.MustCompile(`\s*[,、，/|]\s*|\n+`)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// models return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}

// FlexibleStringList decodes a list that may arrive as an array of scalars or as
// a single delimited string. Elements are trimmed; empty ones are dropped.
// Returns nil for null/empty input.
func FlexibleStringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		var out []string
		for _, item := range items {
			if s := strings.TrimSpace(FlexibleStringValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var out []string
	for _, part := range listSeparators.Split(FlexibleStringValue(raw), -1) {
		if s := strings.TrimSpace(strings.TrimPrefix(part, "#")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
