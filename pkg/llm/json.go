package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSONObject is returned when a response holds no parseable JSON object.
	ErrNoJSONObject = errors.New("no JSON object found in response")

	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)\n?```")
)

// ExtractJSONObject returns the first valid JSON object in a model response.
// A fenced code block is preferred over the surrounding text. Brace-delimited
// text that is not JSON (reasoning preambles, template syntax) is skipped.
// A response that is a bare JSON array is rejected.
func ExtractJSONObject(response string) (string, error) {
	candidates := make([]string, 0, 2)
	if m := fencedBlockPattern.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, response)

	truncated := false
	for _, text := range candidates {
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "[") && json.Valid([]byte(trimmed)) {
			return "", fmt.Errorf("%w: response is a JSON array", ErrNoJSONObject)
		}

		obj, cut := firstObject(text)
		if obj != "" {
			return obj, nil
		}
		truncated = truncated || cut
	}

	if truncated {
		return "", fmt.Errorf("%w: response ends inside an object (output cut off?)", ErrNoJSONObject)
	}
	return "", ErrNoJSONObject
}

// firstObject tries every '{' in order. cut reports that some '{' was never closed.
func firstObject(s string) (obj string, cut bool) {
	for from := 0; from < len(s); {
		i := strings.IndexByte(s[from:], '{')
		if i < 0 {
			break
		}
		start := from + i

		end, closed := closingBrace(s, start)
		if !closed {
			cut = true
		} else if span := s[start : end+1]; json.Valid([]byte(span)) {
			return span, cut
		}
		from = start + 1
	}
	return "", cut
}

// closingBrace returns the index of the brace closing the one at start,
// ignoring braces inside JSON strings.
func closingBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseJSONObject extracts the JSON object from a response and decodes it into T.
func ParseJSONObject[T any](response string) (T, error) {
	var result T

	raw, err := ExtractJSONObject(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to decode JSON object: %w", err)
	}
	return result, nil
}
