package models

import (
	"fmt"
	"time"
)

// ScoreSource identifies which job produced a ScoreEvent.
type ScoreSource string

const (
	ScoreSourceAutoNight   ScoreSource = "auto-night"
	ScoreSourceAutoRewrite ScoreSource = "auto-rewrite"
)

// Valid reports whether s is one of the known sources.
func (s ScoreSource) Valid() bool {
	switch s {
	case ScoreSourceAutoNight, ScoreSourceAutoRewrite:
		return true
	}
	return false
}

// MaxSuggestions bounds ScoreEvent.Suggestions.
const MaxSuggestions = 8

// ScoreEvent is one quality-scoring result appended to an article's history.
// Events are never edited after they are appended.
type ScoreEvent struct {
	Score       float64        `json:"score"`
	Checks      map[string]any `json:"checks"`
	Suggestions []string       `json:"suggestions"`
	CreatedAt   time.Time      `json:"created_at"`
	Source      ScoreSource    `json:"source"`
}

// NewScoreEvent builds an event, copying checks and suggestions so later
// changes to the caller's values cannot leak into the history.
func NewScoreEvent(score float64, checks map[string]any, suggestions []string, source ScoreSource, at time.Time) (ScoreEvent, error) {
	if !source.Valid() {
		return ScoreEvent{}, fmt.Errorf("invalid score source %q", source)
	}
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	copiedChecks := make(map[string]any, len(checks))
	for k, v := range checks {
		copiedChecks[k] = v
	}
	copiedSuggestions := make([]string, len(suggestions))
	copy(copiedSuggestions, suggestions)

	return ScoreEvent{
		Score:       score,
		Checks:      copiedChecks,
		Suggestions: copiedSuggestions,
		CreatedAt:   at,
		Source:      source,
	}, nil
}
