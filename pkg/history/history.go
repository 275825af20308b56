// Package history maintains the bounded, append-only quality history of articles.
package history

// DefaultCap is the maximum number of entries kept in an article's history.
const DefaultCap = 50

// AppendBounded returns a new slice holding the last limit elements of
// history followed by event. The input slice is never modified and the
// result never shares its backing array, so callers can keep reading the
// prior history. A limit <= 0 means DefaultCap.
func AppendBounded[T any](history []T, event T, limit int) []T {
	if limit <= 0 {
		limit = DefaultCap
	}

	total := len(history) + 1
	start := 0
	if total > limit {
		start = total - limit
	}

	out := make([]T, 0, total-start)
	if start < len(history) {
		out = append(out, history[start:]...)
	}
	return append(out, event)
}

// Last returns the most recent entry of history and whether one exists.
func Last[T any](history []T) (T, bool) {
	var zero T
	if len(history) == 0 {
		return zero, false
	}
	return history[len(history)-1], true
}
