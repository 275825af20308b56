package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBounded_LengthIsMinOfAppendsAndCap(t *testing.T) {
	for _, n := range []int{0, 1, 2, 49, 50, 51, 120} {
		var h []int
		for i := 0; i < n; i++ {
			h = AppendBounded(h, i, DefaultCap)
		}

		want := n
		if want > DefaultCap {
			want = DefaultCap
		}
		require.Len(t, h, want, "after %d appends", n)

		if n == 0 {
			continue
		}
		last, ok := Last(h)
		require.True(t, ok)
		assert.Equal(t, n-1, last, "last element should be the most recent append")

		// Chronological order, oldest entries evicted first.
		for i := 1; i < len(h); i++ {
			assert.Equal(t, h[i-1]+1, h[i])
		}
		assert.Equal(t, n-want, h[0])
	}
}

func TestAppendBounded_DoesNotMutateInput(t *testing.T) {
	prior := make([]string, 0, 10)
	prior = append(prior, "a", "b", "c")

	next := AppendBounded(prior, "d", 3)

	assert.Equal(t, []string{"a", "b", "c"}, prior)
	assert.Equal(t, []string{"b", "c", "d"}, next)

	// Spare capacity in prior must not be shared with the result.
	next[0] = "changed"
	assert.Equal(t, "b", prior[1])
	grown := append(prior, "x")
	assert.Equal(t, "d", next[2], "appending to prior must not overwrite result")
	assert.Equal(t, "x", grown[3])
}

func TestAppendBounded_NilHistory(t *testing.T) {
	h := AppendBounded[int](nil, 7, DefaultCap)
	assert.Equal(t, []int{7}, h)
}

func TestAppendBounded_NonPositiveCapUsesDefault(t *testing.T) {
	var h []int
	for i := 0; i < DefaultCap+5; i++ {
		h = AppendBounded(h, i, 0)
	}
	assert.Len(t, h, DefaultCap)

	h = AppendBounded(h, 999, -1)
	assert.Len(t, h, DefaultCap)
	assert.Equal(t, 999, h[len(h)-1])
}

func TestAppendBounded_CapOfOne(t *testing.T) {
	h := AppendBounded([]int{1, 2, 3}, 4, 1)
	assert.Equal(t, []int{4}, h)
}

func TestAppendBounded_ShrinksOversizedHistory(t *testing.T) {
	// A history stored under an older, larger cap is trimmed on the next append.
	old := make([]int, 60)
	for i := range old {
		old[i] = i
	}
	h := AppendBounded(old, 60, DefaultCap)
	require.Len(t, h, DefaultCap)
	assert.Equal(t, 11, h[0])
	assert.Equal(t, 60, h[DefaultCap-1])
	assert.Len(t, old, 60)
}

func TestLast_Empty(t *testing.T) {
	_, ok := Last[int](nil)
	assert.False(t, ok)
}
