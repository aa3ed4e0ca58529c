package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverfold/feedlens/internal/core/domain"
)

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1, -100} {
		_, err := New(size, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	}
}

func TestNew_NegativeOverlapTreatedAsZero(t *testing.T) {
	c, err := New(3, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Overlap())
}

func TestSplit_EmptyInput(t *testing.T) {
	c, err := New(5, 2)
	require.NoError(t, err)

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \t\n  "))
}

func TestSplit_SingleWindow(t *testing.T) {
	c, err := New(5, 0)
	require.NoError(t, err)

	chunks := c.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplit_NoOverlap(t *testing.T) {
	c, err := New(2, 0)
	require.NoError(t, err)

	chunks := c.Split("a b c d e")
	assert.Equal(t, []string{"a b", "c d", "e"}, chunks)
}

func TestSplit_WithOverlap(t *testing.T) {
	c, err := New(3, 1)
	require.NoError(t, err)

	chunks := c.Split("a b c d e")
	assert.Equal(t, []string{"a b c", "c d e"}, chunks)
}

func TestSplit_OverlapLargerThanSizeDegradesToStepOne(t *testing.T) {
	c, err := New(2, 5)
	require.NoError(t, err)

	chunks := c.Split("a b c d")
	// step degrades to 1; still finite, every token starts a window
	// until the final window reaches the end.
	assert.Equal(t, []string{"a b", "b c", "c d"}, chunks)
}

func TestSplit_Properties(t *testing.T) {
	cases := []struct {
		size, overlap, tokens int
	}{
		{1, 0, 1},
		{5, 0, 17},
		{5, 2, 17},
		{4, 3, 10},
		{200, 100, 999},
		{3, 3, 7},
		{2, 10, 5},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("size=%d_overlap=%d_tokens=%d", tc.size, tc.overlap, tc.tokens), func(t *testing.T) {
			words := make([]string, tc.tokens)
			for i := range words {
				words[i] = fmt.Sprintf("w%d", i)
			}
			text := strings.Join(words, " ")

			c, err := New(tc.size, tc.overlap)
			require.NoError(t, err)
			chunks := c.Split(text)

			require.NotEmpty(t, chunks, "non-empty input must yield at least one chunk")

			step := tc.size - tc.overlap
			if step < 1 {
				step = 1
			}

			// Every chunk is non-empty and at most size tokens.
			for _, chunk := range chunks {
				got := strings.Fields(chunk)
				assert.NotEmpty(t, got)
				assert.LessOrEqual(t, len(got), tc.size)
			}

			// Window i starts at i*step; rejoining with overlap removal
			// reconstructs the original token sequence.
			var rebuilt []string
			for i, chunk := range chunks {
				got := strings.Fields(chunk)
				assert.Equal(t, words[i*step], got[0], "window %d start", i)
				if i == 0 {
					rebuilt = append(rebuilt, got...)
				} else {
					skip := len(rebuilt) - i*step
					require.GreaterOrEqual(t, skip, 0)
					require.LessOrEqual(t, skip, len(got))
					rebuilt = append(rebuilt, got[skip:]...)
				}
			}
			assert.Equal(t, words, rebuilt)

			// Consecutive chunks overlap by exactly overlap tokens
			// unless truncated at the end.
			for i := 1; i < len(chunks); i++ {
				prev := strings.Fields(chunks[i-1])
				if len(prev) == tc.size && tc.overlap < tc.size {
					overlapLen := tc.size - step
					assert.Equal(t, prev[step:], strings.Fields(chunks[i])[:overlapLen])
				}
			}
		})
	}
}
