// Package chunker splits normalized text into overlapping word windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/riverfold/feedlens/internal/core/domain"
)

// Chunker produces whitespace-joined token windows of at most size
// tokens, with consecutive windows overlapping by overlap tokens.
//
// The step between windows is max(1, size - max(0, overlap)). An
// overlap larger than the size therefore degrades to step 1: still
// finite, but drastically more chunks per document.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window parameters. size must be positive; a
// negative overlap is treated as zero.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split tokenizes text on whitespace and returns the ordered sequence
// of windows. Empty or all-whitespace input yields no chunks; any
// other input yields at least one, and every chunk is non-empty.
func (c *Chunker) Split(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// Size returns the configured window size in tokens.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in tokens.
func (c *Chunker) Overlap() int { return c.overlap }
