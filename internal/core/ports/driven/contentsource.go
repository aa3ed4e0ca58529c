package driven

import (
	"context"

	"github.com/riverfold/feedlens/internal/core/domain"
)

// ContentSource reads from the upstream FreshRSS store. The source is
// strictly read-only; feedlens never mutates it.
//
// A ContentSource is opened per sync cycle or query and closed when the
// operation finishes, so no handle is held across sleeps.
type ContentSource interface {
	// EntriesAfter returns entries with id > afterID ordered ascending
	// by id, optionally restricted to the given category ids.
	EntriesAfter(ctx context.Context, afterID int64, categoryIDs []int64) ([]domain.Entry, error)

	// CategoryIDs resolves category names to ids. Names that do not
	// exist resolve to nothing rather than an error.
	CategoryIDs(ctx context.Context, names []string) ([]int64, error)

	// ExistingEntryIDs reports which of the given entry ids still exist.
	ExistingEntryIDs(ctx context.Context, ids []int64) (map[int64]bool, error)

	// FeedByName looks a feed up by exact name. Returns
	// domain.ErrNotFound if no feed has that name.
	FeedByName(ctx context.Context, name string) (*domain.Feed, error)

	// FeedName resolves a feed id to its display name. Returns
	// domain.ErrNotFound for unknown ids.
	FeedName(ctx context.Context, id int64) (string, error)

	// Close releases the underlying connection.
	Close() error
}

// ContentSourceFactory opens a fresh ContentSource per operation.
type ContentSourceFactory interface {
	Open(ctx context.Context) (ContentSource, error)
}

// ContentSourceFactoryFunc adapts a function to ContentSourceFactory.
type ContentSourceFactoryFunc func(ctx context.Context) (ContentSource, error)

// Open implements ContentSourceFactory.
func (f ContentSourceFactoryFunc) Open(ctx context.Context) (ContentSource, error) {
	return f(ctx)
}
