package driven

import (
	"context"

	"github.com/riverfold/feedlens/internal/core/domain"
)

// VectorStore persists chunk rows with their embeddings and the single
// sync checkpoint, and answers k-nearest-neighbour queries.
type VectorStore interface {
	// AddChunks inserts chunk rows.
	AddChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteByEntryIDs removes every chunk row belonging to the given
	// entries.
	DeleteByEntryIDs(ctx context.Context, entryIDs []int64) error

	// DeleteOlderThan removes chunk rows with published_at below the
	// given epoch-seconds threshold. Returns the number removed.
	DeleteOlderThan(ctx context.Context, threshold int64) (int64, error)

	// Search returns the k nearest chunks to the query vector, ordered
	// ascending by distance (lower = closer).
	Search(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error)

	// SyncState returns the persisted checkpoint. A store that has
	// never been written returns the zero state, not an error.
	SyncState(ctx context.Context) (domain.SyncState, error)

	// SaveSyncState upserts the checkpoint row.
	SaveSyncState(ctx context.Context, state domain.SyncState) error

	// Close releases resources.
	Close() error
}
