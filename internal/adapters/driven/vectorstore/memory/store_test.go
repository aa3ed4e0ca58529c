package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverfold/feedlens/internal/core/domain"
)

func chunk(entryID int64, index int, vector []float32, publishedAt int64) domain.Chunk {
	return domain.Chunk{
		ID:          "test-id",
		EntryID:     entryID,
		ChunkIndex:  index,
		Content:     "content",
		Vector:      vector,
		PublishedAt: publishedAt,
	}
}

func TestStore_SearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AddChunks(ctx, []domain.Chunk{
		chunk(1, 0, []float32{0, 1}, 100),
		chunk(2, 0, []float32{1, 0}, 100),
		chunk(3, 0, []float32{1, 1}, 100),
	}))

	hits, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(2), hits[0].EntryID)
	assert.Equal(t, int64(3), hits[1].EntryID)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestStore_DeleteByEntryIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AddChunks(ctx, []domain.Chunk{
		chunk(1, 0, []float32{1, 0}, 100),
		chunk(1, 1, []float32{1, 0}, 100),
		chunk(2, 0, []float32{1, 0}, 100),
	}))

	require.NoError(t, s.DeleteByEntryIDs(ctx, []int64{1}))

	rows := s.Chunks()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].EntryID)
}

func TestStore_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AddChunks(ctx, []domain.Chunk{
		chunk(1, 0, []float32{1, 0}, 100),
		chunk(2, 0, []float32{1, 0}, 200),
	}))

	removed, err := s.DeleteOlderThan(ctx, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows := s.Chunks()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].EntryID)
}

func TestStore_SyncStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	state, err := s.SyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSyncStateID, state.ID)
	assert.Zero(t, state.LastEntryID)

	require.NoError(t, s.SaveSyncState(ctx, domain.SyncState{
		ID:          domain.DefaultSyncStateID,
		LastEntryID: 42,
		LastSyncAt:  1700000000,
	}))

	state, err = s.SyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), state.LastEntryID)
	assert.Equal(t, int64(1700000000), state.LastSyncAt)
}
