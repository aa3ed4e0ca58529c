// Package memory provides an in-memory VectorStore. It backs unit
// tests for the sync and query engines and mirrors the behaviour the
// SQLite store provides on disk.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riverfold/feedlens/internal/adapters/driven/vectorstore"
	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory vector store.
type Store struct {
	mu     sync.Mutex
	chunks []domain.Chunk
	state  *domain.SyncState
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{}
}

// AddChunks inserts chunk rows.
func (s *Store) AddChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// DeleteByEntryIDs removes every chunk row for the given entries.
func (s *Store) DeleteByEntryIDs(_ context.Context, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}

	drop := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if !drop[c.EntryID] {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

// DeleteOlderThan removes chunk rows published before the threshold.
func (s *Store) DeleteOlderThan(_ context.Context, threshold int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.PublishedAt < threshold {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

// Search scans all rows and returns the k nearest by cosine distance.
func (s *Store) Search(_ context.Context, vector []float32, k int) ([]domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]domain.Candidate, 0, len(s.chunks))
	for _, c := range s.chunks {
		candidates = append(candidates, domain.Candidate{
			Chunk:    c,
			Distance: vectorstore.CosineDistance(vector, c.Vector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if k >= 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SyncState returns the checkpoint, or the zero state if never saved.
func (s *Store) SyncState(_ context.Context) (domain.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.SyncState{ID: domain.DefaultSyncStateID}, nil
	}
	return *s.state, nil
}

// SaveSyncState upserts the checkpoint row.
func (s *Store) SaveSyncState(_ context.Context, state domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// Chunks returns a snapshot of all stored rows, ordered by
// (entry_id, chunk_index). Used by tests to assert store contents.
func (s *Store) Chunks() []domain.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out
}
