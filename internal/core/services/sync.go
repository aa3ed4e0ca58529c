// Package services contains the core business logic: the sync engine
// that ingests FreshRSS entries into the vector store, and the query
// engine that answers semantic searches against it.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riverfold/feedlens/internal/chunker"
	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
	"github.com/riverfold/feedlens/internal/logger"
	"github.com/riverfold/feedlens/internal/normalisers/html"
)

// SyncConfig holds the tuning parameters for the sync engine.
type SyncConfig struct {
	// Interval is the sleep between cycles.
	Interval time.Duration

	// RetentionDays bounds the age of stored chunks. Zero or negative
	// disables retention cleanup.
	RetentionDays int

	// EmbedBatchSize is the maximum number of texts per embedding call.
	EmbedBatchSize int

	// BatchEntries is the number of processed entries buffered before
	// a write to the vector store.
	BatchEntries int

	// Categories restricts ingestion to entries under the named
	// FreshRSS categories. Empty means all categories.
	Categories []string
}

// SyncEngine runs the ingestion loop: read new entries from the
// content source, normalize and chunk them, embed the chunks, and
// write them to the vector store, advancing a persistent watermark as
// it goes. A single engine owns the vector store handle; the content
// source is opened fresh each cycle and closed before the sleep.
type SyncEngine struct {
	source   driven.ContentSourceFactory
	store    driven.VectorStore
	embedder driven.EmbeddingService
	chunker  *chunker.Chunker
	cfg      SyncConfig

	state       domain.SyncState
	stateLoaded bool

	now func() time.Time
}

// NewSyncEngine creates a sync engine. The vector store handle stays
// open for the engine's lifetime; the content source factory is
// invoked once per cycle.
func NewSyncEngine(
	source driven.ContentSourceFactory,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	chunker *chunker.Chunker,
	cfg SyncConfig,
) *SyncEngine {
	return &SyncEngine{
		source:   source,
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run executes sync cycles until ctx is cancelled. Cycle failures are
// logged and absorbed: the loop itself only ends with the context.
func (e *SyncEngine) Run(ctx context.Context) error {
	if err := e.loadState(ctx); err != nil {
		return err
	}
	logger.Info("sync started: watermark entry id %d, interval %s", e.state.LastEntryID, e.cfg.Interval)

	for {
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("sync cycle failed: %v", err)
		}

		logger.Debug("sleeping %s until next cycle", e.cfg.Interval)
		timer := time.NewTimer(e.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs one full ingestion pass: fetch entries above the
// watermark, chunk and embed each, flush batches to the store, then
// apply retention cleanup. Per-entry failures are recorded and logged;
// only cycle-level failures (source unavailable, fetch errors) return
// an error.
func (e *SyncEngine) RunCycle(ctx context.Context) error {
	if err := e.loadState(ctx); err != nil {
		return err
	}

	src, err := e.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("open content source: %w", err)
	}
	defer src.Close()

	var categoryIDs []int64
	if len(e.cfg.Categories) > 0 {
		categoryIDs, err = src.CategoryIDs(ctx, e.cfg.Categories)
		if err != nil {
			return fmt.Errorf("resolve categories: %w", err)
		}
		if len(categoryIDs) == 0 {
			logger.Warn("no categories match %v; nothing to sync", e.cfg.Categories)
			return nil
		}
	}

	entries, err := src.EntriesAfter(ctx, e.state.LastEntryID, categoryIDs)
	if err != nil {
		return fmt.Errorf("fetch entries after id %d: %w", e.state.LastEntryID, err)
	}
	logger.Info("cycle: %d new entries after id %d", len(entries), e.state.LastEntryID)

	tracker := newOutcomeTracker(e.state.LastEntryID, entries)
	batch := &writeBatch{}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rows, err := e.prepareEntry(ctx, entry)
		if err != nil {
			logger.Warn("entry %d (%q): %v", entry.ID, entry.Title, err)
			tracker.mark(entry.ID, outcomeFailed)
			continue
		}
		if len(rows) == 0 {
			logger.Debug("entry %d (%q): no indexable text, skipped", entry.ID, entry.Title)
			tracker.mark(entry.ID, outcomeSkipped)
			continue
		}

		batch.add(entry.ID, rows)
		if batch.entryCount() >= e.cfg.BatchEntries {
			e.flush(ctx, batch, tracker)
		}
	}

	e.flush(ctx, batch, tracker)
	e.advanceWatermark(ctx, tracker)
	e.cleanup(ctx)
	return nil
}

// Watermark returns the current in-memory watermark entry id.
func (e *SyncEngine) Watermark() int64 { return e.state.LastEntryID }

func (e *SyncEngine) loadState(ctx context.Context) error {
	if e.stateLoaded {
		return nil
	}
	state, err := e.store.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}
	if state.ID == "" {
		state.ID = domain.DefaultSyncStateID
	}
	e.state = state
	e.stateLoaded = true
	return nil
}

// prepareEntry normalizes, chunks and embeds one entry. A nil, nil
// return means the entry carries no indexable text.
func (e *SyncEngine) prepareEntry(ctx context.Context, entry domain.Entry) ([]domain.Chunk, error) {
	text := html.Text(entry.Content)
	if text == "" {
		return nil, nil
	}

	pieces := e.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, nil
	}

	vectors, err := e.embedAll(ctx, pieces)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		rows[i] = domain.Chunk{
			ID:           uuid.New().String(),
			EntryID:      entry.ID,
			ChunkIndex:   i,
			Content:      piece,
			Vector:       vectors[i],
			PublishedAt:  entry.PublishedAt,
			FeedID:       entry.FeedID,
			CategoryID:   entry.CategoryID,
			CategoryName: entry.CategoryName,
			Title:        entry.Title,
			Link:         entry.Link,
		}
	}
	return rows, nil
}

// embedAll embeds texts in slices of at most EmbedBatchSize, verifying
// that every call returns exactly one vector per input text.
func (e *SyncEngine) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	size := e.cfg.EmbedBatchSize
	if size <= 0 {
		size = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		got, err := e.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
		}
		if len(got) != end-start {
			return nil, fmt.Errorf("%w: %d vectors for %d texts", domain.ErrEmbeddingCountMismatch, len(got), end-start)
		}
		vectors = append(vectors, got...)
	}
	return vectors, nil
}

// flush writes the buffered batch to the store: existing chunks for
// the batched entries are deleted first so re-ingestion replaces
// rather than accumulates. The batch is cleared either way; on failure
// its entries are marked failed and ingestion carries on, since the
// dropped entries sit above the watermark and will be retried next
// cycle.
func (e *SyncEngine) flush(ctx context.Context, batch *writeBatch, tracker *outcomeTracker) {
	if batch.entryCount() == 0 {
		return
	}
	entryIDs := batch.entryIDs()

	err := e.store.DeleteByEntryIDs(ctx, entryIDs)
	if err == nil {
		err = e.store.AddChunks(ctx, batch.rows)
	}
	if err != nil {
		logger.Warn("flush of %d entries failed: %v", len(entryIDs), err)
		for _, id := range entryIDs {
			tracker.mark(id, outcomeFailed)
		}
		batch.reset()
		return
	}

	logger.Debug("flushed %d chunks for %d entries", len(batch.rows), len(entryIDs))
	for _, id := range entryIDs {
		tracker.mark(id, outcomeFlushed)
	}
	batch.reset()

	e.advanceWatermark(ctx, tracker)
}

// advanceWatermark moves the watermark to the contiguous frontier: the
// highest entry id such that every entry up to it was flushed or
// deliberately skipped. A failed entry blocks advancement past itself,
// which is what guarantees it is re-read next cycle.
func (e *SyncEngine) advanceWatermark(ctx context.Context, tracker *outcomeTracker) {
	frontier := tracker.frontier()
	if frontier <= e.state.LastEntryID {
		return
	}

	e.state.LastEntryID = frontier
	e.state.LastSyncAt = e.now().Unix()
	if err := e.store.SaveSyncState(ctx, e.state); err != nil {
		// The in-memory watermark stays advanced; a stale persisted
		// value only means re-ingesting already-replaced entries after
		// a restart, which is idempotent.
		logger.Warn("persist sync state at entry id %d: %v", frontier, err)
		return
	}
	logger.Debug("watermark advanced to entry id %d", frontier)
}

// cleanup removes chunks older than the retention window.
func (e *SyncEngine) cleanup(ctx context.Context) {
	if e.cfg.RetentionDays <= 0 {
		return
	}
	threshold := e.now().Add(-time.Duration(e.cfg.RetentionDays) * 24 * time.Hour).Unix()
	removed, err := e.store.DeleteOlderThan(ctx, threshold)
	if err != nil {
		logger.Warn("retention cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		logger.Info("retention: removed %d chunks older than %d days", removed, e.cfg.RetentionDays)
	}
}

// writeBatch buffers chunk rows for a group of entries until flush.
type writeBatch struct {
	ids  []int64
	rows []domain.Chunk
}

func (b *writeBatch) add(entryID int64, rows []domain.Chunk) {
	b.ids = append(b.ids, entryID)
	b.rows = append(b.rows, rows...)
}

func (b *writeBatch) entryCount() int { return len(b.ids) }

func (b *writeBatch) entryIDs() []int64 { return b.ids }

func (b *writeBatch) reset() {
	b.ids = nil
	b.rows = nil
}

// entry processing outcomes, in watermark terms: flushed and skipped
// let the frontier pass, pending and failed stop it.
type outcome int

const (
	outcomePending outcome = iota
	outcomeFlushed
	outcomeSkipped
	outcomeFailed
)

// outcomeTracker records the per-entry result of a cycle in ascending
// id order and computes the contiguous frontier above the base
// watermark.
type outcomeTracker struct {
	base     int64
	ids      []int64
	outcomes map[int64]outcome
}

func newOutcomeTracker(base int64, entries []domain.Entry) *outcomeTracker {
	t := &outcomeTracker{
		base:     base,
		ids:      make([]int64, len(entries)),
		outcomes: make(map[int64]outcome, len(entries)),
	}
	for i, entry := range entries {
		t.ids[i] = entry.ID
		t.outcomes[entry.ID] = outcomePending
	}
	return t
}

func (t *outcomeTracker) mark(id int64, o outcome) {
	t.outcomes[id] = o
}

// frontier returns the highest id reachable from the base through an
// unbroken run of flushed or skipped entries.
func (t *outcomeTracker) frontier() int64 {
	frontier := t.base
	for _, id := range t.ids {
		o := t.outcomes[id]
		if o != outcomeFlushed && o != outcomeSkipped {
			break
		}
		frontier = id
	}
	return frontier
}
