package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/riverfold/feedlens/internal/core/domain"
	"github.com/riverfold/feedlens/internal/core/ports/driven"
	"github.com/riverfold/feedlens/internal/logger"
)

// QueryConfig holds the tuning parameters for the query engine.
type QueryConfig struct {
	// Threshold is the maximum cosine distance a candidate may have.
	Threshold float64

	// PoolMultiplier scales the requested limit into the candidate
	// pool fetched from the store, so that filtering and per-entry
	// deduplication still leave enough results.
	PoolMultiplier int

	// PoolCap bounds the candidate pool, but never below the limit.
	PoolCap int

	// DocMaxChars truncates documents sent to the rerank model.
	DocMaxChars int

	// RerankEnabled turns the second-stage rerank pass on by default;
	// per-query options can override it.
	RerankEnabled bool

	// RerankModel is the default rerank model name.
	RerankModel string

	// RerankCandidates is the default number of candidates sent to the
	// rerank model.
	RerankCandidates int
}

// QueryEngine answers semantic searches: embed the query, pull a
// candidate pool from the vector store, filter and deduplicate it,
// reconcile against the live content source, optionally rerank, and
// shape the survivors into results.
//
// Every infrastructure failure on the query path degrades instead of
// aborting: embedding or store errors yield an empty result set with a
// logged diagnostic, a rerank failure falls back to distance order,
// and an unreachable content source skips reconciliation. The one
// error a caller sees is domain.ErrNoSuchFeed for a feed filter that
// names no known feed.
type QueryEngine struct {
	source   driven.ContentSourceFactory
	store    driven.VectorStore
	embedder driven.EmbeddingService
	reranker driven.RerankService // nil disables reranking
	cfg      QueryConfig
}

// NewQueryEngine creates a query engine. reranker may be nil, in which
// case rerank requests are ignored.
func NewQueryEngine(
	source driven.ContentSourceFactory,
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	reranker driven.RerankService,
	cfg QueryConfig,
) *QueryEngine {
	return &QueryEngine{
		source:   source,
		store:    store,
		embedder: embedder,
		reranker: reranker,
		cfg:      cfg,
	}
}

// Query runs one search and returns at most opts.Limit results ordered
// best-first.
func (e *QueryEngine) Query(ctx context.Context, query string, opts domain.QueryOptions) ([]domain.QueryResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultQueryLimit
	}

	rerank := e.rerankEnabled(opts)
	chunksPerEntry := 1
	if rerank {
		chunksPerEntry = 2
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("query embedding failed, no results: %v", err)
		return nil, nil
	}

	candidates, err := e.store.Search(ctx, vector, e.poolSize(limit))
	if err != nil {
		logger.Warn("vector search failed, no results: %v", err)
		return nil, nil
	}
	logger.Debug("pool: %d candidates for limit %d", len(candidates), limit)

	candidates = e.filterByThreshold(candidates)
	candidates = selectPerEntry(candidates, chunksPerEntry)

	if opts.Category != "" {
		candidates = filterCandidates(candidates, func(c domain.Candidate) bool {
			return c.CategoryName == opts.Category
		})
	}

	// Reconciliation and feed-name work share one source handle for
	// the whole query.
	src, err := e.source.Open(ctx)
	if err != nil {
		logger.Warn("content source unavailable, skipping reconciliation: %v", err)
		src = nil
	} else {
		defer src.Close()
	}

	if opts.Feed != "" {
		candidates, err = e.filterByFeed(ctx, src, candidates, opts.Feed)
		if err != nil {
			return nil, err
		}
	}

	candidates = e.reconcile(ctx, src, candidates)

	if rerank {
		candidates = e.rerank(ctx, query, candidates, opts, limit, chunksPerEntry)
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return e.shapeResults(ctx, src, candidates), nil
}

func (e *QueryEngine) rerankEnabled(opts domain.QueryOptions) bool {
	if e.reranker == nil {
		return false
	}
	if opts.Rerank != nil {
		return *opts.Rerank
	}
	return e.cfg.RerankEnabled
}

// poolSize over-fetches relative to the limit so downstream filters
// still leave enough candidates, bounded by the pool cap but never
// below the limit itself.
func (e *QueryEngine) poolSize(limit int) int {
	pool := limit * e.cfg.PoolMultiplier
	ceiling := e.cfg.PoolCap
	if ceiling < limit {
		ceiling = limit
	}
	if pool > ceiling {
		pool = ceiling
	}
	if pool < limit {
		pool = limit
	}
	return pool
}

func (e *QueryEngine) filterByThreshold(candidates []domain.Candidate) []domain.Candidate {
	return filterCandidates(candidates, func(c domain.Candidate) bool {
		return c.Distance <= e.cfg.Threshold
	})
}

// selectPerEntry keeps at most perEntry chunks per entry, preferring
// the closest, and drops exact duplicate (entry id, content) pairs
// left behind by overlapping historical ingestions. Final order is by
// distance ascending, ties broken stably.
func selectPerEntry(candidates []domain.Candidate, perEntry int) []domain.Candidate {
	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntryID != sorted[j].EntryID {
			return sorted[i].EntryID < sorted[j].EntryID
		}
		return sorted[i].Distance < sorted[j].Distance
	})

	type key struct {
		entryID int64
		content string
	}
	seen := make(map[key]bool)
	perEntryCount := make(map[int64]int)

	kept := sorted[:0]
	for _, c := range sorted {
		k := key{c.EntryID, c.Content}
		if seen[k] {
			continue
		}
		if perEntryCount[c.EntryID] >= perEntry {
			continue
		}
		seen[k] = true
		perEntryCount[c.EntryID]++
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Distance < kept[j].Distance
	})
	return kept
}

// filterByFeed narrows candidates to one feed, named either by numeric
// id or by exact feed name. An unknown name is a caller error
// (domain.ErrNoSuchFeed); an unreachable source degrades to no
// results.
func (e *QueryEngine) filterByFeed(ctx context.Context, src driven.ContentSource, candidates []domain.Candidate, feed string) ([]domain.Candidate, error) {
	feedID, parseErr := strconv.ParseInt(feed, 10, 64)
	if parseErr != nil {
		if src == nil {
			logger.Warn("cannot resolve feed %q without content source", feed)
			return nil, nil
		}
		f, err := src.FeedByName(ctx, feed)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrNoSuchFeed, feed)
			}
			logger.Warn("feed lookup %q failed: %v", feed, err)
			return nil, nil
		}
		feedID = f.ID
	}

	return filterCandidates(candidates, func(c domain.Candidate) bool {
		return c.FeedID == feedID
	}), nil
}

// reconcile drops candidates whose entries no longer exist upstream
// and, best-effort, evicts their chunks from the store so the index
// converges on deletions without a dedicated delete protocol.
func (e *QueryEngine) reconcile(ctx context.Context, src driven.ContentSource, candidates []domain.Candidate) []domain.Candidate {
	if src == nil || len(candidates) == 0 {
		return candidates
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, c := range candidates {
		if !seen[c.EntryID] {
			seen[c.EntryID] = true
			ids = append(ids, c.EntryID)
		}
	}

	existing, err := src.ExistingEntryIDs(ctx, ids)
	if err != nil {
		logger.Warn("existence check failed, skipping reconciliation: %v", err)
		return candidates
	}

	var stale []int64
	for _, id := range ids {
		if !existing[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return candidates
	}

	logger.Debug("reconciliation: %d entries deleted upstream", len(stale))
	if err := e.store.DeleteByEntryIDs(ctx, stale); err != nil {
		logger.Warn("evicting %d stale entries failed: %v", len(stale), err)
	}

	return filterCandidates(candidates, func(c domain.Candidate) bool {
		return existing[c.EntryID]
	})
}

// rerank sends the leading candidates to the rerank model and reorders
// them by relevance score, highest first. Any failure falls back to
// the incoming distance order.
func (e *QueryEngine) rerank(ctx context.Context, query string, candidates []domain.Candidate, opts domain.QueryOptions, limit, chunksPerEntry int) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	model := e.cfg.RerankModel
	if opts.RerankModel != "" {
		model = opts.RerankModel
	}
	topN := e.cfg.RerankCandidates
	if opts.RerankCandidates > 0 {
		topN = opts.RerankCandidates
	}
	if floor := limit * chunksPerEntry; topN < floor {
		topN = floor
	}
	if topN > len(candidates) {
		topN = len(candidates)
	}

	docs := make([]string, topN)
	for i, c := range candidates[:topN] {
		docs[i] = truncateRunes(c.Title+"\n\n"+c.Content, e.cfg.DocMaxChars)
	}

	scores, err := e.reranker.Rerank(ctx, model, query, docs)
	if err != nil || len(scores) != topN {
		logger.Warn("rerank failed, falling back to distance order: %v", err)
		return candidates
	}

	reranked := make([]domain.Candidate, topN)
	copy(reranked, candidates[:topN])
	for i := range reranked {
		score := scores[i]
		reranked[i].RerankScore = &score
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return *reranked[i].RerankScore > *reranked[j].RerankScore
	})

	return append(reranked, candidates[topN:]...)
}

// shapeResults resolves feed names and flattens candidates into the
// output shape. Feed names are resolved once per feed id; resolution
// failures leave the name empty rather than dropping the result.
func (e *QueryEngine) shapeResults(ctx context.Context, src driven.ContentSource, candidates []domain.Candidate) []domain.QueryResult {
	names := make(map[int64]string)
	results := make([]domain.QueryResult, 0, len(candidates))

	for _, c := range candidates {
		name, ok := names[c.FeedID]
		if !ok {
			if src != nil {
				resolved, err := src.FeedName(ctx, c.FeedID)
				if err != nil {
					logger.Debug("feed name for id %d: %v", c.FeedID, err)
				} else {
					name = resolved
				}
			}
			names[c.FeedID] = name
		}
		results = append(results, domain.QueryResult{
			FeedName:    name,
			Title:       c.Title,
			Chunk:       c.Content,
			RerankScore: c.RerankScore,
		})
	}
	return results
}

func filterCandidates(candidates []domain.Candidate, keep func(domain.Candidate) bool) []domain.Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// truncateRunes shortens s to at most n runes, leaving valid UTF-8.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
