package domain

// DefaultQueryLimit is used when the caller passes a non-positive limit.
const DefaultQueryLimit = 10

// QueryOptions controls a single query invocation.
type QueryOptions struct {
	// Limit is the maximum number of results. Non-positive values fall
	// back to DefaultQueryLimit.
	Limit int

	// Category filters results to an exact category name. Empty means
	// no category filter.
	Category string

	// Feed filters results to one feed, given either as a numeric id
	// or an exact feed name. Empty means no feed filter.
	Feed string

	// Rerank overrides the configured rerank default when non-nil.
	Rerank *bool

	// RerankModel overrides the configured rerank model when non-empty.
	RerankModel string

	// RerankCandidates overrides the configured rerank candidate count
	// when positive.
	RerankCandidates int
}

// QueryResult is one ranked answer to a query.
type QueryResult struct {
	FeedName    string
	Title       string
	Chunk       string
	RerankScore *float64
}
