package driven

import "context"

// RerankService reorders a candidate document set by relevance to a
// query. This is an optional second-stage capability; when nil or
// failing, queries fall back to vector-distance order.
type RerankService interface {
	// Rerank scores each document against the query. The returned
	// scores are aligned to the input order: scores[i] belongs to
	// documents[i]. Higher is more relevant.
	Rerank(ctx context.Context, model, query string, documents []string) ([]float64, error)
}
