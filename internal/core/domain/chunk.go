package domain

// Chunk is one embedded text window derived from an entry. Chunks for
// a given EntryID always form a contiguous 0..n-1 run produced by a
// single ingestion pass; re-ingestion replaces the whole set.
type Chunk struct {
	ID           string // uuid, vector store primary key
	EntryID      int64
	ChunkIndex   int
	Content      string
	Vector       []float32
	PublishedAt  int64
	FeedID       int64
	CategoryID   *int64
	CategoryName string
	Title        string
	Link         string
}

// Candidate is a chunk returned by a similarity search, carrying the
// vector distance (lower = closer) and, after a rerank pass, the
// relevance score assigned by the rerank model.
type Candidate struct {
	Chunk
	Distance    float64
	RerankScore *float64
}
