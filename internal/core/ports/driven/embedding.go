package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-*, SiliconFlow Qwen3)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is aligned to the input: one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size. This must match the
	// vector store's configured dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
