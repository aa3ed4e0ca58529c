// Package vectorstore holds helpers shared by the vector store
// implementations in its subpackages.
package vectorstore

import "math"

// CosineDistance returns 1 - cosine_similarity(a, b), so 0 is
// identical direction and 2 is opposite. Mismatched lengths and zero
// vectors score the maximum distance rather than erroring; such rows
// can never pass a sane threshold filter.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
