package models

import (
	"context"
	"fmt"
	"math"
)

// Embedder computes fixed-length semantic vectors. Every call must
// produce the same dimensionality; similarity search depends on it.
type Embedder interface {
	// Embed generates an embedding for a single text string.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Health checks if the service is available and the model is
	// loaded.
	Health() error
}

// NewEmbedder creates an embedding client for the given provider.
// Supported providers: "ollama", "lmstudio".
func NewEmbedder(provider, baseURL, model string) (Embedder, error) {
	switch provider {
	case "ollama":
		return NewOllamaEmbedder(baseURL, model), nil
	case "lmstudio":
		return NewLMStudioEmbedder(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: ollama, lmstudio)", provider)
	}
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
// Mismatched dimensionality yields 0; such vectors are not comparable.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
