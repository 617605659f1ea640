// Package vectorstore defines the backend capability for vector storage
// and provides one implementation per backend.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks compliance-ai/internal/vectorstore VectorStore

import (
	"context"
	"errors"

	"compliance-ai/internal/models"
)

// Sentinel errors shared by backend implementations.
var (
	// ErrInvalidConfig indicates invalid backend configuration.
	ErrInvalidConfig = errors.New("invalid vector store configuration")

	// ErrUnsupportedFilter is returned when a backend cannot express a
	// filter condition (capability limit, not a caller bug).
	ErrUnsupportedFilter = errors.New("filter not supported by this backend")
)

// SearchResult is a retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk models.DocumentChunk
	Score float32
}

// VectorStore is the storage capability consumed by the datastore adapter.
// Implementations own their concurrency safety and similarity metric
// (cosine for both shipped backends).
type VectorStore interface {
	// EnsureReady prepares the backend (creates the collection if missing)
	// and validates its configuration. Called once at startup.
	EnsureReady(ctx context.Context) error

	// Upsert writes chunks and their vectors, replacing entries with
	// colliding chunk ids. chunks and vectors are parallel slices.
	Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32) error

	// Search returns up to topK chunks most similar to the vector,
	// ordered by descending score, optionally constrained by filter.
	Search(ctx context.Context, vector []float32, topK int, filter *models.MetadataFilter) ([]SearchResult, error)

	// Delete removes chunks by exactly one of: parent document ids, a
	// metadata filter, or deleteAll. Deleting ids with no stored chunks
	// is not an error.
	Delete(ctx context.Context, documentIDs []string, filter *models.MetadataFilter, deleteAll bool) error

	// Healthy reports whether the backend is reachable and serving.
	Healthy(ctx context.Context) error
}
