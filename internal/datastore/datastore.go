// Package datastore composes chunking, embedding, and the vector store
// backend into the document-level operations the API exposes.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"compliance-ai/internal/chunker"
	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/models"
	"compliance-ai/internal/vectorstore"
)

const (
	// defaultTopK is used when a query does not specify how many results it wants.
	defaultTopK = 5
	// maxTopK bounds how many results a single query may ask for.
	maxTopK = 40
	// embedBatchSize caps how many chunk texts go to the embeddings API per call.
	embedBatchSize = 64
)

// Embedder turns texts into vectors. Satisfied by llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DataStore is the document-level API over a vector store backend.
type DataStore interface {
	// Upsert chunks, embeds, and stores the given documents. Returns the
	// document ids, generating one for any document that arrived without.
	Upsert(ctx context.Context, docs []models.Document) ([]string, error)

	// Query runs all queries against the store and returns one result set
	// per query, in input order.
	Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error)

	// Delete removes chunks by document ids, by metadata filter, or wholesale.
	Delete(ctx context.Context, ids []string, filter *models.MetadataFilter, deleteAll bool) (bool, error)
}

// Store is the production DataStore backed by a vector store.
type Store struct {
	chunker  *chunker.Chunker
	embedder Embedder
	backend  vectorstore.VectorStore
}

// New creates a Store over the given embedder and backend.
func New(ck *chunker.Chunker, embedder Embedder, backend vectorstore.VectorStore) *Store {
	return &Store{
		chunker:  ck,
		embedder: embedder,
		backend:  backend,
	}
}

// Upsert processes documents one at a time: chunk, embed in batches, write.
// Chunk ids are derived from the document id, so re-upserting the same
// document replaces its chunks instead of duplicating them.
func (s *Store) Upsert(ctx context.Context, docs []models.Document) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ids := make([]string, 0, len(docs))
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		ids = append(ids, docs[i].ID)
	}

	for _, doc := range docs {
		chunks := s.chunker.Chunk(doc)
		if len(chunks) == 0 {
			logger.Debug("document produced no chunks", "document_id", doc.ID)
			continue
		}

		vectors, err := s.embedChunks(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding document %s: %v", ErrStoreWrite, doc.ID, err)
		}

		if err := s.backend.Upsert(ctx, chunks, vectors); err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrStoreWrite, doc.ID, err)
		}

		logger.Info("upserted document", "document_id", doc.ID, "chunks", len(chunks))
	}

	return ids, nil
}

// embedChunks embeds chunk texts in batches and returns one vector per chunk.
func (s *Store) embedChunks(ctx context.Context, chunks []models.DocumentChunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}
		batch, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Query embeds all query texts, then fans the searches out concurrently.
// One query failing does not stop the others; results keep input order and
// failed queries surface as an aggregated error alongside the successes.
func (s *Store) Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Query
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding queries: %v", ErrStoreQuery, err)
	}

	results := make([]models.QueryResult, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i := range queries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = models.QueryResult{Query: queries[i].Query}

			hits, err := s.backend.Search(ctx, vectors[i], topK(queries[i].TopK), queries[i].Filter)
			if err != nil {
				errs[i] = fmt.Errorf("query %d: %w", i, err)
				return
			}

			scored := make([]models.ChunkWithScore, 0, len(hits))
			for _, hit := range hits {
				scored = append(scored, models.ChunkWithScore{
					DocumentChunk: hit.Chunk,
					Score:         hit.Score,
				})
			}
			results[i].Results = scored
		}(i)
	}
	wg.Wait()

	if joined := errors.Join(errs...); joined != nil {
		return results, fmt.Errorf("%w: %v", ErrStoreQuery, joined)
	}
	return results, nil
}

// topK clamps a requested result count into the allowed range.
func topK(requested int) int {
	if requested <= 0 {
		return defaultTopK
	}
	if requested > maxTopK {
		return maxTopK
	}
	return requested
}

// Delete validates the request and forwards it to the backend. Deleting
// documents that do not exist succeeds.
func (s *Store) Delete(ctx context.Context, ids []string, filter *models.MetadataFilter, deleteAll bool) (bool, error) {
	if err := ValidateDelete(ids, filter, deleteAll); err != nil {
		return false, err
	}

	if filter.IsZero() {
		filter = nil
	}
	if err := s.backend.Delete(ctx, ids, filter, deleteAll); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return true, nil
}
