package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/models"
)

// ChromemStore implements VectorStore on chromem-go, an embedded pure-Go
// vector database. With an empty path it runs fully in memory; with a path
// it persists to disk. Vectors are computed upstream, so the collection's
// embedding function is never invoked.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string

	// mu guards collection replacement during delete-all.
	mu sync.RWMutex
}

// NewChromemStore creates an embedded store. path == "" keeps everything
// in memory.
func NewChromemStore(path, collection string) (*ChromemStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrInvalidConfig)
	}

	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem DB at %s: %w", path, err)
		}
	}

	col, err := db.GetOrCreateCollection(collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		name:       collection,
	}, nil
}

// rejectEmbedding is installed as the collection embedding function.
// Embeddings are always supplied by the datastore, so a call here means a
// wiring bug rather than a user error.
func rejectEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings must be computed before reaching the store")
}

// EnsureReady is a no-op: the collection is created at construction.
func (s *ChromemStore) EnsureReady(_ context.Context) error {
	return nil
}

// Upsert writes chunk documents, overwriting colliding chunk ids.
func (s *ChromemStore) Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata:  chunkMetadataMap(chunk.Metadata),
		})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to add documents", "collection", s.name, "count", len(docs), "error", err)
		return fmt.Errorf("failed to add documents: %w", err)
	}

	logger.InfoContext(ctx, "upserted chunks", "collection", s.name, "count", len(docs))
	return nil
}

// Search performs a cosine similarity query. Exact-match filter fields map
// to chromem's where clause; date ranges are applied by post-filtering the
// returned hits, since chromem filters are exact-match only.
func (s *ChromemStore) Search(ctx context.Context, vector []float32, topK int, filter *models.MetadataFilter) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	start, end, err := filterDateRange(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// A date range is applied after the similarity cut, so fetching only
	// topK hits could drop in-range chunks ranked below out-of-range ones.
	// With a range present, fetch every candidate and cut to topK after.
	dated := !start.IsZero() || !end.IsZero()
	n := topK
	count := s.collection.Count()
	if dated || n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	hits, err := s.collection.QueryEmbedding(ctx, vector, n, filterWhere(filter), nil)
	if err != nil {
		logger.ErrorContext(ctx, "query failed", "collection", s.name, "top_k", topK, "error", err)
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk := chunkFromMetadataMap(hit.ID, hit.Content, hit.Metadata)
		if !withinDateRange(chunk.Metadata.CreatedAt, start, end) {
			continue
		}
		results = append(results, SearchResult{Chunk: chunk, Score: hit.Similarity})
	}
	if len(results) > topK {
		results = results[:topK]
	}

	logger.InfoContext(ctx, "search completed", "collection", s.name, "top_k", topK, "results", len(results))
	return results, nil
}

// Delete removes chunks by document ids, by filter, or all of them.
// Date-range deletes are a capability this backend does not have: its
// delete API takes exact-match predicates only and there is no listing to
// resolve a range against.
func (s *ChromemStore) Delete(ctx context.Context, documentIDs []string, filter *models.MetadataFilter, deleteAll bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case deleteAll:
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		col, err := s.db.GetOrCreateCollection(s.name, nil, rejectEmbedding)
		if err != nil {
			return fmt.Errorf("failed to recreate collection: %w", err)
		}
		s.collection = col
		logger.InfoContext(ctx, "deleted all chunks", "collection", s.name)
		return nil

	case len(documentIDs) > 0:
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, id := range documentIDs {
			if s.collection.Count() == 0 {
				return nil
			}
			where := map[string]string{"document_id": id}
			if err := s.collection.Delete(ctx, where, nil); err != nil {
				return fmt.Errorf("failed to delete chunks of document %s: %w", id, err)
			}
		}
		logger.InfoContext(ctx, "deleted chunks by document ids", "collection", s.name, "documents", len(documentIDs))
		return nil

	default:
		if filter != nil && (filter.StartDate != "" || filter.EndDate != "") {
			return fmt.Errorf("%w: date-range delete", ErrUnsupportedFilter)
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.collection.Count() == 0 {
			return nil
		}
		if err := s.collection.Delete(ctx, filterWhere(filter), nil); err != nil {
			return fmt.Errorf("failed to delete chunks by filter: %w", err)
		}
		logger.InfoContext(ctx, "deleted chunks by filter", "collection", s.name)
		return nil
	}
}

// Healthy always succeeds: the store is in-process.
func (s *ChromemStore) Healthy(_ context.Context) error {
	return nil
}

// filterWhere maps exact-match filter fields to a chromem where clause.
func filterWhere(filter *models.MetadataFilter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.DocumentID != "" {
		where["document_id"] = filter.DocumentID
	}
	if filter.Source != "" {
		where["source"] = string(filter.Source)
	}
	if filter.SourceID != "" {
		where["source_id"] = filter.SourceID
	}
	if filter.Author != "" {
		where["author"] = filter.Author
	}
	if len(where) == 0 {
		return nil
	}
	return where
}

func filterDateRange(filter *models.MetadataFilter) (start, end time.Time, err error) {
	if filter == nil {
		return start, end, nil
	}
	if filter.StartDate != "" {
		start, err = time.Parse(time.RFC3339, filter.StartDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date %q: %w", filter.StartDate, err)
		}
	}
	if filter.EndDate != "" {
		end, err = time.Parse(time.RFC3339, filter.EndDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date %q: %w", filter.EndDate, err)
		}
	}
	return start, end, nil
}

func withinDateRange(createdAt string, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		// Chunks without a parseable date cannot match a dated filter.
		return false
	}
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func chunkMetadataMap(meta models.ChunkMetadata) map[string]string {
	m := map[string]string{
		"document_id": meta.DocumentID,
	}
	if meta.Source != "" {
		m["source"] = string(meta.Source)
	}
	if meta.SourceID != "" {
		m["source_id"] = meta.SourceID
	}
	if meta.URL != "" {
		m["url"] = meta.URL
	}
	if meta.Author != "" {
		m["author"] = meta.Author
	}
	if meta.CreatedAt != "" {
		m["created_at"] = meta.CreatedAt
	}
	return m
}

func chunkFromMetadataMap(id, text string, meta map[string]string) models.DocumentChunk {
	return models.DocumentChunk{
		ID:   id,
		Text: text,
		Metadata: models.ChunkMetadata{
			DocumentMetadata: models.DocumentMetadata{
				Source:    models.Source(meta["source"]),
				SourceID:  meta["source_id"],
				URL:       meta["url"],
				CreatedAt: meta["created_at"],
				Author:    meta["author"],
			},
			DocumentID: meta["document_id"],
		},
	}
}
