package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/models"
)

// pointNamespace is the fixed namespace for deriving qdrant point ids from
// chunk ids. Qdrant requires UUID point ids; SHA1 UUIDs keep the mapping
// deterministic so re-upserted chunks collide instead of duplicating.
var pointNamespace = uuid.MustParse("9a3f1c42-7d15-4d60-a7b8-52e3f0c9d411")

// QdrantStore implements VectorStore against a Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize int
}

// NewQdrantStore creates a Qdrant-backed store. urlStr is the HTTP URL of
// the Qdrant instance (e.g. "http://localhost:6333"); the gRPC port is
// derived from the HTTP port.
func NewQdrantStore(urlStr, collection string, vectorSize int) (*QdrantStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrInvalidConfig)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC port is conventionally the HTTP port + 1.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
	}, nil
}

// EnsureReady creates the collection if missing and validates the vector
// size of an existing one.
func (s *QdrantStore) EnsureReady(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logger.InfoContext(ctx, "collection created", "collection", s.collection, "vector_size", s.vectorSize)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if vc := config.GetParams().GetVectorsConfig(); vc != nil && vc.GetParams() != nil {
			if actual := vc.GetParams().GetSize(); actual != 0 && int(actual) != s.vectorSize {
				return fmt.Errorf("collection vector size mismatch: expected %d, got %d", s.vectorSize, actual)
			}
		}
	}
	return nil
}

// Upsert writes chunk points, overwriting colliding chunk ids.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []models.DocumentChunk, vectors [][]float32) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(chunk.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(chunkPayload(chunk)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// Search performs a similarity search bounded by topK and constrained by
// the optional metadata filter.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int, filter *models.MetadataFilter) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	limit := uint64(topK)
	queryReq := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if qf, err := buildQdrantFilter(filter); err != nil {
		return nil, err
	} else if qf != nil {
		queryReq.Filter = qf
	}

	scored, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "top_k", topK, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, SearchResult{
			Chunk: chunkFromPayload(point.GetPayload()),
			Score: point.GetScore(),
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", s.collection, "top_k", topK, "results", len(results))
	return results, nil
}

// Delete removes points by document ids, by filter, or all of them.
func (s *QdrantStore) Delete(ctx context.Context, documentIDs []string, filter *models.MetadataFilter, deleteAll bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	selector, err := deleteSelector(documentIDs, filter, deleteAll)
	if err != nil {
		return err
	}

	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         selector,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", s.collection, "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", s.collection, "delete_all", deleteAll, "document_ids", len(documentIDs))
	return nil
}

// deleteSelector translates delete arguments into a qdrant points selector.
// A filter that yields no conditions is rejected: passing an empty filter
// through would match every point, and wiping the collection is only done
// through deleteAll.
func deleteSelector(documentIDs []string, filter *models.MetadataFilter, deleteAll bool) (*qdrant.PointsSelector, error) {
	switch {
	case deleteAll:
		// An empty filter matches every point.
		return qdrant.NewPointsSelectorFilter(&qdrant.Filter{}), nil
	case len(documentIDs) > 0:
		return qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords("document_id", documentIDs...),
			},
		}), nil
	default:
		qf, err := buildQdrantFilter(filter)
		if err != nil {
			return nil, err
		}
		if qf == nil {
			return nil, fmt.Errorf("delete filter matches no conditions")
		}
		return qdrant.NewPointsSelectorFilter(qf), nil
	}
}

// Healthy reports whether the collection is reachable.
func (s *QdrantStore) Healthy(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("collection %s does not exist", s.collection)
	}
	return nil
}

// buildQdrantFilter translates a metadata filter into qdrant conditions.
// Exact-match fields become keyword matches; the date range becomes a
// numeric range over the created_at_unix payload field.
func buildQdrantFilter(filter *models.MetadataFilter) (*qdrant.Filter, error) {
	if filter == nil {
		return nil, nil
	}

	var must []*qdrant.Condition
	if filter.DocumentID != "" {
		must = append(must, qdrant.NewMatch("document_id", filter.DocumentID))
	}
	if filter.Source != "" {
		must = append(must, qdrant.NewMatch("source", string(filter.Source)))
	}
	if filter.SourceID != "" {
		must = append(must, qdrant.NewMatch("source_id", filter.SourceID))
	}
	if filter.Author != "" {
		must = append(must, qdrant.NewMatch("author", filter.Author))
	}

	if filter.StartDate != "" || filter.EndDate != "" {
		r := &qdrant.Range{}
		if filter.StartDate != "" {
			t, err := time.Parse(time.RFC3339, filter.StartDate)
			if err != nil {
				return nil, fmt.Errorf("invalid start_date %q: %w", filter.StartDate, err)
			}
			gte := float64(t.Unix())
			r.Gte = &gte
		}
		if filter.EndDate != "" {
			t, err := time.Parse(time.RFC3339, filter.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid end_date %q: %w", filter.EndDate, err)
			}
			lte := float64(t.Unix())
			r.Lte = &lte
		}
		must = append(must, qdrant.NewRange("created_at_unix", r))
	}

	if len(must) == 0 {
		return nil, nil
	}
	return &qdrant.Filter{Must: must}, nil
}

// chunkPayload flattens a chunk into the point payload. The chunk text
// lives in the payload; there is no side store.
func chunkPayload(chunk models.DocumentChunk) map[string]any {
	payload := map[string]any{
		"chunk_id":    chunk.ID,
		"document_id": chunk.Metadata.DocumentID,
		"text":        chunk.Text,
	}
	if chunk.Metadata.Source != "" {
		payload["source"] = string(chunk.Metadata.Source)
	}
	if chunk.Metadata.SourceID != "" {
		payload["source_id"] = chunk.Metadata.SourceID
	}
	if chunk.Metadata.URL != "" {
		payload["url"] = chunk.Metadata.URL
	}
	if chunk.Metadata.Author != "" {
		payload["author"] = chunk.Metadata.Author
	}
	if chunk.Metadata.CreatedAt != "" {
		payload["created_at"] = chunk.Metadata.CreatedAt
		if t, err := time.Parse(time.RFC3339, chunk.Metadata.CreatedAt); err == nil {
			payload["created_at_unix"] = t.Unix()
		}
	}
	return payload
}

func chunkFromPayload(payload map[string]*qdrant.Value) models.DocumentChunk {
	get := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	return models.DocumentChunk{
		ID:   get("chunk_id"),
		Text: get("text"),
		Metadata: models.ChunkMetadata{
			DocumentMetadata: models.DocumentMetadata{
				Source:    models.Source(get("source")),
				SourceID:  get("source_id"),
				URL:       get("url"),
				CreatedAt: get("created_at"),
				Author:    get("author"),
			},
			DocumentID: get("document_id"),
		},
	}
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}
