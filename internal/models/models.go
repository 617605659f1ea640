// Package models defines the domain and wire types shared across the service.
package models

// Source identifies where a document originally came from.
type Source string

const (
	SourceEmail Source = "email"
	SourceFile  Source = "file"
	SourceChat  Source = "chat"
)

// DocumentMetadata is caller-supplied metadata attached to a document.
type DocumentMetadata struct {
	Source    Source `json:"source,omitempty"`
	SourceID  string `json:"source_id,omitempty"`
	URL       string `json:"url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Author    string `json:"author,omitempty"`
}

// ChunkMetadata is document metadata inherited by a chunk, plus the link
// back to the parent document.
type ChunkMetadata struct {
	DocumentMetadata
	DocumentID string `json:"document_id,omitempty"`
}

// Document is the unit of ingestion. ID is assigned at upsert time if empty.
type Document struct {
	ID       string           `json:"id,omitempty"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata,omitempty"`
}

// DocumentChunk is the unit of storage and retrieval. Its ID is derived
// deterministically from the parent document id and the chunk index, so
// re-upserting a document overwrites rather than duplicates.
type DocumentChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkWithScore pairs a retrieved chunk with its similarity score.
type ChunkWithScore struct {
	DocumentChunk
	Score float32 `json:"score"`
}

// MetadataFilter scopes a query or delete to matching chunks.
// String fields are exact-match; StartDate/EndDate bound CreatedAt
// (RFC 3339) as a closed range.
type MetadataFilter struct {
	DocumentID string `json:"document_id,omitempty"`
	Source     Source `json:"source,omitempty"`
	SourceID   string `json:"source_id,omitempty"`
	Author     string `json:"author,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

// IsZero reports whether no filter field is set. A delete request carrying
// an empty filter object is treated as having no filter at all.
func (f *MetadataFilter) IsZero() bool {
	if f == nil {
		return true
	}
	return *f == MetadataFilter{}
}

// Query is a single natural-language search request.
type Query struct {
	Query  string          `json:"query"`
	Filter *MetadataFilter `json:"filter,omitempty"`
	TopK   int             `json:"top_k,omitempty"`
}

// QueryResult pairs the originating query with its ranked chunks,
// ordered by descending similarity.
type QueryResult struct {
	Query   string           `json:"query"`
	Results []ChunkWithScore `json:"results"`
}

// Answer is a synthesized response together with the retrieval results
// that grounded it.
type Answer struct {
	Result  string        `json:"result"`
	Sources []QueryResult `json:"sources"`
}
