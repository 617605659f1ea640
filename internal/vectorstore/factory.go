package vectorstore

import (
	"fmt"
)

// Backend names accepted by the factory.
const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of BackendQdrant or BackendChromem.
	Backend string

	// Collection is the collection name used by both backends.
	Collection string

	// VectorSize is the embedding dimension (enforced by the qdrant
	// backend at collection creation).
	VectorSize int

	// QdrantURL is the HTTP URL of the Qdrant instance.
	QdrantURL string

	// ChromemPath is the persistence directory for the chromem backend;
	// empty means in-memory only.
	ChromemPath string
}

// New constructs the configured backend. The selection happens once at
// startup; callers hold the returned store for the process lifetime.
func New(opts Options) (VectorStore, error) {
	switch opts.Backend {
	case BackendQdrant:
		return NewQdrantStore(opts.QdrantURL, opts.Collection, opts.VectorSize)
	case BackendChromem:
		return NewChromemStore(opts.ChromemPath, opts.Collection)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, opts.Backend)
	}
}
