package datastore

import "errors"

// Sentinel errors for datastore operations. Callers use errors.Is to
// distinguish caller mistakes from backend failures.
var (
	// ErrInvalidDeleteRequest indicates a delete request that does not name
	// exactly one deletion mode.
	ErrInvalidDeleteRequest = errors.New("exactly one of ids, filter, or delete_all is required")

	// ErrStoreWrite indicates a failure while writing chunks to the vector store.
	ErrStoreWrite = errors.New("vector store write failed")

	// ErrStoreQuery indicates a failure while querying the vector store.
	ErrStoreQuery = errors.New("vector store query failed")
)
