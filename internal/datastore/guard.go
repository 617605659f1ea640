package datastore

import (
	"fmt"

	"compliance-ai/internal/models"
)

// ValidateDelete enforces that a delete request selects exactly one deletion
// mode: a list of document ids, a metadata filter, or delete_all. An empty
// filter object counts as absent, so a client sending "filter": {} cannot
// accidentally wipe the collection.
func ValidateDelete(ids []string, filter *models.MetadataFilter, deleteAll bool) error {
	modes := 0
	if len(ids) > 0 {
		modes++
	}
	if !filter.IsZero() {
		modes++
	}
	if deleteAll {
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("%w: got %d selectors", ErrInvalidDeleteRequest, modes)
	}
	return nil
}
