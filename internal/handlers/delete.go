package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/models"
)

// DeleteHandler handles HTTP requests for chunk deletion.
type DeleteHandler struct {
	store datastore.DataStore
}

// NewDeleteHandler creates a new DeleteHandler.
func NewDeleteHandler(store datastore.DataStore) *DeleteHandler {
	return &DeleteHandler{store: store}
}

// DeleteRequest selects what to delete. Exactly one of Ids, Filter, or
// DeleteAll must be set; an empty filter object counts as unset.
//
// swagger:model DeleteRequest
type DeleteRequest struct {
	IDs       []string               `json:"ids,omitempty"`
	Filter    *models.MetadataFilter `json:"filter,omitempty"`
	DeleteAll bool                   `json:"delete_all,omitempty"`
}

// DeleteResponse reports whether the deletion was applied.
//
// swagger:model DeleteResponse
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ServeHTTP deletes chunks by document ids, by metadata filter, or
// wholesale. Requests naming zero or multiple selectors are rejected.
func (h *DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	success, err := h.store.Delete(ctx, req.IDs, req.Filter, req.DeleteAll)
	if err != nil {
		if errors.Is(err, datastore.ErrInvalidDeleteRequest) {
			logger.WarnContext(ctx, "invalid delete request", "error", err)
			writeError(w, http.StatusBadRequest, datastore.ErrInvalidDeleteRequest.Error())
			return
		}
		logger.ErrorContext(ctx, "delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: success})
}
