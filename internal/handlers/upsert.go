package handlers

import (
	"encoding/json"
	"net/http"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/models"
)

// UpsertHandler handles HTTP requests for document ingestion.
type UpsertHandler struct {
	store datastore.DataStore
}

// NewUpsertHandler creates a new UpsertHandler.
func NewUpsertHandler(store datastore.DataStore) *UpsertHandler {
	return &UpsertHandler{store: store}
}

// UpsertRequest represents the HTTP request payload for document ingestion.
//
// swagger:model UpsertRequest
type UpsertRequest struct {
	Documents []models.Document `json:"documents"`
}

// UpsertResponse lists the ids of the ingested documents, including any
// that were generated server-side.
//
// swagger:model UpsertResponse
type UpsertResponse struct {
	IDs []string `json:"ids"`
}

// ServeHTTP chunks, embeds, and stores the submitted documents.
//
// swagger:route POST /upsert upsertDocuments
//
// # Upsert documents
//
// Splits each document into chunks of around 200 tokens, embeds them, and
// stores them in the vector database. Re-upserting a document with the same
// id replaces its previous chunks.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Ids of the ingested documents
//	  schema:
//	    "$ref": "#/definitions/UpsertResponse"
//	'400':
//	  description: Bad request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *UpsertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids, err := h.store.Upsert(ctx, req.Documents)
	if err != nil {
		logger.ErrorContext(ctx, "upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeJSON(w, http.StatusOK, UpsertResponse{IDs: ids})
}
