package handlers

import (
	"encoding/json"
	"net/http"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/models"
)

// QueryHandler handles HTTP requests for semantic search.
type QueryHandler struct {
	store datastore.DataStore
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store datastore.DataStore) *QueryHandler {
	return &QueryHandler{store: store}
}

// QueryRequest represents the HTTP request payload for semantic search.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Queries []models.Query `json:"queries"`
}

// QueryResponse holds one result set per submitted query, in input order.
//
// swagger:model QueryResponse
type QueryResponse struct {
	Results []models.QueryResult `json:"results"`
}

// ServeHTTP runs one or more natural language queries with optional
// metadata filters and returns the most relevant chunks for each.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.store.Query(ctx, req.Queries)
	if err != nil {
		logger.ErrorContext(ctx, "query failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	if results == nil {
		results = []models.QueryResult{}
	}

	writeJSON(w, http.StatusOK, QueryResponse{Results: results})
}
