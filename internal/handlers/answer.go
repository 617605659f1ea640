package handlers

import (
	"encoding/json"
	"net/http"

	"compliance-ai/internal/answer"
	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/models"
)

// AnswerHandler handles HTTP requests for grounded question answering.
type AnswerHandler struct {
	synthesizer answer.Synthesizer
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(synthesizer answer.Synthesizer) *AnswerHandler {
	return &AnswerHandler{synthesizer: synthesizer}
}

// AnswerRequest carries the retrieval queries plus the question to answer.
//
// swagger:model AnswerRequest
type AnswerRequest struct {
	Queries []models.Query `json:"queries"`
	Prompt  string         `json:"prompt"`
}

// ServeHTTP retrieves chunks for the queries, then asks the language model
// to answer the prompt grounded on those extracts. The response carries the
// answer together with the retrieval results it was based on.
func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Prompt == "" {
		logger.WarnContext(ctx, "answer request with no prompt")
		writeError(w, http.StatusBadRequest, "A prompt is required")
		return
	}
	if len(req.Queries) == 0 {
		logger.WarnContext(ctx, "answer request with no queries")
		writeError(w, http.StatusBadRequest, "At least one query is required")
		return
	}

	result, err := h.synthesizer.Answer(ctx, req.Queries, req.Prompt)
	if err != nil {
		logger.ErrorContext(ctx, "answer synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
