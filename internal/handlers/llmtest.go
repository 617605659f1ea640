package handlers

import (
	"encoding/json"
	"net/http"

	"compliance-ai/internal/answer"
	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/llm"
)

// LLMTestHandler sends a prompt straight to the language model with no
// retrieval, for checking model connectivity.
type LLMTestHandler struct {
	client answer.LLM
}

// NewLLMTestHandler creates a new LLMTestHandler.
func NewLLMTestHandler(client answer.LLM) *LLMTestHandler {
	return &LLMTestHandler{client: client}
}

// LLMTestRequest represents the HTTP request payload for a model probe.
//
// swagger:model LLMTestRequest
type LLMTestRequest struct {
	Prompt string `json:"prompt"`
}

// LLMTestResponse carries the raw model output.
//
// swagger:model LLMTestResponse
type LLMTestResponse struct {
	Result string `json:"result"`
}

func (h *LLMTestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req LLMTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "A prompt is required")
		return
	}

	result, err := h.client.Chat(ctx, []llm.Message{{Role: "user", Content: req.Prompt}})
	if err != nil {
		logger.ErrorContext(ctx, "model probe failed", "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, LLMTestResponse{Result: result})
}
