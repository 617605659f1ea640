// Package answer turns retrieved chunks and a user prompt into a grounded
// natural-language response.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/llm"
	"compliance-ai/internal/models"
)

// ErrSynthesis indicates that retrieving context or generating the answer failed.
var ErrSynthesis = errors.New("answer synthesis failed")

// groundingPreamble frames the retrieved extracts for the model before the
// user's question is appended.
const groundingPreamble = "Given the following extracts from a collection of building codes: "

// LLM is the chat capability the synthesizer needs. Satisfied by llm.Client.
type LLM interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Synthesizer answers a prompt using chunks retrieved for the given queries.
type Synthesizer interface {
	Answer(ctx context.Context, queries []models.Query, prompt string) (*models.Answer, error)
}

type synthesizer struct {
	store datastore.DataStore
	llm   LLM
}

// NewSynthesizer creates a Synthesizer over the given store and chat client.
func NewSynthesizer(store datastore.DataStore, client LLM) Synthesizer {
	return &synthesizer{store: store, llm: client}
}

// Answer retrieves chunks for every query, assembles a single user message
// from the extracts and the prompt, and returns the model's response together
// with the retrieval results it was grounded on.
func (s *synthesizer) Answer(ctx context.Context, queries []models.Query, prompt string) (*models.Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	retrieved, err := s.store.Query(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	finalPrompt := buildPrompt(retrieved, prompt)
	logger.Debug("assembled answer prompt", "length", len(finalPrompt), "queries", len(queries))

	result, err := s.llm.Chat(ctx, []llm.Message{{Role: "user", Content: finalPrompt}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	return &models.Answer{Result: result, Sources: retrieved}, nil
}

// buildPrompt concatenates the preamble, every retrieved chunk text, and the
// user's question into one message. Each extract is terminated with ". " so
// adjacent chunks do not run together.
func buildPrompt(retrieved []models.QueryResult, prompt string) string {
	var b strings.Builder
	b.WriteString(groundingPreamble)
	for _, qr := range retrieved {
		for _, chunk := range qr.Results {
			b.WriteString(chunk.Text)
			b.WriteString(". ")
		}
	}
	b.WriteString(prompt)
	return b.String()
}
