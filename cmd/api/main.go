package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"compliance-ai/internal/answer"
	"compliance-ai/internal/chunker"
	"compliance-ai/internal/config"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/extract"
	"compliance-ai/internal/http"
	"compliance-ai/internal/llm"
	"compliance-ai/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API stores documents in a vector database and answers natural
// language questions about them using retrieved context.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Code Compliance AI API
//   description: |
//     A retrieval API for querying and filtering documents based on natural
//     language queries and metadata, with grounded question answering.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	// Initialize vector store backend
	backend, err := vectorstore.New(vectorstore.Options{
		Backend:     cfg.VectorBackend,
		Collection:  cfg.Collection,
		VectorSize:  cfg.VectorSize,
		QdrantURL:   cfg.QdrantURL,
		ChromemPath: cfg.ChromemPath,
	})
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}
	if err := backend.EnsureReady(ctx); err != nil {
		log.Fatalf("Failed to prepare vector store collection: %v", err)
	}
	slog.Info("Vector store ready", "backend", cfg.VectorBackend, "collection", cfg.Collection, "vector_size", cfg.VectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.VectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.VectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	// Compose the document store
	store := datastore.New(chunker.New(), embedder, backend)

	// Create LLM client and answer synthesizer
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	synthesizer := answer.NewSynthesizer(store, llmClient)

	// Create router with dependencies
	deps := &http.Deps{
		Store:       store,
		Synthesizer: synthesizer,
		Extractor:   extract.New(),
		LLMClient:   llmClient,
		Backend:     backend,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
