package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"compliance-ai/internal/answer"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/extract"
	"compliance-ai/internal/handlers"
	"compliance-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store       datastore.DataStore
	Synthesizer answer.Synthesizer
	Extractor   *extract.Extractor
	LLMClient   answer.LLM
	Backend     vectorstore.VectorStore
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Method(http.MethodPost, "/upsert-file", handlers.NewUpsertFileHandler(deps.Store, deps.Extractor))
	r.Method(http.MethodPost, "/upsert", handlers.NewUpsertHandler(deps.Store))
	r.Method(http.MethodPost, "/query", handlers.NewQueryHandler(deps.Store))
	r.Method(http.MethodPost, "/answer", handlers.NewAnswerHandler(deps.Synthesizer))
	r.Method(http.MethodDelete, "/delete", handlers.NewDeleteHandler(deps.Store))
	r.Method(http.MethodPost, "/llm-test", handlers.NewLLMTestHandler(deps.LLMClient))
	r.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler(deps.Backend))

	return r
}
