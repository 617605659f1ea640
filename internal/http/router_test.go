package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"compliance-ai/internal/extract"
	"compliance-ai/internal/llm"
	"compliance-ai/internal/models"
	"compliance-ai/internal/vectorstore/mocks"
)

type stubStore struct{}

func (stubStore) Upsert(ctx context.Context, docs []models.Document) ([]string, error) {
	return []string{"id"}, nil
}

func (stubStore) Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error) {
	return []models.QueryResult{}, nil
}

func (stubStore) Delete(ctx context.Context, ids []string, filter *models.MetadataFilter, deleteAll bool) (bool, error) {
	return true, nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Answer(ctx context.Context, queries []models.Query, prompt string) (*models.Answer, error) {
	return &models.Answer{Result: "ok"}, nil
}

type stubLLM struct{}

func (stubLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return "ok", nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	backend := mocks.NewMockVectorStore(ctrl)
	backend.EXPECT().Healthy(gomock.Any()).Return(nil).AnyTimes()

	return NewRouter(&Deps{
		Store:       stubStore{},
		Synthesizer: stubSynthesizer{},
		Extractor:   extract.New(),
		LLMClient:   stubLLM{},
		Backend:     backend,
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "upsert",
			method:     http.MethodPost,
			path:       "/upsert",
			body:       `{"documents":[{"text":"t."}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "query",
			method:     http.MethodPost,
			path:       "/query",
			body:       `{"queries":[{"query":"q"}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "answer",
			method:     http.MethodPost,
			path:       "/answer",
			body:       `{"queries":[{"query":"q"}],"prompt":"p"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "delete",
			method:     http.MethodDelete,
			path:       "/delete",
			body:       `{"delete_all":true}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "llm test",
			method:     http.MethodPost,
			path:       "/llm-test",
			body:       `{"prompt":"ping"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong method on query",
			method:     http.MethodGet,
			path:       "/query",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/unknown",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Errorf("Access-Control-Allow-Methods = %q, want DELETE included", got)
	}
}
