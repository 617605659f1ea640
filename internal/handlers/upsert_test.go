package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpsertHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		store      *spyStore
		wantStatus int
		wantError  string
		wantIDs    []string
	}{
		{
			name:       "successful upsert",
			body:       `{"documents":[{"id":"doc1","text":"Some text."}]}`,
			store:      &spyStore{upsertIDs: []string{"doc1"}},
			wantStatus: http.StatusOK,
			wantIDs:    []string{"doc1"},
		},
		{
			name:       "invalid json",
			body:       `{"documents":`,
			store:      &spyStore{},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "store failure is opaque",
			body:       `{"documents":[{"text":"Some text."}]}`,
			store:      &spyStore{upsertErr: errTest},
			wantStatus: http.StatusInternalServerError,
			wantError:  internalErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUpsertHandler(tt.store)
			req := httptest.NewRequest(http.MethodPost, "/upsert", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantError != "" {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("invalid error JSON: %v", err)
				}
				if resp.Error != tt.wantError {
					t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
				}
				return
			}

			var resp UpsertResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(resp.IDs) != len(tt.wantIDs) || resp.IDs[0] != tt.wantIDs[0] {
				t.Errorf("ids = %v, want %v", resp.IDs, tt.wantIDs)
			}
		})
	}
}

func TestUpsertHandler_EmptyDocuments(t *testing.T) {
	store := &spyStore{}
	handler := NewUpsertHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/upsert", strings.NewReader(`{"documents":[]}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"ids":[]}` {
		t.Errorf("body = %s, want empty ids array", body)
	}
}
