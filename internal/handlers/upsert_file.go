package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"compliance-ai/internal/contextutil"
	"compliance-ai/internal/datastore"
	"compliance-ai/internal/extract"
	"compliance-ai/internal/models"
)

// maxUploadBytes bounds how much of a multipart upload is held in memory.
const maxUploadBytes = 32 << 20

// UpsertFileHandler handles HTTP requests for single-file ingestion.
type UpsertFileHandler struct {
	store     datastore.DataStore
	extractor *extract.Extractor
}

// NewUpsertFileHandler creates a new UpsertFileHandler.
func NewUpsertFileHandler(store datastore.DataStore, extractor *extract.Extractor) *UpsertFileHandler {
	return &UpsertFileHandler{store: store, extractor: extractor}
}

// ServeHTTP accepts a multipart upload with a "file" part and an optional
// "metadata" part holding a JSON-encoded document metadata object. The file
// is converted to plain text, chunked, embedded, and stored. Malformed
// metadata never fails the upload; it falls back to a file-source default.
//
// swagger:route POST /upsert-file upsertFile
//
// # Upsert a file
//
// Uploads a single PDF, TXT, DOCX, PPTX, or MD file and stores its text and
// metadata in the vector database. Returns the generated id of the document.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Id of the ingested document
//	  schema:
//	    "$ref": "#/definitions/UpsertResponse"
//	'400':
//	  description: Missing file or unsupported file type
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *UpsertFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file part", "error", err)
		writeError(w, http.StatusBadRequest, "A file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	metadata := parseUploadMetadata(ctx, r.FormValue("metadata"), logger)

	text, err := h.extractor.Text(ctx, header.Filename, file)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			logger.WarnContext(ctx, "unsupported file type", "filename", header.Filename)
			writeError(w, http.StatusBadRequest, "Unsupported file type")
			return
		}
		logger.ErrorContext(ctx, "file extraction failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	ids, err := h.store.Upsert(ctx, []models.Document{{Text: text, Metadata: metadata}})
	if err != nil {
		logger.ErrorContext(ctx, "upsert failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, UpsertResponse{IDs: ids})
}

// parseUploadMetadata decodes the metadata form value. Absent or malformed
// metadata falls back to a file-source default so an upload never fails on
// its metadata.
func parseUploadMetadata(ctx context.Context, raw string, logger *slog.Logger) models.DocumentMetadata {
	fallback := models.DocumentMetadata{Source: models.SourceFile}
	if raw == "" {
		return fallback
	}

	var metadata models.DocumentMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		logger.WarnContext(ctx, "malformed upload metadata, using default", "error", err)
		return fallback
	}
	if metadata.Source == "" {
		metadata.Source = models.SourceFile
	}
	return metadata
}
