package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/model"
	"privacy-llm-gateway/internal/vectorstore"
)

// handleAddDocument implements POST /api/v1/documents: a direct-text
// ingestion path for callers that already hold content in memory, as
// opposed to the file-based upload+index flow under /rag. The document is
// embedded and upserted as a single point with no file on disk behind it.
// Its chunk id prefix "doc" matches no walked file's hash, so the next
// reconciliation pass's stale-point cleanup deletes it.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	if !s.ragEnabled() {
		s.writeError(w, apierr.ServiceUnavailable("RAG is not enabled"))
		return
	}

	var req model.DocumentUpload
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := uuid.New().String()
	if req.ID != nil && *req.ID != "" {
		id = *req.ID
	}

	vec, err := s.embeddings.Embed(r.Context(), req.Content)
	if err != nil {
		s.writeError(w, apierr.Internal("embed document", err))
		return
	}

	point := vectorstore.Point{
		ID:         "doc_" + id + "_0",
		Vector:     vec,
		Text:       req.Content,
		SourceFile: req.Title,
		ChunkIndex: 0,
	}
	if err := s.store.Upsert(r.Context(), []vectorstore.Point{point}); err != nil {
		s.writeError(w, apierr.Internal("upsert document", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "id": id})
}
