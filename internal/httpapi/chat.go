package httpapi

import (
	"net/http"

	"privacy-llm-gateway/internal/model"
)

// handleChatCompletion implements POST /api/v1/chat/completions: the full
// RAG → mask → upstream → unmask → sanitize pipeline (§4.8).
func (s *Server) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := s.pipeline.ChatCompletion(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListModels implements GET /api/v1/models.
func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.models)
}
