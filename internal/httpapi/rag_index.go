package httpapi

import (
	"fmt"
	"net/http"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/model"
)

// handleTriggerIndex implements POST /api/v1/rag/index: starts a detached
// reconciliation pass, 409s if one is already running (§4.7 single-flight).
// Unlike /rag/status and /rag/config, this route has no dedicated 503 for a
// disabled RAG stack (§6); a pass started without embeddings/store simply
// fails immediately and surfaces through last_error.
func (s *Server) handleTriggerIndex(w http.ResponseWriter, r *http.Request) {
	if s.indexMgr == nil {
		s.writeError(w, apierr.Internal("file management unavailable", fmt.Errorf("index manager not configured")))
		return
	}

	if s.indexMgr.IsIndexing() {
		s.writeError(w, apierr.Conflict("indexing already in progress"))
		return
	}

	// Runs detached from the request: r.Context() is canceled the moment
	// this handler returns (sooner still under chi's Timeout middleware),
	// which would abort the pass almost as soon as it starts.
	go func() {
		if err := s.indexMgr.RunIndex(s.bgCtx); err != nil {
			s.log.Errorf("rag_index", "manual trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "indexing_started"})
}

// handleIndexStatus implements GET /api/v1/rag/status.
func (s *Server) handleIndexStatus(w http.ResponseWriter, _ *http.Request) {
	if !s.ragEnabled() {
		s.writeError(w, apierr.ServiceUnavailable("RAG is not enabled"))
		return
	}
	writeJSON(w, http.StatusOK, s.indexMgr.GetStatus())
}

// handleUpdateConfig implements PUT /api/v1/rag/config: currently only the
// reconciliation interval is mutable at runtime.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	if !s.ragEnabled() {
		s.writeError(w, apierr.ServiceUnavailable("RAG is not enabled"))
		return
	}

	var req model.IndexConfigUpdate
	if err := decodeJSON(r, &req); err != nil || req.AutoIndexIntervalMinutes == 0 {
		s.writeError(w, apierr.BadRequest("invalid config: autoIndexIntervalMinutes must be > 0"))
		return
	}

	s.indexMgr.SetInterval(req.AutoIndexIntervalMinutes)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                   "updated",
		"autoIndexIntervalMinutes": req.AutoIndexIntervalMinutes,
	})
}
