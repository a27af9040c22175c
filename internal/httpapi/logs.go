package httpapi

import (
	"net/http"
	"strconv"

	"privacy-llm-gateway/internal/apierr"
	"privacy-llm-gateway/internal/model"
)

// handleQueryLogs implements GET /api/v1/logs: filtered, paginated audit
// trail reads (§4.9).
func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		s.writeError(w, apierr.Internal("log store not configured", nil))
		return
	}

	q := r.URL.Query()
	query := model.LogQuery{}
	if v := q.Get("start_date"); v != "" {
		query.StartDate = &v
	}
	if v := q.Get("end_date"); v != "" {
		query.EndDate = &v
	}
	if v := q.Get("search_term"); v != "" {
		query.SearchTerm = &v
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			query.Limit = &n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			query.Offset = &n
		}
	}

	resp, err := s.logs.QueryLogs(r.Context(), query)
	if err != nil {
		s.writeError(w, apierr.Internal("query logs", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
