package httpapi

import (
	"net/http"
	"time"
)

// handleHealth implements GET /api/health: gateway liveness plus the
// upstream chat provider's own liveliness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type services struct {
		LiteLLM string `json:"litellm"`
	}
	type response struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Services  services  `json:"services"`
	}

	litellmStatus := "unknown"
	if s.upstream != nil {
		if s.upstream.HealthCheck(r.Context()) {
			litellmStatus = "ok"
		} else {
			litellmStatus = "unreachable"
		}
	}

	writeJSON(w, http.StatusOK, response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Services:  services{LiteLLM: litellmStatus},
	})
}
