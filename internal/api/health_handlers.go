package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/learncert/internal/logger"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 when the local store is unreachable. The remote mirror is
// informational only.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ready", "database": "ok", "mirror": "disabled"}
	status := http.StatusOK

	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			log.Warn("readiness check failed - database: %v", err)
			body["status"], body["database"] = "unavailable", "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if s.Mirror != nil {
		body["mirror"] = "ok"
		if err := s.Mirror.Ping(ctx); err != nil {
			log.Warn("readiness check - mirror unreachable: %v", err)
			body["mirror"] = "unavailable"
		}
	}

	writeJSON(w, r, status, body)
}
