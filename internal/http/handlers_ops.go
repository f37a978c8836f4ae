package http

import (
	"context"
	"net/http"
	"time"

	applog "eixo/internal/log"
)

type healthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, healthResponse{Status: "ok", UptimeSeconds: int64(time.Since(s.started).Seconds())})
}

// handleReady reports 503 until storage answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ready",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Checks:        map[string]string{"storage": "ok"},
	}
	if s.storage == nil {
		resp.Checks["storage"] = "not configured"
		OK(w, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.storage.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeDatabase)
		resp.Status = "not ready"
		resp.Checks["storage"] = err.Error()
		NewJSONResponse().Status(http.StatusServiceUnavailable).Body(resp).Write(w)
		return
	}
	OK(w, resp)
}
