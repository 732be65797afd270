package api

import (
	"context"
	"net/http"
	"os"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

// CheckResult is the state of one readiness dependency.
type CheckResult struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

const readyTimeout = 2 * time.Second

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	name := s.opts.Name
	if name == "" {
		name = "treasureland"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   name,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// readyHandler reports 503 until storage answers. MQTT is optional: a
// disconnected broker shows as unavailable without failing readiness.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Ready: true, Checks: make(map[string]CheckResult)}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.game.Ping(ctx); err != nil {
		resp.Ready = false
		resp.NotReadyMsg = "storage not reachable"
		resp.Checks["storage"] = CheckResult{Status: "not_ready", Error: err.Error()}
	} else {
		resp.Checks["storage"] = CheckResult{Status: "ok"}
	}

	if s.opts.MQTTConnected != nil {
		if s.opts.MQTTConnected() {
			resp.Checks["mqtt"] = CheckResult{Status: "ok", Optional: true}
		} else {
			resp.Checks["mqtt"] = CheckResult{Status: "unavailable", Optional: true}
		}
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
