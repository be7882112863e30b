package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skillcoder/asyncrt/internal/infra/pinger"
)

type engineStatus struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CloseHooks int    `json:"closeHooks"`
	Closing    bool   `json:"closing"`
}

type statusResponse struct {
	State     string                       `json:"state"`
	Uptime    string                       `json:"uptime"`
	StartTime time.Time                    `json:"startTime"`
	UptimeSec float64                      `json:"uptimeSeconds"`
	Engine    engineStatus                 `json:"engine"`
	Pingers   map[string]pinger.Statistics `json:"pingers,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uptime := s.appState.GetUptime()

	response := statusResponse{
		State:     string(s.appState.GetState()),
		Uptime:    uptime.String(),
		StartTime: s.appState.GetStartTime(),
		UptimeSec: uptime.Seconds(),
		Engine: engineStatus{
			ID:         s.engine.ID().String(),
			Name:       s.engine.Name(),
			CloseHooks: s.engine.HookCount(),
			Closing:    s.engine.IsClosing(),
		},
		Pingers: s.appState.GetAllStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode status response",
			"reason", err,
		)
	}
}
