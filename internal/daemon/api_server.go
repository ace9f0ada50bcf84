package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"reelbot/internal/api"
	"reelbot/internal/logging"
)

type apiServer struct {
	logger    *slog.Logger
	queue     QueueReader
	sessionID string
	startedAt time.Time
}

func (s *apiServer) routes(mux *http.ServeMux, token string) {
	mux.HandleFunc("/api/queue", s.requireToken(token, s.handleQueue))
	mux.HandleFunc("/healthz", s.handleHealth)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewQueueListResponse(s.queue.List()))
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := api.HealthResponse{
		Status:    "ok",
		SessionID: s.sessionID,
		Queued:    s.queue.Len(),
	}
	if !s.startedAt.IsZero() {
		payload.StartedAt = s.startedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
