package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"lyricfetch/internal/provider/kugou"
	"lyricfetch/internal/query"
)

type apiResponse struct {
	Code    int    `json:"code"`
	Lyrics  string `json:"lyrics,omitempty"`
	Message string `json:"message,omitempty"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	Phase     string `json:"phase"`
	CreatedAt string `json:"created_at"`
	LastSeen  string `json:"last_seen"`
}

// handleLyrics answers GET /api/lyrics?title=&artist=&duration=.
func (s *Server) handleLyrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Code: http.StatusMethodNotAllowed, Message: "Method not allowed"})
		return
	}

	params := r.URL.Query()
	q := query.SearchQuery{
		Title:    strings.TrimSpace(params.Get("title")),
		Artist:   strings.TrimSpace(params.Get("artist")),
		Duration: strings.TrimSpace(params.Get("duration")),
	}
	title, artist := q.Title, q.Artist
	duration := kugou.UnknownDuration
	if d, ok := q.Seconds(); ok {
		duration = d
	}

	if title == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Code: http.StatusBadRequest, Message: "Missing title"})
		return
	}

	lyrics, err := s.source.Lookup(r.Context(), title, artist, duration)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, apiResponse{Code: http.StatusOK, Lyrics: lyrics})
	case errors.Is(err, kugou.ErrNotFound):
		s.logger.Debug("No lyrics for %q by %q", title, artist)
		writeJSON(w, http.StatusNotFound, apiResponse{Code: http.StatusNotFound, Message: "Lyrics not found"})
	default:
		s.logger.Error("Lookup failed for %q: %v", title, err)
		sentry.CaptureException(err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Code: http.StatusInternalServerError, Message: "Processing error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := s.sessions.ListSessions()
	responses := make([]SessionResponse, len(sessions))
	for i, sess := range sessions {
		responses[i] = sessionResponse(sess)
	}
	writeJSON(w, http.StatusOK, responses)
}

// handleGetSession answers GET /api/sessions/{id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := s.sessions.GetSession(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiResponse{Code: http.StatusNotFound, Message: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func sessionResponse(sess *Session) SessionResponse {
	return SessionResponse{
		ID:        sess.ID,
		Phase:     sess.Phase().String(),
		CreatedAt: sess.CreatedAt.Format("2006-01-02 15:04:05"),
		LastSeen:  sess.LastSeen().Format("2006-01-02 15:04:05"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
