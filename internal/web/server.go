package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/getsentry/sentry-go"

	"lyricfetch/internal/config"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/request"
)

//go:embed static
var staticFiles embed.FS

// LyricsSource resolves lyrics for the /api/lyrics endpoint.
type LyricsSource interface {
	Lookup(ctx context.Context, title, artist string, duration int) (string, error)
}

type Server struct {
	ctx      context.Context
	sessions *SessionManager
	source   LyricsSource
	fetcher  request.Fetcher
	config   config.Config
	logger   *logger.Logger
}

// NewServer wires the HTTP surface. source answers /api/lyrics; fetcher is
// what browser sessions submit their queries through.
func NewServer(ctx context.Context, sessions *SessionManager, source LyricsSource, fetcher request.Fetcher, cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		ctx:      ctx,
		sessions: sessions,
		source:   source,
		fetcher:  fetcher,
		config:   cfg,
		logger:   log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Static files
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(static)))

	// API endpoints
	mux.HandleFunc("/api/lyrics", s.handleLyrics)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/sessions", s.handleListSessions)
	mux.HandleFunc("/api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(s.recoverMiddleware(mux))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into a 500 and reports it.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("Server error on %s: %v", r.URL.Path, rec)

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			hub.Recover(rec)

			writeJSON(w, http.StatusInternalServerError, apiResponse{
				Code:    http.StatusInternalServerError,
				Message: "Internal Server Error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
