package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/getsentry/sentry-go"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/config"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/provider/kugou"
	"lyricfetch/internal/shutdown"
	"lyricfetch/internal/web"
)

func main() {
	var (
		port       int
		configPath string
		verbose    bool
	)

	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "verbose", false, "Show detailed output")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Port = port
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger with file logging
	l := logger.New(cfg.Verbose)
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err == nil {
		logPath := filepath.Join(logDir, fmt.Sprintf("lyricfetch-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			l.Warn("Sentry disabled: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	sh := shutdown.New(context.Background())
	stop := sh.Listen()
	defer stop()

	store, err := cache.Open(sh.Context(), cfg, l)
	if err != nil {
		l.Error("Cache error: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Warn("Cache close error: %v", err)
		}
	}()

	source := kugou.New(cfg.UpstreamTimeout(), store, l)
	l.Debug("Lyrics source: %s", source.Name())
	client := lyrics.NewClient(cfg.Endpoint, cfg.RequestTimeout())

	sessions := web.NewSessionManager(cfg.SessionIdle())
	sessions.StartCleanup(sh.Context())
	// Hijacked websocket connections are not tracked by http.Server.Shutdown.
	sh.AddCleanup(sessions.CloseAll)

	server := web.NewServer(sh.Context(), sessions, source, client, cfg, l)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	sh.Go(func(context.Context) {
		l.Info("Starting web server on port %d (lyrics endpoint %s)", cfg.Port, cfg.Endpoint)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server error: %v", err)
			sh.Shutdown()
		}
	})

	<-sh.Context().Done()

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}
	sh.Wait()

	l.Info("Server stopped")
}
