package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lyricfetch/internal/clipboard"
	"lyricfetch/internal/config"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/metadata"
	"lyricfetch/internal/pipeline"
	"lyricfetch/internal/progress"
	"lyricfetch/internal/query"
	"lyricfetch/internal/render"
	"lyricfetch/internal/request"
	"lyricfetch/internal/shutdown"
	"lyricfetch/internal/tui"
)

func main() {
	cfg, opts, configPath, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Configuration error: %v\n", err)
		os.Exit(1)
	}

	sh := shutdown.New(context.Background())
	defer sh.Listen()()

	log := logger.New(cfg.Verbose)
	defer log.Close()

	if cfg.Verbose && configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	client := lyrics.NewClient(cfg.Endpoint, cfg.RequestTimeout())
	log.Debug("Lyrics endpoint: %s", client.BaseURL())

	if opts.embedDir != "" {
		if err := runEmbedDir(sh.Context(), client, cfg, opts, log); err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	if opts.print {
		os.Exit(runOnce(sh.Context(), client, opts, log))
	}

	setupFileLog(log)
	log.SetInteractive(true)
	defer log.SetInteractive(false)

	err = tui.Run(sh.Context(), tui.Options{
		Title:       opts.title,
		Artist:      opts.artist,
		Duration:    opts.duration,
		Fetcher:     client,
		Writer:      clipboard.SystemWriter{},
		RevertDelay: cfg.CopyRevertDelay(),
		Logger:      log,
	})
	if err != nil {
		log.SetInteractive(false)
		log.Error("%v", err)
		os.Exit(1)
	}
}

func setupFileLog(log *logger.Logger) {
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("lyricfetch_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	log.Debug("Logging to file: %s", logFile)
}

func runEmbedDir(ctx context.Context, f request.Fetcher, cfg config.Config, opts options, log *logger.Logger) error {
	var bar *progress.Bar
	hooks := pipeline.Hooks{
		OnFilesFound: func(total int) {
			if !cfg.Verbose {
				bar = progress.New(os.Stdout, "Lyrics", total)
				log.SetInteractive(true)
			}
		},
		OnProgress: func(ok bool) {
			if bar != nil {
				bar.Increment(ok)
			}
		},
	}

	if !cfg.Verbose {
		setupFileLog(log)
	}
	stats, err := pipeline.EmbedDir(ctx, opts.embedDir, f, pipeline.Options{
		Parallel:  cfg.ParallelJobs,
		Overwrite: opts.overwrite,
	}, log, hooks)

	if bar != nil {
		bar.Finish()
		log.SetInteractive(false)
	}
	if err != nil {
		return err
	}

	log.Info("=== %d of %d files now have lyrics (%d already had them) ===",
		stats.Embedded+stats.Skipped, stats.Total, stats.Skipped)
	return nil
}

// Exit codes of the one-shot mode.
const (
	exitOK = iota
	exitFailed
	exitUsage
)

// runOnce performs a single submit and prints the rendered result.
func runOnce(ctx context.Context, f request.Fetcher, opts options, log *logger.Logger) int {
	c := request.NewController(f, log.Component("request"))

	q, err := query.Build(opts.title, opts.artist, opts.duration)
	if err == nil {
		log.Debug("GET %s", query.BuildPreview(opts.title, opts.artist, opts.duration))
		_, err = c.Submit(ctx, q)
	}
	if request.IsValidation(err) {
		fmt.Fprintln(os.Stderr, query.ValidationNotice)
		return exitUsage
	}

	v := render.Render(c.State())
	switch v.Pane {
	case render.PaneLyrics:
		fmt.Println(v.Text)
	case render.PaneError:
		fmt.Fprintln(os.Stderr, v.Text)
		return exitFailed
	}

	if opts.embed {
		if err := metadata.WriteLyrics(opts.file, v.Text); err != nil {
			log.Error("%v", err)
			return exitFailed
		}
		log.Info("Lyrics written to %s", opts.file)
	}
	return exitOK
}
