// Package pipeline fetches lyrics for every audio file in a directory and
// embeds them into the files' tags.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lyricfetch/internal/logger"
	"lyricfetch/internal/metadata"
	"lyricfetch/internal/query"
	"lyricfetch/internal/request"
)

// ErrNoFiles is returned when the directory holds no audio files.
var ErrNoFiles = errors.New("no audio files found")

type Hooks struct {
	OnFilesFound func(total int)
	OnProgress   func(ok bool)
}

type Options struct {
	Parallel  int
	Overwrite bool // replace lyrics already present in a file
}

type Stats struct {
	Total    int
	Embedded int
	Skipped  int
	Failed   int
}

type outcome int

const (
	embedded outcome = iota
	skipped
	failed
)

// EmbedDir looks up lyrics for each audio file under dir through f and writes
// them into the file. A file whose lookup fails is counted and left untouched.
func EmbedDir(ctx context.Context, dir string, f request.Fetcher, opts Options, log *logger.Logger, hooks Hooks) (Stats, error) {
	files, err := metadata.FindAudioFiles(dir)
	if err != nil {
		return Stats{}, err
	}
	if len(files) == 0 {
		return Stats{}, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	if hooks.OnFilesFound != nil {
		hooks.OnFilesFound(len(files))
	}

	parallel := max(opts.Parallel, 1)
	log.Info("=== Fetching lyrics (%d files, %d parallel) ===", len(files), parallel)

	stats := Stats{Total: len(files)}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, parallel)
	)

	cancelled := func() (Stats, error) {
		log.Warn("Cancelled, waiting for active lookups to finish...")
		wg.Wait()
		return stats, fmt.Errorf("lyrics fetch cancelled: %w", ctx.Err())
	}

	for i, path := range files {
		// A slot is taken before the goroutine starts, so a cancel stops
		// new lookups from being queued.
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			return cancelled()
		}
		if ctx.Err() != nil {
			<-semaphore
			return cancelled()
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			log.Debug("Processing [%d/%d]: %s", idx+1, len(files), path)
			res := embedOne(ctx, path, f, opts.Overwrite, log)

			mu.Lock()
			switch res {
			case embedded:
				stats.Embedded++
			case skipped:
				stats.Skipped++
			case failed:
				stats.Failed++
			}
			mu.Unlock()

			if hooks.OnProgress != nil {
				hooks.OnProgress(res != failed)
			}
		}(i, path)
	}

	wg.Wait()

	if ctx.Err() != nil {
		return stats, fmt.Errorf("lyrics fetch cancelled: %w", ctx.Err())
	}
	if stats.Failed > 0 && stats.Failed == stats.Total {
		return stats, fmt.Errorf("no lyrics found for any of the %d files", stats.Total)
	}
	log.Info("Lyrics completed: %d embedded, %d skipped, %d failed", stats.Embedded, stats.Skipped, stats.Failed)
	return stats, nil
}

func embedOne(ctx context.Context, path string, f request.Fetcher, overwrite bool, log *logger.Logger) outcome {
	track, err := metadata.ReadTrack(path)
	if err != nil {
		log.Warn("%v", err)
		return failed
	}
	if track.HasLyrics && !overwrite {
		log.Debug("Skipping %s: lyrics already present", path)
		return skipped
	}

	q, err := query.Build(track.Title, track.Artist, track.DurationField())
	if err != nil {
		log.Warn("Skipping %s: %v", path, err)
		return failed
	}

	// Each file gets its own controller so lookups never supersede each other.
	st, _ := request.NewController(f, log).Submit(ctx, q)
	if st.Phase != request.Succeeded {
		log.Debug("No lyrics for %s: %s", path, st.Message)
		return failed
	}

	if err := metadata.WriteLyrics(path, st.Lyrics); err != nil {
		log.Warn("%v", err)
		return failed
	}
	log.Debug("Embedded lyrics into %s", path)
	return embedded
}
