// Package kugou looks up synced lyrics in the Kugou catalogue.
package kugou

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/metadata"
)

// UnknownDuration marks a lookup without a track length.
const UnknownDuration = -1

const (
	pageSize = 8
	// DurationTolerance is how far, in seconds, a catalogue song's length may
	// differ from the requested one.
	DurationTolerance = 8

	searchTTL   = time.Hour
	downloadTTL = 24 * time.Hour
)

// ErrNotFound is returned when no lyrics match.
var ErrNotFound = errors.New("lyrics not found")

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// Client queries the song search and lyric services.
type Client struct {
	httpClient *http.Client
	songURL    string
	lyricsURL  string
	cache      cache.Cache
	logger     *logger.Logger
}

// New creates a client. A nil cache disables caching.
func New(timeout time.Duration, c cache.Cache, log *logger.Logger) *Client {
	if c == nil {
		c = cache.Nop{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		songURL:    "https://mobileservice.kugou.com",
		lyricsURL:  "https://lyrics.kugou.com",
		cache:      c,
		logger:     log.Component("kugou"),
	}
}

func (c *Client) Name() string { return "kugou" }

// Lookup finds lyrics for a song. duration is in seconds, or UnknownDuration.
//
// Songs from the catalogue search whose length is within DurationTolerance are
// tried in order until one has a lyric candidate; failing that, lyrics are
// searched by keyword directly.
func (c *Client) Lookup(ctx context.Context, title, artist string, duration int) (string, error) {
	keyword := metadata.Keyword(title, artist)
	c.logger.Debug("lookup %q (duration %d)", keyword, duration)

	cand, ok := c.matchBySong(ctx, keyword, duration)
	if !ok {
		durMillis := 0
		if duration > 0 {
			durMillis = duration * 1000
		}
		res, err := c.searchLyrics(ctx, keyword, "", durMillis)
		if err != nil {
			c.logger.Warn("lyric search for %q failed: %v", keyword, err)
		} else if len(res.Candidates) > 0 {
			cand, ok = res.Candidates[0], true
		}
	}
	if !ok {
		return "", ErrNotFound
	}

	dl, err := c.download(ctx, cand)
	if err != nil {
		return "", fmt.Errorf("kugou download %s: %w", cand.ID, err)
	}
	lyrics := DecodeContent(dl.Content)
	if lyrics == "" {
		return "", ErrNotFound
	}
	return lyrics, nil
}

func (c *Client) matchBySong(ctx context.Context, keyword string, duration int) (candidate, bool) {
	songs, err := c.searchSongs(ctx, keyword)
	if err != nil {
		c.logger.Warn("song search for %q failed: %v", keyword, err)
		return candidate{}, false
	}

	for _, s := range songs.Data.Info {
		if duration != UnknownDuration && abs(s.Duration-duration) > DurationTolerance {
			continue
		}
		res, err := c.searchLyrics(ctx, "", s.Hash, 0)
		if err != nil {
			c.logger.Debug("lyric search for hash %s failed: %v", s.Hash, err)
			continue
		}
		if len(res.Candidates) > 0 {
			return res.Candidates[0], true
		}
	}
	return candidate{}, false
}

func (c *Client) searchSongs(ctx context.Context, keyword string) (songSearchResponse, error) {
	return cache.Remember(ctx, c.cache, cache.Key("search_songs", keyword), searchTTL, func() (songSearchResponse, error) {
		params := url.Values{
			"version":  {"9108"},
			"plat":     {"0"},
			"pagesize": {strconv.Itoa(pageSize)},
			"keyword":  {keyword},
		}
		var out songSearchResponse
		err := c.getJSON(ctx, c.songURL+"/api/v3/search/song", params, &out)
		return out, err
	})
}

func (c *Client) searchLyrics(ctx context.Context, keyword, hash string, durMillis int) (lyricSearchResponse, error) {
	key := cache.Key("search_lyrics", keyword, hash, strconv.Itoa(durMillis))
	return cache.Remember(ctx, c.cache, key, searchTTL, func() (lyricSearchResponse, error) {
		params := url.Values{
			"ver":    {"1"},
			"man":    {"yes"},
			"client": {"pc"},
		}
		if keyword != "" {
			params.Set("keyword", keyword)
		}
		if durMillis > 0 {
			params.Set("duration", strconv.Itoa(durMillis))
		}
		if hash != "" {
			params.Set("hash", hash)
		}
		var out lyricSearchResponse
		err := c.getJSON(ctx, c.lyricsURL+"/search", params, &out)
		return out, err
	})
}

func (c *Client) download(ctx context.Context, cand candidate) (downloadResponse, error) {
	key := cache.Key("download_lyrics", string(cand.ID), cand.AccessKey)
	return cache.Remember(ctx, c.cache, key, downloadTTL, func() (downloadResponse, error) {
		params := url.Values{
			"fmt":       {"lrc"},
			"charset":   {"utf8"},
			"client":    {"pc"},
			"ver":       {"1"},
			"id":        {string(cand.ID)},
			"accesskey": {cand.AccessKey},
		}
		var out downloadResponse
		err := c.getJSON(ctx, c.lyricsURL+"/download", params, &out)
		return out, err
	})
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Kugou API response types

type songSearchResponse struct {
	Data struct {
		Info []song `json:"info"`
	} `json:"data"`
}

type song struct {
	Hash     string `json:"hash"`
	SongName string `json:"songname"`
	Singer   string `json:"singername"`
	Duration int    `json:"duration"`
}

type lyricSearchResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	ID        flexString `json:"id"`
	AccessKey string     `json:"accesskey"`
	Song      string     `json:"song"`
	Singer    string     `json:"singer"`
}

type downloadResponse struct {
	Content string `json:"content"`
	Format  string `json:"fmt"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		s = ""
	}
	*f = flexString(s)
	return nil
}
