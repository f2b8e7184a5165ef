package kugou

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/logger"
)

const lrc = "[00:00.00]作词：John Lennon\n[00:01.00]Imagine there's no heaven\n[00:05.00]It's easy if you try"

type fakeKugou struct {
	mu       sync.Mutex
	songs    []song
	byHash   map[string][]candidate
	byKey    []candidate
	content  string
	requests []string
}

func (f *fakeKugou) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/search/song", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		q := r.URL.Query()
		if q.Get("version") != "9108" || q.Get("pagesize") != "8" {
			t.Errorf("song search params: %s", r.URL.RawQuery)
		}
		var resp songSearchResponse
		resp.Data.Info = f.songs
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		q := r.URL.Query()
		if q.Get("client") != "pc" || q.Get("man") != "yes" {
			t.Errorf("lyric search params: %s", r.URL.RawQuery)
		}
		var resp lyricSearchResponse
		if h := q.Get("hash"); h != "" {
			resp.Candidates = f.byHash[h]
		} else {
			resp.Candidates = f.byKey
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		f.record(t, r)
		q := r.URL.Query()
		if q.Get("fmt") != "lrc" || q.Get("charset") != "utf8" || q.Get("accesskey") == "" {
			t.Errorf("download params: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(downloadResponse{
			Content: base64.StdEncoding.EncodeToString([]byte(f.content)),
			Format:  "lrc",
		})
	})
	return mux
}

func (f *fakeKugou) record(t *testing.T, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0") {
		t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
}

func (f *fakeKugou) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, path+"?") {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, f *fakeKugou, c cache.Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	client := New(5*time.Second, c, logger.NewWithWriter(false, io.Discard, io.Discard))
	client.songURL = srv.URL
	client.lyricsURL = srv.URL
	return client
}

func TestLookupByDurationMatch(t *testing.T) {
	f := &fakeKugou{
		songs: []song{
			{Hash: "far", Duration: 240},
			{Hash: "near", Duration: 186},
		},
		byHash: map[string][]candidate{
			"far":  {{ID: "1", AccessKey: "wrong"}},
			"near": {{ID: "2", AccessKey: "right"}},
		},
		content: lrc,
	}
	c := newTestClient(t, f, nil)

	got, err := c.Lookup(context.Background(), "Imagine (Remastered)", "John Lennon", 183)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if got != "[00:01.00]Imagine there's no heaven\n[00:05.00]It's easy if you try" {
		t.Errorf("lyrics = %q", got)
	}

	for _, r := range f.requests {
		if strings.Contains(r, "hash=far") {
			t.Error("song outside the duration tolerance was searched")
		}
		if strings.HasPrefix(r, "/download?") && !strings.Contains(r, "accesskey=right") {
			t.Errorf("downloaded wrong candidate: %s", r)
		}
		if strings.HasPrefix(r, "/api/v3/search/song?") && !strings.Contains(r, "keyword=Imagine+-+John+Lennon") {
			t.Errorf("keyword not normalized: %s", r)
		}
	}
}

func TestLookupUnknownDurationTakesFirstWithCandidates(t *testing.T) {
	f := &fakeKugou{
		songs: []song{{Hash: "a", Duration: 10}, {Hash: "b", Duration: 500}},
		byHash: map[string][]candidate{
			"b": {{ID: "7", AccessKey: "k"}},
		},
		content: lrc,
	}
	c := newTestClient(t, f, nil)

	if _, err := c.Lookup(context.Background(), "Imagine", "", UnknownDuration); err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if n := f.count("/search"); n != 2 {
		t.Errorf("lyric searches = %d, want 2", n)
	}
}

func TestLookupFallsBackToKeyword(t *testing.T) {
	f := &fakeKugou{
		songs:   []song{{Hash: "x", Duration: 100}},
		byKey:   []candidate{{ID: "9", AccessKey: "kw"}},
		content: lrc,
	}
	c := newTestClient(t, f, nil)

	if _, err := c.Lookup(context.Background(), "Imagine", "John Lennon", 183); err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}

	var fallback string
	for _, r := range f.requests {
		if strings.HasPrefix(r, "/search?") && strings.Contains(r, "keyword=") {
			fallback = r
		}
	}
	if !strings.Contains(fallback, "duration=183000") {
		t.Errorf("fallback search = %q, want duration in milliseconds", fallback)
	}
}

func TestLookupNotFound(t *testing.T) {
	f := &fakeKugou{}
	c := newTestClient(t, f, nil)

	_, err := c.Lookup(context.Background(), "Nothing", "", UnknownDuration)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if f.count("/download") != 0 {
		t.Error("download attempted without a candidate")
	}
}

func TestLookupEmptyContent(t *testing.T) {
	f := &fakeKugou{
		byKey:   []candidate{{ID: "1", AccessKey: "k"}},
		content: "[ti:only tags]",
	}
	c := newTestClient(t, f, nil)

	if _, err := c.Lookup(context.Background(), "Imagine", "", UnknownDuration); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLookupUsesCache(t *testing.T) {
	log := logger.NewWithWriter(false, io.Discard, io.Discard)
	store, err := cache.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := &fakeKugou{
		songs:   []song{{Hash: "h", Duration: 183}},
		byHash:  map[string][]candidate{"h": {{ID: "1", AccessKey: "k"}}},
		content: lrc,
	}
	c := newTestClient(t, f, store)

	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(context.Background(), "Imagine", "John Lennon", 183); err != nil {
			t.Fatalf("Lookup() #%d error: %v", i, err)
		}
	}
	if n := len(f.requests); n != 3 {
		t.Errorf("upstream requests = %d, want 3 (second lookup served from cache)", n)
	}
}

func TestFlexStringID(t *testing.T) {
	var got []candidate
	if err := json.Unmarshal([]byte(`[{"id":"123"},{"id":456},{"id":null}]`), &got); err != nil {
		t.Fatal(err)
	}
	want := []flexString{"123", "456", ""}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("candidate %d id = %q, want %q", i, c.ID, want[i])
		}
	}
}
