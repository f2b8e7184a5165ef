package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lyricfetch/internal/config"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/provider/kugou"
	"lyricfetch/internal/query"
)

type sourceFunc func(ctx context.Context, title, artist string, duration int) (string, error)

func (f sourceFunc) Lookup(ctx context.Context, title, artist string, duration int) (string, error) {
	return f(ctx, title, artist, duration)
}

func newTestServer(t *testing.T, source LyricsSource, fetcher fetchFunc) (*httptest.Server, *SessionManager) {
	t.Helper()
	sm := NewSessionManager(time.Hour)
	s := NewServer(context.Background(), sm, source, fetcher, config.DefaultConfig(), quietLogger())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(sm.CloseAll)
	return ts, sm
}

func getJSON(t *testing.T, url string) (int, apiResponse) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestHandleLyrics(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		lyrics      string
		err         error
		wantStatus  int
		wantLyrics  string
		wantMessage string
	}{
		{
			name:       "found",
			path:       "/api/lyrics?title=Imagine&artist=John%20Lennon&duration=183",
			lyrics:     "Imagine there's no heaven",
			wantStatus: http.StatusOK,
			wantLyrics: "Imagine there's no heaven",
		},
		{
			name:        "missing title",
			path:        "/api/lyrics?artist=John%20Lennon",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing title",
		},
		{
			name:        "blank title",
			path:        "/api/lyrics?title=%20%20",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing title",
		},
		{
			name:        "not found",
			path:        "/api/lyrics?title=Nothing",
			err:         kugou.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Lyrics not found",
		},
		{
			name:        "upstream failure",
			path:        "/api/lyrics?title=Imagine",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Processing error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, sourceFunc(func(ctx context.Context, title, artist string, duration int) (string, error) {
				return tt.lyrics, tt.err
			}), okFetcher(""))

			status, body := getJSON(t, ts.URL+tt.path)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Code != tt.wantStatus {
				t.Errorf("code = %d, want %d", body.Code, tt.wantStatus)
			}
			if body.Lyrics != tt.wantLyrics {
				t.Errorf("lyrics = %q, want %q", body.Lyrics, tt.wantLyrics)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestHandleLyricsParsesParams(t *testing.T) {
	tests := []struct {
		query        string
		wantTitle    string
		wantArtist   string
		wantDuration int
	}{
		{"title=%20Imagine%20&artist=%20John%20Lennon&duration=183", "Imagine", "John Lennon", 183},
		{"title=Imagine", "Imagine", "", kugou.UnknownDuration},
		{"title=Imagine&duration=abc", "Imagine", "", kugou.UnknownDuration},
		{"title=Imagine&duration=%20240%20", "Imagine", "", 240},
		{"title=Imagine&duration=-5", "Imagine", "", kugou.UnknownDuration},
	}

	for _, tt := range tests {
		var gotTitle, gotArtist string
		var gotDuration int
		ts, _ := newTestServer(t, sourceFunc(func(ctx context.Context, title, artist string, duration int) (string, error) {
			gotTitle, gotArtist, gotDuration = title, artist, duration
			return "x", nil
		}), okFetcher(""))

		getJSON(t, ts.URL+"/api/lyrics?"+tt.query)
		if gotTitle != tt.wantTitle || gotArtist != tt.wantArtist || gotDuration != tt.wantDuration {
			t.Errorf("%s: lookup(%q, %q, %d), want (%q, %q, %d)", tt.query,
				gotTitle, gotArtist, gotDuration, tt.wantTitle, tt.wantArtist, tt.wantDuration)
		}
	}
}

func TestHandleLyricsMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(func(ctx context.Context, title, artist string, duration int) (string, error) {
		t.Error("lookup on POST")
		return "", nil
	}), okFetcher(""))

	resp, err := http.Post(ts.URL+"/api/lyrics?title=Imagine", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestPanicBecomesInternalServerError(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(func(ctx context.Context, title, artist string, duration int) (string, error) {
		panic("boom")
	}), okFetcher(""))

	status, body := getJSON(t, ts.URL+"/api/lyrics?title=Imagine")
	if status != http.StatusInternalServerError || body.Message != "Internal Server Error" {
		t.Errorf("got %d %+v", status, body)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(nil), okFetcher(""))

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Sessions != 0 {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
}

func TestStaticPage(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(nil), okFetcher(""))

	for _, path := range []string{"/", "/app.js"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", path, resp.StatusCode)
		}
		if path == "/" && !strings.Contains(string(body), `id="search-btn"`) {
			t.Error("index page missing the submit control")
		}
		if path == "/app.js" {
			// Enter is ignored while busy; the copy click starts the write itself.
			for _, want := range []string{`e.key === "Enter" && !$("search-btn").disabled`, "pendingCopy = { text, write }"} {
				if !strings.Contains(string(body), want) {
					t.Errorf("app.js missing %s", want)
				}
			}
		}
	}
}

// The endpoint client and the bundled endpoint agree on the wire format.
func TestClientAgainstServer(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(func(ctx context.Context, title, artist string, duration int) (string, error) {
		if title == "Imagine" {
			return "Imagine there's no heaven", nil
		}
		return "", kugou.ErrNotFound
	}), okFetcher(""))

	client := lyrics.NewClient(ts.URL, 5*time.Second)

	resp, err := client.Fetch(context.Background(), query.SearchQuery{Title: "Imagine", Artist: "John Lennon"})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !resp.OK() || resp.Lyrics != "Imagine there's no heaven" {
		t.Errorf("found: %+v", resp)
	}

	resp, err = client.Fetch(context.Background(), query.SearchQuery{Title: "Nothing"})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || resp.Message != "Lyrics not found" {
		t.Errorf("not found: %+v", resp)
	}
}

func TestGetSession(t *testing.T) {
	ts, sm := newTestServer(t, sourceFunc(nil), okFetcher(""))
	sess := newDetachedSession(sm)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	var body SessionResponse
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || body.ID != sess.ID || body.Phase != "idle" {
		t.Errorf("got %d %+v", resp.StatusCode, body)
	}

	status, missing := getJSON(t, ts.URL+"/api/sessions/nope")
	if status != http.StatusNotFound || missing.Message != "Session not found" {
		t.Errorf("unknown session = %d %+v", status, missing)
	}
}
