package web

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"lyricfetch/internal/clipboard"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/query"
	"lyricfetch/internal/render"
)

func dial(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one, returning everything seen.
func readUntil(t *testing.T, conn *websocket.Conn, match func(outbound) bool) (outbound, []outbound) {
	t.Helper()
	var seen []outbound
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m outbound
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v (seen %d messages)", err, len(seen))
		}
		seen = append(seen, m)
		if match(m) {
			return m, seen
		}
	}
}

func isView(pred func(render.View) bool) func(outbound) bool {
	return func(m outbound) bool {
		return m.Type == "view" && m.View != nil && pred(*m.View)
	}
}

func isType(typ string) func(outbound) bool {
	return func(m outbound) bool { return m.Type == typ }
}

func TestSessionInitialViewAndPreview(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(nil), okFetcher("Hello"))
	conn := dial(t, ts.URL)

	first, _ := readUntil(t, conn, isType("view"))
	if first.View.SubmitLabel != render.SubmitLabel || first.View.ResultVisible {
		t.Errorf("initial view = %+v", first.View)
	}
	if first.View.Preview != "/api/lyrics?title={title}" {
		t.Errorf("initial preview = %q", first.View.Preview)
	}

	conn.WriteJSON(inbound{Type: "edit", Title: "Imagine", Artist: "John Lennon", Duration: "183"})
	want := "/api/lyrics?title=Imagine&artist=John%20Lennon&duration=183"
	readUntil(t, conn, isView(func(v render.View) bool { return v.Preview == want }))
}

func TestSessionSubmitEmptyTitle(t *testing.T) {
	var calls atomic.Int32
	ts, _ := newTestServer(t, sourceFunc(nil), func(ctx context.Context, q query.SearchQuery) (lyrics.Response, error) {
		calls.Add(1)
		return lyrics.Response{StatusCode: http.StatusOK}, nil
	})
	conn := dial(t, ts.URL)
	readUntil(t, conn, isType("view"))

	conn.WriteJSON(inbound{Type: "submit", Title: "   ", Artist: "John Lennon"})
	m, seen := readUntil(t, conn, isType("notice"))
	if m.Message != query.ValidationNotice {
		t.Errorf("notice = %q", m.Message)
	}
	for _, s := range seen {
		if s.Type == "view" && s.View.Busy {
			t.Error("went busy on an empty title")
		}
	}
	if calls.Load() != 0 {
		t.Errorf("%d fetches for an empty title", calls.Load())
	}
}

func TestSessionSubmitSuccessAndCopy(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(nil), okFetcher("Hello"))
	conn := dial(t, ts.URL)
	readUntil(t, conn, isType("view"))

	conn.WriteJSON(inbound{Type: "submit", Title: "Imagine"})
	done, seen := readUntil(t, conn, isView(func(v render.View) bool { return v.Pane == render.PaneLyrics }))

	sawBusy := false
	for _, s := range seen {
		if s.Type == "view" && s.View.Busy && s.View.SubmitLabel == render.SearchingLabel && s.View.SubmitDisabled {
			sawBusy = true
		}
	}
	if !sawBusy {
		t.Error("no busy view before the result")
	}
	if done.View.Text != "Hello" || !done.View.CopyVisible || done.View.Busy {
		t.Errorf("result view = %+v", done.View)
	}
	if done.View.Copy != clipboard.DefaultAffordance {
		t.Errorf("copy control = %+v, want default look", done.View.Copy)
	}

	// Successful browser write
	conn.WriteJSON(inbound{Type: "copy"})
	req, _ := readUntil(t, conn, isType("clipboard"))
	if req.Text != "Hello" {
		t.Errorf("clipboard text = %q", req.Text)
	}
	conn.WriteJSON(inbound{Type: "clipboard_result", ID: req.ID, OK: true})
	readUntil(t, conn, isView(func(v render.View) bool { return v.Copy == clipboard.CopiedAffordance }))

	// Rejected browser write
	conn.WriteJSON(inbound{Type: "copy"})
	req, _ = readUntil(t, conn, isType("clipboard"))
	conn.WriteJSON(inbound{Type: "clipboard_result", ID: req.ID, OK: false, Error: "NotAllowedError"})
	notice, _ := readUntil(t, conn, isType("notice"))
	if notice.Message != clipboard.FailureNotice {
		t.Errorf("notice = %q", notice.Message)
	}
}

func TestSessionSubmitServerError(t *testing.T) {
	ts, _ := newTestServer(t, sourceFunc(nil), func(ctx context.Context, q query.SearchQuery) (lyrics.Response, error) {
		return lyrics.Response{StatusCode: http.StatusNotFound, Message: "Not found"}, nil
	})
	conn := dial(t, ts.URL)
	readUntil(t, conn, isType("view"))

	conn.WriteJSON(inbound{Type: "submit", Title: "Imagine"})
	m, _ := readUntil(t, conn, isView(func(v render.View) bool { return v.Pane == render.PaneError }))
	if m.View.Text != "Not found" || m.View.CopyVisible {
		t.Errorf("error view = %+v", m.View)
	}

	// Copy is ignored without lyrics.
	conn.WriteJSON(inbound{Type: "copy"})
	conn.WriteJSON(inbound{Type: "edit", Title: "marker"})
	next, _ := readUntil(t, conn, func(m outbound) bool { return m.Type != "" })
	if next.Type == "clipboard" {
		t.Error("clipboard write requested with no lyrics shown")
	}
}

func TestSessionRegistered(t *testing.T) {
	ts, sm := newTestServer(t, sourceFunc(nil), okFetcher("Hello"))
	conn := dial(t, ts.URL)
	readUntil(t, conn, isType("view"))

	if sm.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", sm.Count())
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for sm.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
