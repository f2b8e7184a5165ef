package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"lyricfetch/internal/render"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for simplicity
	},
}

// inbound is a browser to server message.
type inbound struct {
	Type     string `json:"type"` // edit, submit, copy, clipboard_result
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration string `json:"duration"`
	ID       uint64 `json:"id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
}

// outbound is a server to browser message.
type outbound struct {
	Type    string       `json:"type"` // view, notice, clipboard
	View    *render.View `json:"view,omitempty"`
	Message string       `json:"message,omitempty"`
	ID      uint64       `json:"id,omitempty"`
	Text    string       `json:"text,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	sess := newSession(s.ctx, conn, s.fetcher, s.config, s.logger)
	s.sessions.Add(sess)
	defer s.sessions.Remove(sess.ID)

	sess.logger.Info("Session opened from %s", r.RemoteAddr)
	sess.run()
	sess.logger.Info("Session closed")
}

// run sends the initial view and serves messages until the connection drops.
func (s *Session) run() {
	defer func() {
		s.cancel()
		s.wg.Wait()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})
	go s.keepAlive()

	v := s.View()
	if err := s.send(outbound{Type: "view", View: &v}); err != nil {
		s.logger.Error("Failed to write WebSocket message: %v", err)
		return
	}

	for {
		var m inbound
		if err := s.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed: %v", err)
			}
			return
		}
		s.touch()

		switch m.Type {
		case "edit":
			s.handleEdit(m)
		case "submit":
			s.handleSubmit(m)
		case "copy":
			s.handleCopy()
		case "clipboard_result":
			s.handleClipboardResult(m)
		default:
			s.logger.Debug("unknown message type %q", m.Type)
		}
	}
}

// keepAlive pings the browser until the session ends.
func (s *Session) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
