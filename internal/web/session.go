package web

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lyricfetch/internal/clipboard"
	"lyricfetch/internal/config"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/query"
	"lyricfetch/internal/render"
	"lyricfetch/internal/request"
)

const (
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
	clipboardTimeout = 10 * time.Second
	maxMessageSize   = 64 << 10
)

var errClipboardTimeout = errors.New("browser did not answer the clipboard request")

// Session is one browser page bound to its own request controller and
// clipboard manager.
type Session struct {
	ID        string
	CreatedAt time.Time

	lastSeen atomic.Int64

	conn       *websocket.Conn
	controller *request.Controller
	clip       *clipboard.Manager
	logger     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards the last published states and the form fields. It is taken
	// after the controller or clipboard lock, never before.
	mu       sync.Mutex
	req      request.State
	clipSt   clipboard.State
	title    string
	artist   string
	duration string

	writeMu sync.Mutex

	clipMu      sync.Mutex
	nextClipID  uint64
	clipWaiters map[uint64]chan error
}

func newSession(ctx context.Context, conn *websocket.Conn, fetcher request.Fetcher, cfg config.Config, log *logger.Logger) *Session {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	log = log.Component("session").With("session", id[:8])

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		conn:        conn,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		clipWaiters: make(map[uint64]chan error),
	}
	s.touch()

	s.controller = request.NewController(fetcher, log)
	s.clip = clipboard.NewManager(clipboard.WriterFunc(s.writeClipboard), cfg.CopyRevertDelay(), log)
	s.controller.OnChange(s.onRequest)
	s.clip.OnChange(s.onClipboard)
	return s
}

// LastSeen is when the browser last sent a message.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Phase is the current request phase.
func (s *Session) Phase() request.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req.Phase
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// Close cancels outstanding work and drops the connection.
func (s *Session) Close() {
	s.cancel()
	s.clip.Reset()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Session) onRequest(st request.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = st
	s.publishLocked()
}

func (s *Session) onClipboard(st clipboard.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipSt = st
	s.publishLocked()
}

// View is what the page should currently show.
func (s *Session) View() render.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() render.View {
	return render.Render(s.req).
		WithClipboard(s.clipSt).
		WithPreview(query.BuildPreview(s.title, s.artist, s.duration))
}

// publishLocked sends the view while mu is held so views leave in the order
// the states were recorded.
func (s *Session) publishLocked() {
	v := s.viewLocked()
	if err := s.send(outbound{Type: "view", View: &v}); err != nil {
		s.logger.Debug("view not delivered: %v", err)
	}
}

func (s *Session) send(m outbound) error {
	if s.conn == nil {
		return errors.New("session has no connection")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(m)
}

func (s *Session) notice(msg string) {
	if err := s.send(outbound{Type: "notice", Message: msg}); err != nil {
		s.logger.Debug("notice not delivered: %v", err)
	}
}

func (s *Session) setFields(m inbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title, s.artist, s.duration = m.Title, m.Artist, m.Duration
}

func (s *Session) handleEdit(m inbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title, s.artist, s.duration = m.Title, m.Artist, m.Duration
	s.publishLocked()
}

func (s *Session) handleSubmit(m inbound) {
	s.setFields(m)

	q, err := query.Build(m.Title, m.Artist, m.Duration)
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			s.notice(verr.Notice())
		}
		return
	}

	s.clip.Reset()

	// The token is taken here, in arrival order; only the call runs apart.
	token, err := s.controller.Begin(q)
	if err != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.controller.Run(s.ctx, token, q)
	}()
}

func (s *Session) handleCopy() {
	st := s.controller.State()
	if st.Phase != request.Succeeded {
		s.logger.Debug("copy ignored in phase %s", st.Phase)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var cerr *clipboard.CopyError
		if err := s.clip.Copy(s.ctx, st.Lyrics); errors.As(err, &cerr) {
			s.notice(cerr.Notice())
		}
	}()
}

// writeClipboard asks the page to write text and waits for its answer.
func (s *Session) writeClipboard(ctx context.Context, text string) error {
	s.clipMu.Lock()
	s.nextClipID++
	id := s.nextClipID
	ch := make(chan error, 1)
	s.clipWaiters[id] = ch
	s.clipMu.Unlock()

	defer func() {
		s.clipMu.Lock()
		delete(s.clipWaiters, id)
		s.clipMu.Unlock()
	}()

	if err := s.send(outbound{Type: "clipboard", ID: id, Text: text}); err != nil {
		return err
	}

	timer := time.NewTimer(clipboardTimeout)
	defer timer.Stop()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errClipboardTimeout
	}
}

func (s *Session) handleClipboardResult(m inbound) {
	s.clipMu.Lock()
	ch, ok := s.clipWaiters[m.ID]
	s.clipMu.Unlock()
	if !ok {
		s.logger.Debug("clipboard result %d has no waiter", m.ID)
		return
	}

	var err error
	if !m.OK {
		msg := m.Error
		if msg == "" {
			msg = "write rejected"
		}
		err = fmt.Errorf("browser clipboard: %s", msg)
	}
	select {
	case ch <- err:
	default:
		s.logger.Debug("duplicate clipboard result %d", m.ID)
	}
}

// SessionManager tracks live browser sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	idle     time.Duration
}

// NewSessionManager creates a manager that closes sessions silent for idle.
func NewSessionManager(idle time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		idle:     idle,
	}
}

// StartCleanup starts a background goroutine that closes idle sessions.
// Stops when ctx is cancelled.
func (sm *SessionManager) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.cleanup()
			}
		}
	}()
}

func (sm *SessionManager) cleanup() {
	sm.mu.Lock()
	var stale []*Session
	cutoff := time.Now().Add(-sm.idle)
	for id, sess := range sm.sessions {
		if sess.LastSeen().Before(cutoff) {
			stale = append(stale, sess)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, sess := range stale {
		sess.logger.Info("Closing idle session")
		sess.Close()
	}
}

// Add registers a session.
func (sm *SessionManager) Add(sess *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[sess.ID] = sess
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sess, ok := sm.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, nil
}

// Remove unregisters and closes a session.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// ListSessions returns all sessions, oldest first.
func (sm *SessionManager) ListSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CloseAll closes every session.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
