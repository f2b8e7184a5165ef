package clipboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"lyricfetch/internal/logger"
)

// ErrUnsupported is returned when no system clipboard is available.
var ErrUnsupported = errors.New("no clipboard utility available")

// Writer performs the platform clipboard write.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, text string) error

func (f WriterFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// SystemWriter writes to the OS clipboard.
type SystemWriter struct{}

func (SystemWriter) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// CopyError wraps a rejected clipboard write.
type CopyError struct {
	Err error
}

func (e *CopyError) Error() string {
	return "clipboard write failed: " + e.Err.Error()
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Notice is the user-facing text for the error.
func (e *CopyError) Notice() string {
	return FailureNotice
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manager executes copies and their timed reverts.
type Manager struct {
	mu      sync.Mutex
	writer  Writer
	clock   Clock
	delay   time.Duration
	state   State
	resets  uint64
	pending Timer
	observe func(State)
	logger  *logger.Logger
}

func NewManager(w Writer, delay time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		writer: w,
		clock:  realClock{},
		delay:  delay,
		logger: log,
	}
}

// OnChange registers fn to receive every state change. fn runs with the
// manager lock held and must not call back into the Manager.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe = fn
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Copy writes text and switches the control to its copied look, scheduling
// the revert. A failed write returns a *CopyError and changes nothing.
func (m *Manager) Copy(ctx context.Context, text string) error {
	m.mu.Lock()
	epoch := m.resets
	m.mu.Unlock()

	if err := m.writer.WriteText(ctx, text); err != nil {
		m.logger.Warn("clipboard write failed: %v", err)
		return &CopyError{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A Reset while the write was outstanding means the lyrics it copied are
	// no longer on screen; leave the control alone.
	if m.resets != epoch {
		m.logger.Debug("copy finished after reset, look unchanged")
		return nil
	}

	m.stopPending()
	next := m.state.Copied()
	m.set(next)

	gen := next.Generation
	m.pending = m.clock.AfterFunc(m.delay, func() { m.revert(gen) })
	m.logger.Debug("copied %d bytes, revert %d in %v", len(text), gen, m.delay)
	return nil
}

// Reset restores the default look and cancels any pending revert.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.stopPending()
	m.set(m.state.Reset())
}

func (m *Manager) revert(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := m.state.Revert(gen)
	if !ok {
		return
	}
	m.pending = nil
	m.set(next)
}

func (m *Manager) stopPending() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Manager) set(s State) {
	m.state = s
	if m.observe != nil {
		m.observe(s)
	}
}
