// Package shutdown ties process signals to a context and runs registered
// cleanups once, newest first.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type Handler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cleanups []func()
	once     sync.Once
	wg       sync.WaitGroup
}

func New(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	return &Handler{ctx: ctx, cancel: cancel}
}

// Context is cancelled when shutdown starts.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers fn to run on shutdown. Cleanups run in reverse order
// of registration. A cleanup added after shutdown started runs immediately.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		fn()
		return
	}
	h.cleanups = append(h.cleanups, fn)
	h.mu.Unlock()
}

// Listen triggers Shutdown on SIGINT or SIGTERM. The returned stop function
// detaches the signal handler.
func (h *Handler) Listen() (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigChan:
			h.Shutdown()
		case <-done:
		}
	}()

	var o sync.Once
	return func() {
		o.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}

// Shutdown cancels the context and runs the cleanups. Only the first call
// has any effect.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.mu.Lock()
		h.cancel()
		fns := h.cleanups
		h.cleanups = nil
		h.mu.Unlock()

		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}

// Go runs fn in a goroutine tracked by Wait.
func (h *Handler) Go(fn func(ctx context.Context)) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn(h.ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (h *Handler) Wait() {
	h.wg.Wait()
}
