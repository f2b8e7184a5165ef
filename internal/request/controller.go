package request

import (
	"context"
	"sync"

	"lyricfetch/internal/logger"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/query"
)

// Fetcher performs the single lyrics call for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q query.SearchQuery) (lyrics.Response, error)
}

// Controller runs submissions against a Fetcher and owns the resulting State.
// Overlapping submissions are allowed; only the most recent one may settle
// the state.
type Controller struct {
	mu      sync.Mutex
	state   State
	fetcher Fetcher
	logger  *logger.Logger
	observe func(State)
}

func NewController(f Fetcher, log *logger.Logger) *Controller {
	return &Controller{
		fetcher: f,
		logger:  log,
	}
}

// OnChange registers fn to receive every state transition. fn runs with the
// controller lock held and must not call back into the Controller.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = fn
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates q, marks the controller busy, performs the call and
// settles the state. A missing title returns a *query.ValidationError without
// touching the network or the state. The returned State is the snapshot after
// settling, which is a newer InFlight state if another submit overtook this one.
func (c *Controller) Submit(ctx context.Context, q query.SearchQuery) (State, error) {
	token, err := c.Begin(q)
	if err != nil {
		return c.State(), err
	}
	return c.Run(ctx, token, q), nil
}

// Begin validates q and moves to InFlight under a fresh token, which it
// returns. Tokens follow the order of Begin calls, so callers that run the
// fetch elsewhere must call Begin where submits arrive.
func (c *Controller) Begin(q query.SearchQuery) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.state.Begin(q)
	if err != nil {
		c.logger.Debug("submit rejected: %v", err)
		return 0, err
	}
	c.set(next)
	c.logger.Debug("request %d: %s", next.Token, q.Path())
	return next.Token, nil
}

// Run performs the call for the request Begin issued as token and settles
// the state with its outcome. Busy is released on every path, including a
// panicking fetcher.
func (c *Controller) Run(ctx context.Context, token uint64, q query.SearchQuery) (st State) {
	result := TransportFailure()
	defer func() {
		st = c.settle(token, result)
	}()

	resp, err := c.fetcher.Fetch(ctx, q)
	if err != nil {
		c.logger.Warn("request %d failed: %v", token, err)
	}
	result = Classify(resp, err)
	return st
}

func (c *Controller) settle(token uint64, r Result) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, applied := c.state.Resolve(token, r)
	if !applied {
		c.logger.Debug("request %d: stale response dropped (latest is %d)", token, c.state.Token)
		return c.state
	}
	c.logger.Debug("request %d settled: %s", token, r.Kind)
	c.set(next)
	return next
}

// set must be called with mu held.
func (c *Controller) set(s State) {
	c.state = s
	if c.observe != nil {
		c.observe(s)
	}
}
