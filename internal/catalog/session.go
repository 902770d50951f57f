package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is one cancellable fetch+reconcile+prefetch sequence.
// Continuations must check Current immediately before mutating view state.
type Session struct {
	id     string
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	coord  *Coordinator
}

// ID returns a short identifier for logs
func (s *Session) ID() string { return s.id }

// Context is cancelled when the session is superseded or stopped
func (s *Session) Context() context.Context { return s.ctx }

// Current reports whether the session is still the live one for its view
func (s *Session) Current() bool { return s.coord.IsCurrent(s) }

// Coordinator owns the single live session of a view.
type Coordinator struct {
	mu      sync.Mutex
	gen     uint64
	current *Session
}

// Begin cancels the live session, if any, and starts a new one derived from parent.
func (c *Coordinator) Begin(parent context.Context) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:     uuid.NewString()[:8],
		gen:    c.gen,
		ctx:    ctx,
		cancel: cancel,
		coord:  c,
	}
	c.current = s
	return s
}

// IsCurrent reports whether s is the live session
func (c *Coordinator) IsCurrent(s *Session) bool {
	if s == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.gen == s.gen
}

// Stop cancels the live session without starting another.
// Returns false when nothing was live.
func (c *Coordinator) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return false
	}
	c.current.cancel()
	c.current = nil
	return true
}

// Finish releases the context of a completed session. The session stays
// current until the next Begin or Stop.
func (c *Coordinator) Finish(s *Session) {
	if s != nil {
		s.cancel()
	}
}
