package monitor

import (
	"context"
	"sync"
	"time"

	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog/log"
)

const logoutTimeout = 10 * time.Second

// Controller owns at most one Monitor and swaps it as the session changes
type Controller struct {
	evaluator ports.AccessEvaluatorPort
	notifier  ports.NotifierPort
	logout    ports.LogoutPort
	opts      Options

	mu         sync.Mutex
	current    *Monitor
	credential string
	loggedOut  chan struct{}
}

// NewController creates a controller with no active session
func NewController(evaluator ports.AccessEvaluatorPort, notifier ports.NotifierPort, logout ports.LogoutPort, opts Options) *Controller {
	return &Controller{
		evaluator: evaluator,
		notifier:  notifier,
		logout:    logout,
		opts:      opts,
		loggedOut: make(chan struct{}, 1),
	}
}

// SessionChanged reacts to the current session. nil stops monitoring; a new
// credential replaces the running monitor with a fresh one.
func (c *Controller) SessionChanged(ctx context.Context, session *ports.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session == nil {
		c.stopLocked()
		return
	}
	if c.current != nil && c.credential == session.Credential {
		return
	}
	c.stopLocked()

	var m *Monitor
	m = New(session, c.evaluator, c.notifier, func() { go c.forceLogout(m) }, c.opts)
	c.current = m
	c.credential = session.Credential
	m.Start(ctx)
}

func (c *Controller) stopLocked() {
	if c.current == nil {
		return
	}
	c.current.Stop()
	c.current = nil
	c.credential = ""
}

func (c *Controller) forceLogout(m *Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()

	if err := c.logout.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("forced logout failed")
	}

	c.mu.Lock()
	if c.current == m {
		c.current = nil
		c.credential = ""
	}
	c.mu.Unlock()
	m.Stop()

	select {
	case c.loggedOut <- struct{}{}:
	default:
	}
}

// Recheck asks the active monitor for an immediate check
func (c *Controller) Recheck() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Recheck()
	}
}

// Refresh asks the active monitor for a debounced check
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Refresh()
	}
}

// Active reports whether a session is being monitored
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Stop ends monitoring of the current session, if any
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// LoggedOut receives a value each time a denial forced the session out
func (c *Controller) LoggedOut() <-chan struct{} {
	return c.loggedOut
}
