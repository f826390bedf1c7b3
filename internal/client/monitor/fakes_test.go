package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"rotafacil/internal/client/ports"
)

// fakeClock only moves when Advance is called. Due AfterFunc callbacks run
// synchronously inside Advance.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 12, 17, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1), period: d, next: c.now.Add(d)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []func()
	for _, t := range c.timers {
		if t.fire(now) {
			due = append(due, t.f)
		}
	}
	for _, t := range c.tickers {
		t.tick(now)
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (c *fakeClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTimer struct {
	mu   sync.Mutex
	at   time.Time
	f    func()
	done bool
}

func (t *fakeTimer) fire(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || now.Before(t.at) {
		return false
	}
	t.done = true
	return true
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasPending := !t.done
	t.done = true
	return wasPending
}

type fakeTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	period  time.Duration
	next    time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || now.Before(t.next) {
		return
	}
	for !now.Before(t.next) {
		t.next = t.next.Add(t.period)
	}
	select {
	case t.ch <- now:
	default:
	}
}

var errNetwork = errors.New("network unreachable")

type evalResponse struct {
	result Result
	err    error
}

// mockEvaluator replays queued responses; once drained it answers allowed
// without restriction.
type mockEvaluator struct {
	mu          sync.Mutex
	responses   []evalResponse
	credentials []string
	called      chan struct{}
	block       chan struct{}
}

func newMockEvaluator(responses ...evalResponse) *mockEvaluator {
	return &mockEvaluator{responses: responses, called: make(chan struct{}, 64)}
}

func (e *mockEvaluator) CheckAccess(ctx context.Context, credential string) (ports.AccessResult, error) {
	e.mu.Lock()
	e.credentials = append(e.credentials, credential)
	var resp evalResponse
	if len(e.responses) > 0 {
		resp = e.responses[0]
		e.responses = e.responses[1:]
	} else {
		resp = evalResponse{result: Result{Allowed: true}}
	}
	block := e.block
	e.mu.Unlock()

	e.called <- struct{}{}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ports.AccessResult{}, ctx.Err()
		}
	}
	return resp.result, resp.err
}

func (e *mockEvaluator) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.credentials)
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *mockNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *mockNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

type mockLogout struct {
	mu    sync.Mutex
	count int
	err   error
}

func (l *mockLogout) Logout(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	return l.err
}

func (l *mockLogout) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func allowed(minutes int) evalResponse {
	return evalResponse{result: Result{Allowed: true, MinutesUntilEnd: &minutes}}
}

func unrestricted() evalResponse {
	return evalResponse{result: Result{Allowed: true}}
}

func denied(message string) evalResponse {
	return evalResponse{result: Result{Allowed: false, Message: message}}
}

func failure() evalResponse {
	return evalResponse{err: errNetwork}
}
