package runner

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rotafacil/internal/client/ports"
)

// Mock implementations for testing

type mockWebSocketClient struct {
	mu         sync.Mutex
	urls       []string
	connected  bool
	messages   chan []byte
	closed     chan struct{}
	connectErr error
	readErr    error
}

func newMockWebSocketClient() *mockWebSocketClient {
	return &mockWebSocketClient{messages: make(chan []byte, 8), closed: make(chan struct{}, 8)}
}

func (m *mockWebSocketClient) Connect(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.urls = append(m.urls, url)
	m.connected = true
	return nil
}

func (m *mockWebSocketClient) ReadMessage() ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	select {
	case msg := <-m.messages:
		return msg, nil
	case <-m.closed:
		return nil, errors.New("closed")
	}
}

// Close unblocks a pending read once per connection
func (m *mockWebSocketClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	m.connected = false
	select {
	case m.closed <- struct{}{}:
	default:
	}
	return nil
}

func (m *mockWebSocketClient) connects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

type mockRechecker struct {
	count     atomic.Int32
	refreshes atomic.Int32
}

func (m *mockRechecker) Recheck() { m.count.Add(1) }
func (m *mockRechecker) Refresh() { m.refreshes.Add(1) }

func staticSession(s *ports.Session) SessionSource {
	return func() (*ports.Session, error) { return s, nil }
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestPushURL(t *testing.T) {
	tests := []struct {
		server  string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/v1/ws?token=abc", false},
		{"https://acesso.example.com/", "wss://acesso.example.com/api/v1/ws?token=abc", false},
		{"https://example.com/rota", "wss://example.com/rota/api/v1/ws?token=abc", false},
		{"ftp://example.com", "", true},
	}
	for _, tt := range tests {
		got, err := PushURL(tt.server, "abc")
		if (err != nil) != tt.wantErr {
			t.Errorf("PushURL(%q) error = %v, wantErr %v", tt.server, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("PushURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestRunner_RechecksOnAccessChanged(t *testing.T) {
	ws := newMockWebSocketClient()
	rc := &mockRechecker{}
	r := NewRunner(ws, staticSession(&ports.Session{Credential: "tok", UserID: "u"}), rc, "http://localhost:8080")

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		r.Start(stop)
		close(done)
	}()

	// connecting asks for a debounced check only
	waitFor(t, func() bool { return rc.refreshes.Load() == 1 })
	if got := ws.connects(); len(got) != 1 || got[0] != "ws://localhost:8080/api/v1/ws?token=tok" {
		t.Fatalf("unexpected connects %v", got)
	}

	ws.messages <- []byte(`{"type":"something_else"}`)
	ws.messages <- []byte(`not json`)
	ws.messages <- []byte(`{"type":"access_changed"}`)
	waitFor(t, func() bool { return rc.count.Load() == 1 })
	if got := rc.refreshes.Load(); got != 1 {
		t.Fatalf("expected 1 refresh, got %d", got)
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_WaitsForSession(t *testing.T) {
	ws := newMockWebSocketClient()
	rc := &mockRechecker{}
	var session atomic.Pointer[ports.Session]
	r := NewRunner(ws, func() (*ports.Session, error) { return session.Load(), nil }, rc, "http://localhost:8080")
	r.backoffBase = time.Millisecond
	r.backoffMax = 5 * time.Millisecond

	stop := make(chan struct{})
	defer close(stop)
	go r.Start(stop)

	time.Sleep(20 * time.Millisecond)
	if len(ws.connects()) != 0 {
		t.Fatal("connected without a session")
	}

	session.Store(&ports.Session{Credential: "late"})
	waitFor(t, func() bool { return len(ws.connects()) == 1 })
}

func TestRunner_ReconnectsWithBackoff(t *testing.T) {
	ws := newMockWebSocketClient()
	ws.connectErr = errors.New("refused")
	rc := &mockRechecker{}
	r := NewRunner(ws, staticSession(&ports.Session{Credential: "tok"}), rc, "http://localhost:8080")
	r.backoffBase = time.Millisecond
	r.backoffMax = 2 * time.Millisecond

	stop := make(chan struct{})
	defer close(stop)
	go r.Start(stop)

	time.Sleep(10 * time.Millisecond)
	ws.mu.Lock()
	ws.connectErr = nil
	ws.mu.Unlock()

	waitFor(t, func() bool { return len(ws.connects()) == 1 })
	waitFor(t, func() bool { return rc.refreshes.Load() == 1 })

	// a dropped connection is re-established
	r.Reconnect()
	waitFor(t, func() bool { return len(ws.connects()) == 2 })
}

func TestRunner_FlappingConnectionBacksOff(t *testing.T) {
	ws := newMockWebSocketClient()
	ws.readErr = errors.New("connection reset")
	rc := &mockRechecker{}
	r := NewRunner(ws, staticSession(&ports.Session{Credential: "tok"}), rc, "http://localhost:8080")
	r.backoffBase = 10 * time.Millisecond
	r.backoffMax = 80 * time.Millisecond
	r.stableAfter = time.Hour

	stop := make(chan struct{})
	go r.Start(stop)
	time.Sleep(300 * time.Millisecond)
	close(stop)

	// waits of 10, 20, 40, 80, 80 ms allow about six connects; a reset
	// backoff would allow about thirty
	if got := len(ws.connects()); got > 8 {
		t.Fatalf("expected backoff to grow across dropped connections, got %d connects", got)
	}
	if got := rc.count.Load(); got != 0 {
		t.Fatalf("expected no forced rechecks, got %d", got)
	}
}

func TestRunner_MessageResetsBackoff(t *testing.T) {
	ws := newMockWebSocketClient()
	rc := &mockRechecker{}
	r := NewRunner(ws, staticSession(&ports.Session{Credential: "tok"}), rc, "http://localhost:8080")
	r.backoffBase = 300 * time.Millisecond
	r.backoffMax = time.Hour
	r.stableAfter = time.Hour

	stop := make(chan struct{})
	defer close(stop)
	go r.Start(stop)

	// without a reset the fourth wait would be 2.4s, past the waitFor deadline
	for i := 1; i <= 4; i++ {
		waitFor(t, func() bool { return len(ws.connects()) == i })
		ws.messages <- []byte(`{"type":"access_changed"}`)
		waitFor(t, func() bool { return rc.count.Load() == int32(i) })
		r.Reconnect()
	}
	waitFor(t, func() bool { return len(ws.connects()) == 5 })
}
