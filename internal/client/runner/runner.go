// Package runner keeps the push channel open and turns server events into
// immediate access checks.
package runner

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog/log"
)

// EventAccessChanged is pushed when the user's access schedule changed
const EventAccessChanged = "access_changed"

// WSMessage is the push channel message shape
type WSMessage struct {
	Type string `json:"type"`
}

// Rechecker runs out of band access checks. Recheck skips the debounce,
// Refresh honours it.
type Rechecker interface {
	Recheck()
	Refresh()
}

// SessionSource returns the current session, nil when signed out
type SessionSource func() (*ports.Session, error)

type Runner struct {
	wsClient    ports.WebSocketClientPort
	sessions    SessionSource
	rechecker   Rechecker
	serverURL   string
	backoffBase time.Duration
	backoffMax  time.Duration
	// a connection that delivered nothing counts as healthy only after this long
	stableAfter time.Duration
}

func NewRunner(wsClient ports.WebSocketClientPort, sessions SessionSource, rechecker Rechecker, serverURL string) *Runner {
	return &Runner{
		wsClient:    wsClient,
		sessions:    sessions,
		rechecker:   rechecker,
		serverURL:   serverURL,
		backoffBase: time.Second,
		backoffMax:  30 * time.Second,
		stableAfter: 30 * time.Second,
	}
}

// PushURL derives the websocket endpoint for credential from the API base URL
func PushURL(serverURL, credential string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	u.RawQuery = url.Values{"token": {credential}}.Encode()
	return u.String(), nil
}

// Reconnect drops the current connection so the next one uses the current session
func (r *Runner) Reconnect() {
	_ = r.wsClient.Close()
}

// Start runs until stop is closed
func (r *Runner) Start(stop <-chan struct{}) {
	go func() {
		<-stop
		_ = r.wsClient.Close()
	}()

	backoff := r.backoffBase
	wait := func() bool {
		select {
		case <-stop:
			return false
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.backoffMax {
			backoff = r.backoffMax
		}
		return true
	}

	for {
		select {
		case <-stop:
			log.Info().Msg("push runner stopping")
			return
		default:
		}

		session, err := r.sessions()
		if err != nil || session == nil {
			if err != nil {
				log.Warn().Err(err).Msg("reading session for push channel failed")
			}
			if !wait() {
				return
			}
			continue
		}
		wsURL, err := PushURL(r.serverURL, session.Credential)
		if err != nil {
			log.Error().Err(err).Msg("invalid server url")
			if !wait() {
				return
			}
			continue
		}

		if err := r.wsClient.Connect(wsURL); err != nil {
			log.Error().Err(err).Dur("retry", backoff).Msg("websocket connect failed")
			if !wait() {
				return
			}
			continue
		}
		log.Info().Str("user_id", session.UserID).Msg("push channel connected")
		// events may have been missed while disconnected
		r.rechecker.Refresh()

		connectedAt := time.Now()
		if received := r.readLoop(stop); received || time.Since(connectedAt) >= r.stableAfter {
			backoff = r.backoffBase
		}
		if !wait() {
			return
		}
	}
}

// readLoop reads until the connection drops and reports whether any message arrived
func (r *Runner) readLoop(stop <-chan struct{}) bool {
	received := false
	for {
		select {
		case <-stop:
			_ = r.wsClient.Close()
			return received
		default:
		}
		msgBytes, err := r.wsClient.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Msg("websocket read error; reconnecting")
			_ = r.wsClient.Close()
			return received
		}
		received = true
		var payload WSMessage
		if err := json.Unmarshal(msgBytes, &payload); err != nil {
			log.Error().Err(err).Msg("invalid websocket message")
			continue
		}
		if payload.Type == EventAccessChanged {
			log.Info().Msg("access schedule changed; rechecking")
			r.rechecker.Recheck()
		}
	}
}
