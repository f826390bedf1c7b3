// Package session is the client's authentication subsystem: it signs users in
// and out and tells the monitor which session is current.
package session

import (
	"context"
	"fmt"
	"time"

	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog/log"
)

// Manager ties the auth API to the local session store.
type Manager struct {
	auth  ports.AuthClientPort
	store ports.SessionStorePort
	now   func() time.Time
}

var _ ports.LogoutPort = (*Manager)(nil)

func NewManager(auth ports.AuthClientPort, store ports.SessionStorePort) *Manager {
	return &Manager{auth: auth, store: store, now: time.Now}
}

// Login authenticates and stores the new session
func (m *Manager) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	s, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	log.Info().Str("user_id", s.UserID).Str("email", s.Email).Msg("signed in")
	return s, nil
}

// Logout revokes the current credential and forgets the session. The local
// session is cleared even when the server cannot be reached.
func (m *Manager) Logout(ctx context.Context) error {
	s, err := m.store.Load()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	if err := m.auth.Logout(ctx, s.Credential); err != nil {
		log.Warn().Err(err).Msg("server logout failed; clearing local session")
	}
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	log.Info().Str("user_id", s.UserID).Msg("signed out")
	return nil
}

// Current returns the stored session, or nil if there is none or it expired
func (m *Manager) Current() (*ports.Session, error) {
	s, err := m.store.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		log.Info().Str("user_id", s.UserID).Msg("stored session expired")
		if err := m.store.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s, nil
}

// Watch reports the current session to fn right away and then every interval
// until ctx is done. Store errors are logged and skipped.
func (m *Manager) Watch(ctx context.Context, interval time.Duration, fn func(*ports.Session)) {
	poll := func() {
		s, err := m.Current()
		if err != nil {
			log.Warn().Err(err).Msg("reading session failed")
			return
		}
		fn(s)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
