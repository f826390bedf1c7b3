package auth

import "time"

// Session represents a server-side login session. Tokens carry the session
// ID, so deleting the session revokes them.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// IsExpired checks if the session has expired at the given instant
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsValid checks if the session is still valid
func (s *Session) IsValid() bool {
	return !s.IsExpired(time.Now())
}
