package ports

import (
	"context"
	"time"
)

// Session is the signed-in user as seen by the client. A nil *Session means
// nobody is signed in.
type Session struct {
	Credential string    `json:"credential"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the credential lifetime has passed at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AccessResult is the evaluator's answer to an access check.
// MinutesUntilEnd is only meaningful when Allowed is true; nil means no
// active restriction.
type AccessResult struct {
	Allowed         bool   `json:"allowed"`
	MinutesUntilEnd *int   `json:"minutesUntilEnd"`
	Message         string `json:"message,omitempty"`
}

// Variant selects how a notice is presented
type Variant int

const (
	Informational Variant = iota
	Destructive
)

func (v Variant) String() string {
	if v == Destructive {
		return "destructive"
	}
	return "informational"
}

// Notice is a user-facing notification
type Notice struct {
	Title       string
	Description string
	Variant     Variant
	Duration    time.Duration
}

// AccessEvaluatorPort asks the server whether credential may still use the platform.
// A denial is a result, not an error; errors are transport or protocol failures.
type AccessEvaluatorPort interface {
	CheckAccess(ctx context.Context, credential string) (AccessResult, error)
}

// NotifierPort shows notices to the user
type NotifierPort interface {
	Notify(n Notice)
}

// LogoutPort ends the current session through the authentication subsystem
type LogoutPort interface {
	Logout(ctx context.Context) error
}

// AuthClientPort talks to the server's authentication endpoints
type AuthClientPort interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, credential string) error
}

// SessionStorePort persists the current session between runs
type SessionStorePort interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// WebSocketClientPort defines capability to connect and receive messages.
type WebSocketClientPort interface {
	Connect(url string) error
	ReadMessage() ([]byte, error)
	Close() error
}
