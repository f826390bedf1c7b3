package auth

import "context"

// Repository defines the interface for user and session persistence
type Repository interface {
	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID string) (*User, error)

	// GetUserByEmail retrieves a user by their email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser creates a new user
	CreateUser(ctx context.Context, user *User) error

	// UpdateUser updates an existing user
	UpdateUser(ctx context.Context, user *User) error

	// ListUsers retrieves all users
	ListUsers(ctx context.Context) ([]*User, error)

	// ListUsersBySchedule retrieves the users bound to an access schedule
	ListUsersBySchedule(ctx context.Context, scheduleID string) ([]*User, error)

	// ClearAccessSchedule detaches every user from the given schedule and
	// returns the affected user IDs
	ClearAccessSchedule(ctx context.Context, scheduleID string) ([]string, error)

	// Session management
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	TouchSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	CleanupExpiredSessions(ctx context.Context) error
}
