package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rotafacil/internal/domain/auth"
)

// UserRepository is an in-memory implementation of the auth repository
type UserRepository struct {
	mu           sync.RWMutex
	users        map[string]*auth.User    // userID -> User
	usersByEmail map[string]string        // lower-cased email -> userID
	sessions     map[string]*auth.Session // sessionID -> Session
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:        make(map[string]*auth.User),
		usersByEmail: make(map[string]string),
		sessions:     make(map[string]*auth.Session),
	}
}

func copyUser(u *auth.User) *auth.User {
	c := *u
	if u.AccessScheduleID != nil {
		id := *u.AccessScheduleID
		c.AccessScheduleID = &id
	}
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		c.PasswordChangedAt = &t
	}
	return &c
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(_ context.Context, userID string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[userID]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetUserByEmail retrieves a user by their email
func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	return copyUser(r.users[id]), nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := r.users[user.ID]; exists {
		return auth.ErrUserExists
	}
	if _, exists := r.usersByEmail[key]; exists {
		return auth.ErrUserExists
	}

	r.users[user.ID] = copyUser(user)
	r.usersByEmail[key] = user.ID
	return nil
}

// UpdateUser updates an existing user
func (r *UserRepository) UpdateUser(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.users[user.ID]
	if !exists {
		return auth.ErrUserNotFound
	}

	// Update email index if email changed
	if oldKey, newKey := strings.ToLower(old.Email), strings.ToLower(user.Email); oldKey != newKey {
		if _, taken := r.usersByEmail[newKey]; taken {
			return auth.ErrUserExists
		}
		delete(r.usersByEmail, oldKey)
		r.usersByEmail[newKey] = user.ID
	}

	r.users[user.ID] = copyUser(user)
	return nil
}

// ListUsers retrieves all users ordered by email
func (r *UserRepository) ListUsers(_ context.Context) ([]*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*auth.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// ListUsersBySchedule retrieves the users bound to an access schedule
func (r *UserRepository) ListUsersBySchedule(_ context.Context, scheduleID string) ([]*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*auth.User
	for _, user := range r.users {
		if user.AccessScheduleID != nil && *user.AccessScheduleID == scheduleID {
			users = append(users, copyUser(user))
		}
	}
	return users, nil
}

// ClearAccessSchedule detaches every user from the given schedule
func (r *UserRepository) ClearAccessSchedule(_ context.Context, scheduleID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []string
	now := time.Now()
	for id, user := range r.users {
		if user.AccessScheduleID != nil && *user.AccessScheduleID == scheduleID {
			user.AccessScheduleID = nil
			user.UpdatedAt = now
			affected = append(affected, id)
		}
	}
	return affected, nil
}

// CreateSession stores a new session
func (r *UserRepository) CreateSession(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *session
	r.sessions[session.ID] = &s
	return nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(_ context.Context, sessionID string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		return nil, auth.ErrSessionNotFound
	}
	s := *session
	return &s, nil
}

// TouchSession records session activity
func (r *UserRepository) TouchSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		return auth.ErrSessionNotFound
	}
	session.LastUsedAt = time.Now()
	return nil
}

// DeleteSession removes a session
func (r *UserRepository) DeleteSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// DeleteUserSessions removes every session of a user
func (r *UserRepository) DeleteUserSessions(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions
func (r *UserRepository) CleanupExpiredSessions(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, session := range r.sessions {
		if session.IsExpired(now) {
			delete(r.sessions, id)
		}
	}
	return nil
}
