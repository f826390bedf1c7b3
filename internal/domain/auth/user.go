package auth

import "time"

// Role represents user roles in the system
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a platform user
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	AccessScheduleID  *string    `json:"access_schedule_id"` // nil means no access restriction
	IsActive          bool       `json:"is_active"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLoginAt       time.Time  `json:"last_login_at"`
}

// UserCreateRequest represents a request to create a new user
type UserCreateRequest struct {
	Email            string  `json:"email" binding:"required,email"`
	Name             string  `json:"name" binding:"required"`
	Password         string  `json:"password" binding:"required,min=8"`
	Role             Role    `json:"role"`
	AccessScheduleID *string `json:"access_schedule_id"`
}

// UserUpdateRequest represents a request to update user settings
type UserUpdateRequest struct {
	Name     string `json:"name,omitempty"`
	Role     Role   `json:"role,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// IsAdmin checks if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasAccessSchedule reports whether an access schedule restricts this user
func (u *User) HasAccessSchedule() bool {
	return u.AccessScheduleID != nil && *u.AccessScheduleID != ""
}

// TokenPredatesPasswordChange reports whether a token issued at issuedAt was
// minted before the user's last password change.
func (u *User) TokenPredatesPasswordChange(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt)
}

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleUser
}
