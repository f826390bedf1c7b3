package audit

import "time"

// Action identifies what an audit entry records
type Action string

const (
	ActionLogin            Action = "login"
	ActionLoginDenied      Action = "login_denied"
	ActionLogout           Action = "logout"
	ActionPasswordChanged  Action = "password_changed"
	ActionAccessDenied     Action = "access_denied"
	ActionScheduleCreated  Action = "schedule_created"
	ActionScheduleUpdated  Action = "schedule_updated"
	ActionScheduleDeleted  Action = "schedule_deleted"
	ActionScheduleAssigned Action = "schedule_assigned"
	ActionUserCreated      Action = "user_created"
	ActionUserUpdated      Action = "user_updated"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Entry is a single audit log record
type Entry struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id,omitempty"`
	Action    Action                 `json:"action"`
	Resource  string                 `json:"resource,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ClampLimit bounds a requested page size
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Meta carries request details attached to audit entries
type Meta struct {
	IPAddress string
	UserAgent string
}
