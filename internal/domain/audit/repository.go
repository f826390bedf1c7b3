package audit

import "context"

// Repository stores audit entries
type Repository interface {
	// Record appends an entry
	Record(ctx context.Context, entry *Entry) error

	// List returns up to limit entries, newest first
	List(ctx context.Context, limit int) ([]*Entry, error)
}
