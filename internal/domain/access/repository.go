package access

import "context"

// Repository defines persistence for access schedules
type Repository interface {
	// ListSchedules returns the schedules created by ownerID, or all of them
	// when ownerID is empty
	ListSchedules(ctx context.Context, ownerID string) ([]*Schedule, error)

	GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error)
	CreateSchedule(ctx context.Context, schedule *Schedule) error
	UpdateSchedule(ctx context.Context, schedule *Schedule) error
	DeleteSchedule(ctx context.Context, scheduleID string) error
}
