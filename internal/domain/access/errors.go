package access

import "errors"

var (
	ErrScheduleNotFound = errors.New("access schedule not found")
	ErrInvalidSchedule  = errors.New("invalid access schedule")
)

// DeniedError reports that a user's access schedule forbids access right now
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}
