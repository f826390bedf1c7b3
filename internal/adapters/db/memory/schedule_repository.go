package memory

import (
	"context"
	"sort"
	"sync"

	"rotafacil/internal/domain/access"
)

// ScheduleRepository is an in-memory implementation of the access repository
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*access.Schedule
}

// NewScheduleRepository creates a new in-memory schedule repository
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[string]*access.Schedule),
	}
}

func copySchedule(s *access.Schedule) *access.Schedule {
	c := *s
	if s.Windows != nil {
		c.Windows = make(access.WeeklySchedule, len(s.Windows))
		for day, windows := range s.Windows {
			c.Windows[day] = append([]access.TimeWindow(nil), windows...)
		}
	}
	return &c
}

// ListSchedules returns the schedules created by ownerID, by name. An empty
// ownerID lists every schedule.
func (r *ScheduleRepository) ListSchedules(_ context.Context, ownerID string) ([]*access.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*access.Schedule, 0)
	for _, s := range r.schedules {
		if ownerID == "" || s.OwnerID == ownerID {
			out = append(out, copySchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ScheduleRepository) GetSchedule(_ context.Context, scheduleID string) (*access.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schedules[scheduleID]
	if !ok {
		return nil, access.ErrScheduleNotFound
	}
	return copySchedule(s), nil
}

func (r *ScheduleRepository) CreateSchedule(_ context.Context, schedule *access.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) UpdateSchedule(_ context.Context, schedule *access.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[schedule.ID]; !ok {
		return access.ErrScheduleNotFound
	}
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) DeleteSchedule(_ context.Context, scheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[scheduleID]; !ok {
		return access.ErrScheduleNotFound
	}
	delete(r.schedules, scheduleID)
	return nil
}
