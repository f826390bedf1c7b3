package access

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeWindow is an allowed range within a day, both ends "HH:MM" and inclusive
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySchedule maps a lower-case English weekday name to its allowed windows
type WeeklySchedule map[string][]TimeWindow

// Schedule is an access table that restricts when its users may use the platform
type Schedule struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	OwnerID   string         `json:"owner_id"`
	Windows   WeeklySchedule `json:"schedules"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ScheduleCreateRequest represents a request to create an access schedule
type ScheduleCreateRequest struct {
	Name    string         `json:"name" binding:"required"`
	Windows WeeklySchedule `json:"schedules" binding:"required"`
}

// ScheduleUpdateRequest represents a partial update of an access schedule
type ScheduleUpdateRequest struct {
	Name    string         `json:"name,omitempty"`
	Windows WeeklySchedule `json:"schedules,omitempty"`
}

var dayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var dayNamesPT = [7]string{"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira", "Sexta-feira", "Sábado"}

// DayKey returns the schedule key used for the weekday
func DayKey(d time.Weekday) string {
	return dayKeys[d]
}

// ParseClock parses "HH:MM" or "H:MM" into minutes since midnight
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time: %s", s)
	}
	return hour*60 + minute, nil
}

// Validate checks weekday keys and window bounds
func (w WeeklySchedule) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: schedules are required", ErrInvalidSchedule)
	}
	for day, windows := range w {
		if !isDayKey(day) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, day)
		}
		for _, tw := range windows {
			start, err := ParseClock(tw.Start)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, day, err)
			}
			end, err := ParseClock(tw.End)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, day, err)
			}
			if start >= end {
				return fmt.Errorf("%w: %s: window %s-%s must start before it ends", ErrInvalidSchedule, day, tw.Start, tw.End)
			}
		}
	}
	return nil
}

func isDayKey(s string) bool {
	for _, k := range dayKeys {
		if k == s {
			return true
		}
	}
	return false
}
