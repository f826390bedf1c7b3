package access

import (
	"fmt"
	"time"
)

// DefaultTimezone is the zone access schedules are evaluated in
const DefaultTimezone = "America/Sao_Paulo"

// Decision is the outcome of evaluating a user's access schedule
type Decision struct {
	Allowed         bool   `json:"allowed"`
	MinutesUntilEnd *int   `json:"minutesUntilEnd"`
	Message         string `json:"message,omitempty"`
	ScheduleName    string `json:"scheduleName,omitempty"`
}

// Unrestricted is the decision for users without an access schedule
func Unrestricted() Decision {
	return Decision{Allowed: true}
}

// Denied builds a denial decision
func Denied(message string) Decision {
	return Decision{Allowed: false, Message: message}
}

// activeWindow returns the bounds, in minutes since midnight, of the window
// containing now. now must already be in the evaluation zone.
func (s *Schedule) activeWindow(now time.Time) (start, end int, ok bool) {
	current := now.Hour()*60 + now.Minute()
	for _, tw := range s.Windows[DayKey(now.Weekday())] {
		ws, err := ParseClock(tw.Start)
		if err != nil {
			continue
		}
		we, err := ParseClock(tw.End)
		if err != nil {
			continue
		}
		if current >= ws && current <= we {
			return ws, we, true
		}
	}
	return 0, 0, false
}

// IsAllowed reports whether now falls inside one of today's windows.
// A schedule without any table always allows; a day without windows denies.
func (s *Schedule) IsAllowed(now time.Time) bool {
	if s == nil || s.Windows == nil {
		return true
	}
	_, _, ok := s.activeWindow(now)
	return ok
}

// MinutesUntilEnd returns the minutes left in the current window, or nil when
// no window is active.
func (s *Schedule) MinutesUntilEnd(now time.Time) *int {
	if s == nil || s.Windows == nil {
		return nil
	}
	_, end, ok := s.activeWindow(now)
	if !ok {
		return nil
	}
	left := end - (now.Hour()*60 + now.Minute())
	return &left
}

// DeniedMessage explains a denial to the user
func (s *Schedule) DeniedMessage(now time.Time) string {
	if s == nil {
		return "Acesso negado: nenhuma tabela de horário configurada."
	}
	return fmt.Sprintf("Acesso negado: você não tem permissão para acessar a plataforma neste horário. Hoje é %s. Verifique sua tabela de horário \"%s\".",
		dayNamesPT[now.Weekday()], s.Name)
}

// Evaluate produces the access decision for now
func (s *Schedule) Evaluate(now time.Time) Decision {
	if !s.IsAllowed(now) {
		return Denied(s.DeniedMessage(now))
	}
	d := Decision{Allowed: true, MinutesUntilEnd: s.MinutesUntilEnd(now)}
	if s != nil {
		d.ScheduleName = s.Name
	}
	return d
}
