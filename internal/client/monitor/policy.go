package monitor

import (
	"fmt"
	"time"

	"rotafacil/internal/client/ports"
)

type (
	// Result is the outcome of one access check
	Result = ports.AccessResult
	// Notice is shown to the user through the notifier
	Notice = ports.Notice
)

// Phase is where a monitor sits in its session lifetime
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseOK
	PhaseWarning
	PhaseTerminating
)

func (p Phase) String() string {
	switch p {
	case PhaseOK:
		return "active_ok"
	case PhaseWarning:
		return "active_warning"
	case PhaseTerminating:
		return "terminating"
	default:
		return "inactive"
	}
}

// State is the per-session monitor state.
// WarningShown stays true for one continuous stretch inside the warning threshold.
type State struct {
	Phase        Phase
	WarningShown bool
	LastCheck    time.Time
}

// Policy holds the timing and threshold knobs of the monitor
type Policy struct {
	WarningMinutes int
	GraceDelay     time.Duration
	Interval       time.Duration
	Debounce       time.Duration
	CheckTimeout   time.Duration
}

// DefaultPolicy warns 10 minutes before the window closes, checks every
// minute at most every 50 seconds and logs out 2 seconds after a denial.
func DefaultPolicy() Policy {
	return Policy{
		WarningMinutes: 10,
		GraceDelay:     2 * time.Second,
		Interval:       60 * time.Second,
		Debounce:       50 * time.Second,
		CheckTimeout:   15 * time.Second,
	}
}

// Effect is a side effect requested by Evaluate
type Effect interface {
	effect()
}

// Notify shows a notice to the user
type Notify struct {
	Notice Notice
}

// ScheduleLogout ends the session once After has elapsed
type ScheduleLogout struct {
	After time.Duration
}

func (Notify) effect()         {}
func (ScheduleLogout) effect() {}

const (
	deniedTitle       = "Horário de Acesso Expirado"
	deniedDescription = "Seu horário de acesso à plataforma expirou. Você será desconectado."
	warningTitle      = "⏰ Atenção: Fim do Expediente"
)

// DeniedNotice builds the destructive notice shown on a denial
func DeniedNotice(message string) Notice {
	if message == "" {
		message = deniedDescription
	}
	return Notice{
		Title:       deniedTitle,
		Description: message,
		Variant:     ports.Destructive,
		Duration:    5 * time.Second,
	}
}

// WarningNotice builds the closing-soon notice
func WarningNotice(minutes int) Notice {
	return Notice{
		Title:       warningTitle,
		Description: fmt.Sprintf("Faltam %d minutos para o encerramento do seu horário de acesso. Salve seu trabalho!", minutes),
		Variant:     ports.Informational,
		Duration:    10 * time.Second,
	}
}

// Evaluate applies one check result to s and returns the next state along
// with the effects to run. It never touches LastCheck.
func Evaluate(s State, r Result, p Policy) (State, []Effect) {
	if !r.Allowed {
		s.Phase = PhaseTerminating
		return s, []Effect{
			Notify{Notice: DeniedNotice(r.Message)},
			ScheduleLogout{After: p.GraceDelay},
		}
	}

	m := r.MinutesUntilEnd
	if m != nil && *m > 0 && *m <= p.WarningMinutes {
		s.Phase = PhaseWarning
		if s.WarningShown {
			return s, nil
		}
		s.WarningShown = true
		return s, []Effect{Notify{Notice: WarningNotice(*m)}}
	}

	// outside the threshold or no restriction at all rearms the warning
	s.WarningShown = false
	s.Phase = PhaseOK
	return s, nil
}

// ShouldCheck reports whether a tick at now may run a check
func ShouldCheck(s State, now time.Time, p Policy) bool {
	if s.Phase == PhaseInactive || s.Phase == PhaseTerminating {
		return false
	}
	return s.LastCheck.IsZero() || now.Sub(s.LastCheck) >= p.Debounce
}
