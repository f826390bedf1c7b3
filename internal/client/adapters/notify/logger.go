// Package notify delivers monitor notices to the user
package notify

import (
	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog"
)

// Logger writes notices through zerolog. Destructive notices are logged at
// warn level so they stand out on the console.
type Logger struct {
	logger zerolog.Logger
}

var _ ports.NotifierPort = (*Logger)(nil)

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(n ports.Notice) {
	ev := l.logger.Info()
	if n.Variant == ports.Destructive {
		ev = l.logger.Warn()
	}
	ev.Str("variant", n.Variant.String()).
		Str("title", n.Title).
		Dur("duration", n.Duration).
		Msg(n.Description)
}
