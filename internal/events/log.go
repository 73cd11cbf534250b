package events

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogObserver writes the event trail through zerolog at debug level. The
// components emitting events log their own warnings.
type LogObserver struct {
	logger *zerolog.Logger
}

// NewLogObserver logs to the given logger, or the global one when nil
func NewLogObserver(logger *zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Observe(e Event) {
	l := o.logger
	if l == nil {
		l = &log.Logger
	}

	ev := l.Debug().Str("kind", string(e.Kind))
	if e.RequestID != "" {
		ev = ev.Str("request_id", e.RequestID)
	}
	if e.TenantID != "" {
		ev = ev.Str("tenant", e.TenantID)
	}
	if e.PersonaID != "" {
		ev = ev.Str("persona", e.PersonaID)
	}
	if e.Previous != "" {
		ev = ev.Str("previous", e.Previous)
	}
	if e.RuleID != "" {
		ev = ev.Str("rule", e.RuleID)
	}
	if e.Score != 0 {
		ev = ev.Float64("score", e.Score)
	}
	if e.Reason != "" {
		ev = ev.Str("reason", e.Reason)
	}
	if e.Tier != "" {
		ev = ev.Str("tier", e.Tier)
	}
	if e.Provider != "" {
		ev = ev.Str("provider", e.Provider)
	}
	if e.Error != "" {
		ev = ev.Str("error", e.Error)
	}
	if e.Duration != 0 {
		ev = ev.Dur("duration", e.Duration)
	}
	ev.Msg("Event")
}
