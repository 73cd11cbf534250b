package events

import (
	"sync"
	"time"
)

// Kind identifies what happened
type Kind string

const (
	KindPersonaSelected Kind = "persona.selected"
	KindPersonaSwitched Kind = "persona.switched"
	KindTierFailed      Kind = "synthesis.tier_failed"
	KindTierSucceeded   Kind = "synthesis.tier_succeeded"
	KindFallbackUsed    Kind = "synthesis.fallback"
)

// Event is a structured record of a selection or synthesis step
type Event struct {
	Kind      Kind          `json:"kind"`
	Time      time.Time     `json:"time"`
	RequestID string        `json:"request_id,omitempty"`
	TenantID  string        `json:"tenant_id,omitempty"`
	PersonaID string        `json:"persona_id,omitempty"`
	Previous  string        `json:"previous,omitempty"`
	RuleID    string        `json:"rule_id,omitempty"`
	Score     float64       `json:"score,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Tier      string        `json:"tier,omitempty"`
	Provider  string        `json:"provider,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Observer receives events. Observe must not block the caller for long
// and must not fail; delivery problems are the observer's own concern.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(e Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type nop struct{}

func (nop) Observe(Event) {}

// Nop returns an observer that drops everything
func Nop() Observer {
	return nop{}
}

// Multi fans an event out to several observers in order
type Multi []Observer

func (m Multi) Observe(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

// Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}
