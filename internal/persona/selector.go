package persona

import (
	"sort"
	"time"

	"github.com/daikw/callpersona/internal/events"
	"github.com/rs/zerolog/log"
)

// Source tells how a selection was made
type Source string

const (
	SourceNone  Source = "none"
	SourceRule  Source = "rule"
	SourceScore Source = "score"
)

// Selection is the outcome of SelectPersona. Persona is nil when nothing fits.
type Selection struct {
	Persona           *Persona `json:"persona,omitempty"`
	Source            Source   `json:"source"`
	RuleID            string   `json:"rule_id,omitempty"`
	Score             float64  `json:"score,omitempty"`
	EscalationTrigger string   `json:"escalation_trigger,omitempty"`
	ContextMessage    string   `json:"context_message,omitempty"`
}

// Found reports whether a persona was selected
func (s Selection) Found() bool {
	return s.Persona != nil
}

// eventTarget is the tone and use case a call event switches to
type eventTarget struct {
	tone    Tone
	useCase UseCase
}

var eventTargets = map[EventType]eventTarget{
	EventKeyMoment:           {ToneAuthoritative, UseCaseVIPCalls},
	EventComplaintEscalation: {ToneAuthoritative, UseCaseVIPCalls},
	EventObjectionHandling:   {ToneEmpathetic, UseCaseInboundSupport},
	EventClosingAttempt:      {ToneUrgent, UseCaseCollections},
}

// Selector chooses personas from a registry. It holds no state of its own.
type Selector struct {
	registry *Registry
	clock    func() time.Time
	observer events.Observer
	tenant   string
}

// SelectorOption configures a Selector
type SelectorOption func(*Selector)

// WithClock sets the time source for time-range and day-of-week rule conditions.
// Without a clock those conditions always match.
func WithClock(clock func() time.Time) SelectorOption {
	return func(s *Selector) {
		s.clock = clock
	}
}

// WithObserver sets the receiver of selection events
func WithObserver(o events.Observer) SelectorOption {
	return func(s *Selector) {
		s.observer = o
	}
}

// WithTenant tags emitted events with the tenant id
func WithTenant(tenantID string) SelectorOption {
	return func(s *Selector) {
		s.tenant = tenantID
	}
}

// NewSelector creates a selector reading from registry
func NewSelector(registry *Registry, opts ...SelectorOption) *Selector {
	s := &Selector{
		registry: registry,
		observer: events.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) now() time.Time {
	if s.clock == nil {
		return time.Time{}
	}
	return s.clock()
}

// SelectPersona picks a persona for cc. Matching rules are tried by descending
// priority and pre-empt scoring; otherwise the highest-scoring eligible persona wins.
func (s *Selector) SelectPersona(cc CallContext) Selection {
	snap := s.registry.view()
	now := s.now()

	if sel, ok := selectByRule(snap, cc, now); ok {
		s.emitSelection(sel)
		return sel
	}

	sel := selectByScore(snap, cc)
	s.emitSelection(sel)
	return sel
}

func selectByRule(snap *snapshot, cc CallContext, now time.Time) (Selection, bool) {
	var matching []SelectionRule
	for _, rule := range snap.rules {
		if Matches(rule, cc, now) {
			matching = append(matching, rule)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	for _, rule := range matching {
		p, ok := snap.lookup(rule.Action.UsePersona)
		if !ok || !p.Eligible() {
			log.Debug().
				Str("rule", rule.ID).
				Str("persona", rule.Action.UsePersona).
				Msg("Skipping rule with unresolvable persona")
			continue
		}
		c := p.clone()
		return Selection{
			Persona:           &c,
			Source:            SourceRule,
			RuleID:            rule.ID,
			EscalationTrigger: rule.Action.EscalationTrigger,
			ContextMessage:    rule.Action.ContextMessage,
		}, true
	}
	return Selection{}, false
}

func selectByScore(snap *snapshot, cc CallContext) Selection {
	best := 0.0
	bestIdx := -1
	for i, p := range snap.personas {
		if !p.Eligible() {
			continue
		}
		if score := Score(p, cc); score > best {
			best = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return Selection{Source: SourceNone}
	}
	c := snap.personas[bestIdx].clone()
	return Selection{Persona: &c, Source: SourceScore, Score: best}
}

// ReselectOnEvent returns the persona to switch to for ev, or false when the
// current persona should stay. current may be nil.
func (s *Selector) ReselectOnEvent(current *Persona, ev CallEvent) (Persona, bool) {
	target, ok := eventTargets[ev.Type]
	if !ok {
		return Persona{}, false
	}

	for _, p := range s.registry.view().personas {
		if !p.Eligible() || p.Tone != target.tone || !p.HasUseCase(target.useCase) {
			continue
		}
		if current != nil && current.ID == p.ID {
			return Persona{}, false
		}

		from := ""
		if current != nil {
			from = current.ID
		}
		log.Info().
			Str("tenant", s.tenant).
			Str("event", string(ev.Type)).
			Str("from", from).
			Str("to", p.ID).
			Msg("Switching persona on call event")
		s.observer.Observe(events.Event{
			Kind:      events.KindPersonaSwitched,
			TenantID:  s.tenant,
			PersonaID: p.ID,
			Previous:  from,
			Reason:    string(ev.Type),
		})
		return p.clone(), true
	}
	return Persona{}, false
}

func (s *Selector) emitSelection(sel Selection) {
	e := events.Event{
		Kind:     events.KindPersonaSelected,
		TenantID: s.tenant,
		Reason:   string(sel.Source),
		RuleID:   sel.RuleID,
		Score:    sel.Score,
	}
	if sel.Persona != nil {
		e.PersonaID = sel.Persona.ID
	}
	s.observer.Observe(e)
}
