package persona

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyPersonaID   = errors.New("persona id cannot be empty")
	ErrDuplicatePersona = errors.New("duplicate persona id")
)

// snapshot is an immutable persona/rule set. It is never modified after publish.
type snapshot struct {
	personas []Persona
	byID     map[string]int
	rules    []SelectionRule
}

func (s *snapshot) lookup(id string) (Persona, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Persona{}, false
	}
	return s.personas[i], true
}

// Registry holds the personas and selection rules of one tenant.
// Readers never lock; Load publishes a fresh snapshot atomically.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&snapshot{byID: map[string]int{}})
	return r
}

// Load replaces the whole persona and rule set. Inputs are copied.
// On error the previous set stays in place.
func (r *Registry) Load(personas []Persona, rules []SelectionRule) error {
	s, err := buildSnapshot(personas, rules)
	if err != nil {
		return err
	}
	r.current.Store(s)

	log.Debug().
		Int("personas", len(s.personas)).
		Int("rules", len(s.rules)).
		Msg("Loaded persona registry")
	return nil
}

func buildSnapshot(personas []Persona, rules []SelectionRule) (*snapshot, error) {
	s := &snapshot{
		personas: make([]Persona, 0, len(personas)),
		byID:     make(map[string]int, len(personas)),
		rules:    make([]SelectionRule, 0, len(rules)),
	}

	for _, p := range personas {
		if p.ID == "" {
			return nil, ErrEmptyPersonaID
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePersona, p.ID)
		}
		s.byID[p.ID] = len(s.personas)
		s.personas = append(s.personas, p.clone())
	}

	for _, rule := range rules {
		if _, ok := s.byID[rule.Action.UsePersona]; !ok {
			log.Warn().
				Str("rule", rule.ID).
				Str("persona", rule.Action.UsePersona).
				Msg("Selection rule references unknown persona, it will be skipped")
		}
		s.rules = append(s.rules, rule.clone())
	}

	return s, nil
}

// Lookup returns a copy of the persona with the given id
func (r *Registry) Lookup(id string) (Persona, bool) {
	p, ok := r.current.Load().lookup(id)
	if !ok {
		return Persona{}, false
	}
	return p.clone(), true
}

// Personas returns copies of all personas in registration order
func (r *Registry) Personas() []Persona {
	s := r.current.Load()
	out := make([]Persona, len(s.personas))
	for i, p := range s.personas {
		out[i] = p.clone()
	}
	return out
}

// Rules returns copies of all rules in registration order
func (r *Registry) Rules() []SelectionRule {
	s := r.current.Load()
	out := make([]SelectionRule, len(s.rules))
	for i, rule := range s.rules {
		out[i] = rule.clone()
	}
	return out
}

// Len returns the number of registered personas
func (r *Registry) Len() int {
	return len(r.current.Load().personas)
}

// view exposes the current snapshot to the selector without copying
func (r *Registry) view() *snapshot {
	return r.current.Load()
}

// ApplyHealth asks scorer for a fresh health record of every persona and
// publishes the result as a new snapshot. Personas the scorer fails on keep
// their previous record.
func (r *Registry) ApplyHealth(ctx context.Context, scorer HealthScorer) error {
	for {
		old := r.current.Load()
		personas := make([]Persona, len(old.personas))
		for i, p := range old.personas {
			personas[i] = p.clone()
			h, err := scorer.Score(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Str("persona", p.ID).Msg("Health scoring failed, keeping previous score")
				continue
			}
			personas[i].Health = h
		}

		// ids and rules are unchanged and immutable, so they are shared
		next := &snapshot{personas: personas, byID: old.byID, rules: old.rules}
		if r.current.CompareAndSwap(old, next) {
			return nil
		}
		// A concurrent Load won; rescore against the new set.
	}
}
