package persona

import "time"

// Tone is the speaking register of a persona
type Tone string

const (
	ToneFriendly      Tone = "friendly"
	ToneAuthoritative Tone = "authoritative"
	ToneEmpathetic    Tone = "empathetic"
	TonePlayful       Tone = "playful"
	ToneProfessional  Tone = "professional"
	ToneUrgent        Tone = "urgent"
)

// UseCase is a call scenario a persona is suited for
type UseCase string

const (
	UseCaseOutboundReminder UseCase = "outbound_reminder"
	UseCaseInboundSupport   UseCase = "inbound_support"
	UseCasePostSaleCheckin  UseCase = "post_sale_checkin"
	UseCaseCollections      UseCase = "collections"
	UseCaseOnboarding       UseCase = "onboarding"
	UseCaseVIPCalls         UseCase = "vip_calls"
	UseCaseEmergency        UseCase = "emergency"
)

// EventType identifies a mid-call trigger
type EventType string

const (
	EventKeyMoment           EventType = "key_moment"
	EventObjectionHandling   EventType = "objection_handling"
	EventClosingAttempt      EventType = "closing_attempt"
	EventComplaintEscalation EventType = "complaint_escalation"
)

// Persona is a named voice identity bound to one tenant
type Persona struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	VoiceType      string         `json:"voice_type" yaml:"voice_type"`
	Tone           Tone           `json:"tone" yaml:"tone"`
	EmotionalRange EmotionalRange `json:"emotional_range" yaml:"emotional_range"`
	UseCases       []UseCase      `json:"use_cases,omitempty" yaml:"use_cases,omitempty"`
	Context        ContextRules   `json:"context_rules" yaml:"context_rules"`
	Health         HealthScore    `json:"health_score" yaml:"health_score"`
	Analytics      Analytics      `json:"analytics" yaml:"analytics"`
	BrandSafety    BrandSafety    `json:"brand_safety" yaml:"brand_safety"`
	Active         bool           `json:"is_active" yaml:"is_active"`
}

// EmotionalRange holds four bounded (0-100) dimensions
type EmotionalRange struct {
	Warmth    float64 `json:"warmth" yaml:"warmth"`
	Authority float64 `json:"authority" yaml:"authority"`
	Empathy   float64 `json:"empathy" yaml:"empathy"`
	Energy    float64 `json:"energy" yaml:"energy"`
}

// ContextRules are optional allow-lists. An empty list allows nothing for scoring purposes.
type ContextRules struct {
	TimeOfDay        []string `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	CallTypes        []string `json:"call_types,omitempty" yaml:"call_types,omitempty"`
	CustomerSegments []string `json:"customer_segments,omitempty" yaml:"customer_segments,omitempty"`
	Departments      []string `json:"departments,omitempty" yaml:"departments,omitempty"`
	Languages        []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Analytics is maintained outside this package and only read here
type Analytics struct {
	CallCount         int     `json:"call_count" yaml:"call_count"`
	CompletionRate    float64 `json:"completion_rate" yaml:"completion_rate"`
	AverageDuration   float64 `json:"average_duration" yaml:"average_duration"`
	SatisfactionScore float64 `json:"satisfaction_score" yaml:"satisfaction_score"`
	ConversionRate    float64 `json:"conversion_rate" yaml:"conversion_rate"`
	HangupRate        float64 `json:"hangup_rate" yaml:"hangup_rate"`
}

// BrandSafety records the approval state of a persona
type BrandSafety struct {
	Approved       bool      `json:"approved" yaml:"approved"`
	ApprovedBy     string    `json:"approved_by,omitempty" yaml:"approved_by,omitempty"`
	ContentFilters []string  `json:"content_filters,omitempty" yaml:"content_filters,omitempty"`
	LastReview     time.Time `json:"last_review,omitempty" yaml:"last_review,omitempty"`
}

// Eligible reports whether the persona may be selected at all
func (p Persona) Eligible() bool {
	return p.Active && p.BrandSafety.Approved
}

// HasUseCase reports whether uc is one of the persona's use cases
func (p Persona) HasUseCase(uc UseCase) bool {
	for _, u := range p.UseCases {
		if u == uc {
			return true
		}
	}
	return false
}

// clone returns a copy that shares no slices with p
func (p Persona) clone() Persona {
	c := p
	c.UseCases = append([]UseCase(nil), p.UseCases...)
	c.Context.TimeOfDay = append([]string(nil), p.Context.TimeOfDay...)
	c.Context.CallTypes = append([]string(nil), p.Context.CallTypes...)
	c.Context.CustomerSegments = append([]string(nil), p.Context.CustomerSegments...)
	c.Context.Departments = append([]string(nil), p.Context.Departments...)
	c.Context.Languages = append([]string(nil), p.Context.Languages...)
	c.Health.Recommendations = append([]string(nil), p.Health.Recommendations...)
	c.BrandSafety.ContentFilters = append([]string(nil), p.BrandSafety.ContentFilters...)
	return c
}

// SelectionRule overrides scoring when its conditions match
type SelectionRule struct {
	ID         string         `json:"id" yaml:"id"`
	Priority   int            `json:"priority" yaml:"priority"`
	Conditions RuleConditions `json:"conditions" yaml:"conditions"`
	Action     RuleAction     `json:"action" yaml:"action"`
}

// RuleConditions are all optional. A nil or empty field matches anything.
type RuleConditions struct {
	TimeRange        *TimeRange `json:"time_range,omitempty" yaml:"time_range,omitempty"`
	DaysOfWeek       []string   `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
	CallTypes        []string   `json:"call_types,omitempty" yaml:"call_types,omitempty"`
	CustomerTags     []string   `json:"customer_tags,omitempty" yaml:"customer_tags,omitempty"`
	LeadSources      []string   `json:"lead_sources,omitempty" yaml:"lead_sources,omitempty"`
	CallAttempt      *int       `json:"call_attempt,omitempty" yaml:"call_attempt,omitempty"`
	PreviousOutcomes []string   `json:"previous_outcomes,omitempty" yaml:"previous_outcomes,omitempty"`
}

// TimeRange is an inclusive start, exclusive end wall-clock window in HH:MM
type TimeRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// RuleAction names the persona to use when a rule fires
type RuleAction struct {
	UsePersona        string `json:"use_persona" yaml:"use_persona"`
	EscalationTrigger string `json:"escalation_trigger,omitempty" yaml:"escalation_trigger,omitempty"`
	ContextMessage    string `json:"context_message,omitempty" yaml:"context_message,omitempty"`
}

func (r SelectionRule) clone() SelectionRule {
	c := r
	if r.Conditions.TimeRange != nil {
		tr := *r.Conditions.TimeRange
		c.Conditions.TimeRange = &tr
	}
	if r.Conditions.CallAttempt != nil {
		n := *r.Conditions.CallAttempt
		c.Conditions.CallAttempt = &n
	}
	c.Conditions.DaysOfWeek = append([]string(nil), r.Conditions.DaysOfWeek...)
	c.Conditions.CallTypes = append([]string(nil), r.Conditions.CallTypes...)
	c.Conditions.CustomerTags = append([]string(nil), r.Conditions.CustomerTags...)
	c.Conditions.LeadSources = append([]string(nil), r.Conditions.LeadSources...)
	c.Conditions.PreviousOutcomes = append([]string(nil), r.Conditions.PreviousOutcomes...)
	return c
}

// CallContext describes a call at selection time. It is never stored.
type CallContext struct {
	CallType        string           `json:"call_type"`
	CustomerSegment string           `json:"customer_segment,omitempty"`
	TimeOfDay       string           `json:"time_of_day,omitempty"`
	Department      string           `json:"department,omitempty"`
	Language        string           `json:"language,omitempty"`
	CallAttempt     int              `json:"call_attempt,omitempty"`
	CustomerHistory *CustomerHistory `json:"customer_history,omitempty"`
	IsVIP           bool             `json:"is_vip,omitempty"`
}

// CustomerHistory is the optional history blob attached to a call context
type CustomerHistory struct {
	Tags            []string `json:"tags,omitempty"`
	LeadSource      string   `json:"lead_source,omitempty"`
	PreviousOutcome string   `json:"previous_outcome,omitempty"`
}

// CallEvent triggers mid-call re-selection
type CallEvent struct {
	Type             EventType     `json:"type"`
	CustomerResponse string        `json:"customer_response,omitempty"`
	CallDuration     time.Duration `json:"call_duration,omitempty"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
