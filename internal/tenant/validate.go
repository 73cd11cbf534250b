package tenant

import (
	"fmt"

	"github.com/daikw/callpersona/internal/persona"
	"github.com/daikw/callpersona/internal/voice"
	"github.com/daikw/callpersona/internal/voice/provider"
)

var knownTelephony = []string{"twilio", "telnyx"}

var knownTones = []persona.Tone{
	persona.ToneFriendly,
	persona.ToneAuthoritative,
	persona.ToneEmpathetic,
	persona.TonePlayful,
	persona.ToneProfessional,
	persona.ToneUrgent,
}

// Validate reports problems in the configuration. None of them stop the
// tenant from being served: broken rules are skipped and unknown voice
// types fall back to the default voice.
func (c *Config) Validate() []string {
	var warnings []string

	if c == nil {
		return warnings
	}

	ids := make(map[string]bool, len(c.Personas))
	for _, p := range c.Personas {
		if p.ID == "" {
			warnings = append(warnings, "persona with empty id")
			continue
		}
		if ids[p.ID] {
			warnings = append(warnings, fmt.Sprintf("persona %s: duplicate id", p.ID))
		}
		ids[p.ID] = true
		warnings = append(warnings, validatePersona(p)...)
	}

	for _, r := range c.Rules {
		warnings = append(warnings, validateRule(r, ids)...)
	}

	vendors := provider.NewFactory().ListProviders()
	for _, name := range c.Providers.TTS {
		if !containsString(vendors, name) {
			warnings = append(warnings, fmt.Sprintf("providers.tts: unknown provider '%s'", name))
		}
	}
	for _, name := range c.Providers.Telephony {
		if !containsString(knownTelephony, name) {
			warnings = append(warnings, fmt.Sprintf("providers.telephony: unknown provider '%s'", name))
		}
	}

	if c.CustomVoice != nil && c.CustomVoice.Endpoint == "" {
		warnings = append(warnings, "custom_voice: endpoint is empty, tier will be skipped")
	}
	if c.HasCustomVoice() && !c.FeatureEnabled(FeatureCustomVoice) {
		warnings = append(warnings, "custom_voice: endpoint is set but feature 'custom_voice' is off, tier will be skipped")
	}
	if c.Setting(SettingTierTimeout, nil) != nil && c.TierTimeout() == 0 {
		warnings = append(warnings, fmt.Sprintf("config.%s: invalid value %v, default timeout will be used", SettingTierTimeout, c.Settings[SettingTierTimeout]))
	}
	if c.Quotas.VendorRPS < 0 {
		warnings = append(warnings, "quotas.vendor_rps must not be negative")
	}
	if c.Voice.VoiceType != "" && !voice.LocalVoices.Has(c.Voice.VoiceType) {
		warnings = append(warnings, fmt.Sprintf("voice.voice_type '%s' is not mapped, default voice will be used", c.Voice.VoiceType))
	}

	return warnings
}

func validatePersona(p persona.Persona) []string {
	var warnings []string

	if p.VoiceType != "" && !voice.LocalVoices.Has(p.VoiceType) {
		warnings = append(warnings, fmt.Sprintf("persona %s: voice type '%s' is not mapped, default voice will be used", p.ID, p.VoiceType))
	}
	if p.Tone != "" && !containsTone(p.Tone) {
		warnings = append(warnings, fmt.Sprintf("persona %s: unknown tone '%s'", p.ID, p.Tone))
	}

	er := p.EmotionalRange
	dims := []struct {
		name  string
		value float64
	}{
		{"warmth", er.Warmth},
		{"authority", er.Authority},
		{"empathy", er.Empathy},
		{"energy", er.Energy},
	}
	for _, d := range dims {
		if d.value < 0 || d.value > 100 {
			warnings = append(warnings, fmt.Sprintf("persona %s: emotional_range.%s must be between 0 and 100", p.ID, d.name))
		}
	}

	if p.Active && !p.BrandSafety.Approved {
		warnings = append(warnings, fmt.Sprintf("persona %s: active but not brand-safety approved, it will never be selected", p.ID))
	}
	return warnings
}

func validateRule(r persona.SelectionRule, ids map[string]bool) []string {
	var warnings []string

	name := r.ID
	if name == "" {
		name = "(unnamed)"
	}

	if r.Action.UsePersona == "" {
		warnings = append(warnings, fmt.Sprintf("rule %s: action.use_persona is empty", name))
	} else if !ids[r.Action.UsePersona] {
		warnings = append(warnings, fmt.Sprintf("rule %s: unknown persona '%s', rule will be skipped", name, r.Action.UsePersona))
	}

	if tr := r.Conditions.TimeRange; tr != nil && !tr.Valid() {
		warnings = append(warnings, fmt.Sprintf("rule %s: invalid time range %s-%s, expected HH:MM", name, tr.Start, tr.End))
	}
	for _, d := range r.Conditions.DaysOfWeek {
		if _, ok := persona.ParseWeekday(d); !ok {
			warnings = append(warnings, fmt.Sprintf("rule %s: unknown day '%s'", name, d))
		}
	}
	if a := r.Conditions.CallAttempt; a != nil && *a < 1 {
		warnings = append(warnings, fmt.Sprintf("rule %s: call_attempt must be at least 1", name))
	}
	return warnings
}

func containsTone(t persona.Tone) bool {
	for _, known := range knownTones {
		if known == t {
			return true
		}
	}
	return false
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
