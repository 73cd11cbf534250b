package tenant

import (
	"strings"
	"testing"
	"time"

	"github.com/daikw/callpersona/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_MaskSecrets(t *testing.T) {
	cfg := &Config{
		ID:          "acme",
		CustomVoice: &CustomVoice{Endpoint: "https://voice.acme.test", APIKey: "secret-key"},
		ProviderSettings: map[string]map[string]interface{}{
			"openai": {"api_key": "sk-12345", "model": "tts-1"},
		},
	}

	masked := cfg.MaskSecrets()

	assert.Equal(t, "[set, 10 chars]", masked.CustomVoice.APIKey)
	assert.Equal(t, "[set, 8 chars]", masked.ProviderSettings["openai"]["api_key"])
	assert.Equal(t, "tts-1", masked.ProviderSettings["openai"]["model"])

	assert.Equal(t, "secret-key", cfg.CustomVoice.APIKey, "original must not be modified")
	assert.Equal(t, "sk-12345", cfg.ProviderSettings["openai"]["api_key"])

	assert.Nil(t, (*Config)(nil).MaskSecrets())
}

func TestConfig_Setting(t *testing.T) {
	cfg := &Config{Settings: map[string]interface{}{"greeting": "Hello"}}

	assert.Equal(t, "Hello", cfg.Setting("greeting", "Hi"))
	assert.Equal(t, "Hi", cfg.Setting("missing", "Hi"))
	assert.Equal(t, "Hi", (*Config)(nil).Setting("greeting", "Hi"))
}

func TestConfig_CustomVoiceEnabled(t *testing.T) {
	cfg := &Config{CustomVoice: &CustomVoice{Endpoint: "https://voice.acme.test"}}
	assert.True(t, cfg.HasCustomVoice())
	assert.False(t, cfg.CustomVoiceEnabled(), "feature flag defaults to off")

	cfg.Features = map[string]bool{FeatureCustomVoice: true}
	assert.True(t, cfg.CustomVoiceEnabled())

	cfg.CustomVoice.Endpoint = ""
	assert.False(t, cfg.CustomVoiceEnabled())
	assert.False(t, (*Config)(nil).CustomVoiceEnabled())
}

func TestConfig_TierTimeout(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected time.Duration
	}{
		{"unset", nil, 0},
		{"duration string", "2500ms", 2500 * time.Millisecond},
		{"seconds from json", float64(3), 3 * time.Second},
		{"seconds from yaml", 4, 4 * time.Second},
		{"invalid string", "soon", 0},
		{"negative", float64(-1), 0},
		{"wrong type", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if tt.value != nil {
				cfg.Settings = map[string]interface{}{SettingTierTimeout: tt.value}
			}
			assert.Equal(t, tt.expected, cfg.TierTimeout())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	attempt := 0
	cfg := &Config{
		Providers: Providers{
			TTS:       []string{"elevenlabs", "azure"},
			Telephony: []string{"twilio", "plivo"},
		},
		Personas: []persona.Persona{
			{ID: "p1", VoiceType: "primary", Tone: persona.ToneFriendly, Active: true, BrandSafety: persona.BrandSafety{Approved: true}},
			{ID: "p2", VoiceType: "robot", Tone: "sarcastic", Active: true},
			{ID: "p1"},
			{ID: "p3", EmotionalRange: persona.EmotionalRange{Warmth: 120}},
		},
		Rules: []persona.SelectionRule{
			{ID: "ok", Action: persona.RuleAction{UsePersona: "p1"}},
			{ID: "ghost", Action: persona.RuleAction{UsePersona: "nobody"}},
			{ID: "clock", Conditions: persona.RuleConditions{TimeRange: &persona.TimeRange{Start: "9am", End: "17:00"}}, Action: persona.RuleAction{UsePersona: "p1"}},
			{ID: "days", Conditions: persona.RuleConditions{DaysOfWeek: []string{"mon", "funday"}}, Action: persona.RuleAction{UsePersona: "p1"}},
			{ID: "attempt", Conditions: persona.RuleConditions{CallAttempt: &attempt}, Action: persona.RuleAction{UsePersona: "p1"}},
			{Action: persona.RuleAction{}},
		},
		Quotas:      Quotas{VendorRPS: -1},
		CustomVoice: &CustomVoice{Endpoint: "https://voice.acme.test"},
		Settings:    map[string]interface{}{SettingTierTimeout: "soon"},
	}

	warnings := cfg.Validate()
	joined := strings.Join(warnings, "\n")

	expected := []string{
		"providers.tts: unknown provider 'azure'",
		"providers.telephony: unknown provider 'plivo'",
		"persona p2: voice type 'robot' is not mapped",
		"persona p2: unknown tone 'sarcastic'",
		"persona p2: active but not brand-safety approved",
		"persona p1: duplicate id",
		"persona p3: emotional_range.warmth must be between 0 and 100",
		"rule ghost: unknown persona 'nobody'",
		"rule clock: invalid time range 9am-17:00",
		"rule days: unknown day 'funday'",
		"rule attempt: call_attempt must be at least 1",
		"rule (unnamed): action.use_persona is empty",
		"quotas.vendor_rps must not be negative",
		"custom_voice: endpoint is set but feature 'custom_voice' is off",
		"config.tier_timeout: invalid value soon",
	}
	for _, want := range expected {
		assert.Contains(t, joined, want)
	}
	assert.NotContains(t, joined, "rule ok:")
	assert.NotContains(t, joined, "'mon'")
}

func TestConfig_ValidateClean(t *testing.T) {
	cfg := &Config{
		Providers: Providers{TTS: []string{"polly"}, Telephony: []string{"telnyx"}},
		Personas: []persona.Persona{
			{ID: "p1", VoiceType: "Spanish", Tone: persona.ToneEmpathetic, Active: true, BrandSafety: persona.BrandSafety{Approved: true}},
		},
		Rules: []persona.SelectionRule{
			{ID: "night", Conditions: persona.RuleConditions{TimeRange: &persona.TimeRange{Start: "22:00", End: "06:00"}}, Action: persona.RuleAction{UsePersona: "p1"}},
		},
	}

	require.Empty(t, cfg.Validate())
	assert.Empty(t, (*Config)(nil).Validate())
}
