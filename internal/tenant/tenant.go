package tenant

import (
	"fmt"
	"time"

	"github.com/daikw/callpersona/internal/persona"
	"github.com/daikw/callpersona/internal/voice"
)

// DefaultID is the tenant used when a requested tenant has no file
const DefaultID = "default"

// FeatureCustomVoice turns on the tenant's custom voice tier
const FeatureCustomVoice = "custom_voice"

// SettingTierTimeout overrides the per-tier synthesis timeout, e.g. "5s" or 5 (seconds)
const SettingTierTimeout = "tier_timeout"

// Config is one tenant's configuration
type Config struct {
	ID       string            `json:"tenant_id" yaml:"tenant_id"`
	Name     string            `json:"name" yaml:"name"`
	Branding map[string]string `json:"branding,omitempty" yaml:"branding,omitempty"`

	Providers        Providers                         `json:"providers" yaml:"providers"`
	ProviderSettings map[string]map[string]interface{} `json:"provider_settings,omitempty" yaml:"provider_settings,omitempty"`
	CustomVoice      *CustomVoice                      `json:"custom_voice,omitempty" yaml:"custom_voice,omitempty"`

	Features map[string]bool        `json:"features,omitempty" yaml:"features,omitempty"`
	Quotas   Quotas                 `json:"quotas,omitempty" yaml:"quotas,omitempty"`
	Settings map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`

	Voice    voice.Defaults          `json:"voice,omitempty" yaml:"voice,omitempty"`
	Personas []persona.Persona       `json:"personas,omitempty" yaml:"personas,omitempty"`
	Rules    []persona.SelectionRule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Fallback is set when the configuration was borrowed from the default tenant
	Fallback bool `json:"-" yaml:"-"`
}

// Providers lists provider preferences per capability, most preferred first
type Providers struct {
	TTS       []string `json:"tts,omitempty" yaml:"tts,omitempty"`
	STT       []string `json:"stt,omitempty" yaml:"stt,omitempty"`
	LLM       []string `json:"llm,omitempty" yaml:"llm,omitempty"`
	Telephony []string `json:"telephony,omitempty" yaml:"telephony,omitempty"`
}

// CustomVoice is the tenant's own synthesis endpoint
type CustomVoice struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// Quotas limits the tenant's usage
type Quotas struct {
	VendorRPS   float64 `json:"vendor_rps,omitempty" yaml:"vendor_rps,omitempty"`
	VendorBurst int     `json:"vendor_burst,omitempty" yaml:"vendor_burst,omitempty"`
	CallsPerDay int     `json:"calls_per_day,omitempty" yaml:"calls_per_day,omitempty"`
	Concurrent  int     `json:"concurrent_calls,omitempty" yaml:"concurrent_calls,omitempty"`
}

// FeatureEnabled reports whether a feature flag is on
func (c *Config) FeatureEnabled(feature string) bool {
	if c == nil {
		return false
	}
	return c.Features[feature]
}

// Setting returns a free-form config value or def
func (c *Config) Setting(key string, def interface{}) interface{} {
	if c == nil {
		return def
	}
	if v, ok := c.Settings[key]; ok {
		return v
	}
	return def
}

// Telephony returns the preferred telephony provider, "twilio" if none
func (c *Config) Telephony() string {
	if c == nil || len(c.Providers.Telephony) == 0 {
		return "twilio"
	}
	return c.Providers.Telephony[0]
}

// HasCustomVoice reports whether a custom voice endpoint is configured
func (c *Config) HasCustomVoice() bool {
	return c != nil && c.CustomVoice != nil && c.CustomVoice.Endpoint != ""
}

// CustomVoiceEnabled reports whether synthesis should try the custom voice
func (c *Config) CustomVoiceEnabled() bool {
	return c.HasCustomVoice() && c.FeatureEnabled(FeatureCustomVoice)
}

// TierTimeout returns the tenant's tier timeout setting, 0 when unset or invalid
func (c *Config) TierTimeout() time.Duration {
	switch v := c.Setting(SettingTierTimeout, nil).(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return 0
		}
		return d
	case float64:
		if v <= 0 {
			return 0
		}
		return time.Duration(v * float64(time.Second))
	case int:
		if v <= 0 {
			return 0
		}
		return time.Duration(v) * time.Second
	}
	return 0
}

// MaskSecrets returns a copy safe for display.
// For security, only shows that a key is present, not its contents.
func (c *Config) MaskSecrets() *Config {
	if c == nil {
		return nil
	}

	masked := *c
	if c.CustomVoice != nil {
		cv := *c.CustomVoice
		if cv.APIKey != "" {
			cv.APIKey = maskValue(cv.APIKey)
		}
		masked.CustomVoice = &cv
	}

	if c.ProviderSettings != nil {
		masked.ProviderSettings = make(map[string]map[string]interface{}, len(c.ProviderSettings))
		for name, settings := range c.ProviderSettings {
			m := make(map[string]interface{}, len(settings))
			for k, v := range settings {
				if s, ok := v.(string); ok && isSecretKey(k) && s != "" {
					v = maskValue(s)
				}
				m[k] = v
			}
			masked.ProviderSettings[name] = m
		}
	}
	return &masked
}

func maskValue(s string) string {
	return fmt.Sprintf("[set, %d chars]", len(s))
}

func isSecretKey(k string) bool {
	switch k {
	case "api_key", "secret", "secret_key", "token", "credentials":
		return true
	}
	return false
}
