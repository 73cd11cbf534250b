package voice

import "strings"

// Defaults is the tenant-wide voice configuration
type Defaults struct {
	VoiceType string `json:"voice_type,omitempty" yaml:"voice_type,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Resolve merges the voice configuration sources into a VoiceConfig.
//
// Priority (highest → lowest):
//  1. override (explicit request values)
//  2. personaVoiceType (the active persona's voice)
//  3. tenant defaults
//  4. DefaultVoiceType / DefaultLanguage
func Resolve(tenantID string, override VoiceConfig, personaVoiceType string, defaults *Defaults) VoiceConfig {
	cfg := VoiceConfig{
		TenantID:  tenantID,
		VoiceType: DefaultVoiceType,
		Language:  DefaultLanguage,
	}

	if defaults != nil {
		if v := strings.TrimSpace(defaults.VoiceType); v != "" {
			cfg.VoiceType = v
		}
		if v := strings.TrimSpace(defaults.Language); v != "" {
			cfg.Language = v
		}
	}

	if v := strings.TrimSpace(personaVoiceType); v != "" {
		cfg.VoiceType = v
	}

	if v := strings.TrimSpace(override.VoiceType); v != "" {
		cfg.VoiceType = v
	}
	if v := strings.TrimSpace(override.Language); v != "" {
		cfg.Language = v
	}
	if override.TenantID != "" {
		cfg.TenantID = override.TenantID
	}

	cfg.VoiceType = cfg.ResolvedVoiceType()
	cfg.Language = cfg.ResolvedLanguage()
	return cfg
}
