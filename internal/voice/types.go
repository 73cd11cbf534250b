package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Defaults applied when a voice configuration leaves fields empty
const (
	DefaultLanguage  = "en-US"
	DefaultVoiceType = "primary"
)

// Tier names
const (
	TierCustomVoice = "custom_voice"
	TierVendor      = "vendor"
	TierLocal       = "local"
)

var (
	ErrEmptyText     = errors.New("text cannot be empty")
	ErrMissingTenant = errors.New("tenant id is required")
)

// VoiceConfig says who is speaking and how
type VoiceConfig struct {
	TenantID  string `json:"tenant_id" yaml:"tenant_id"`
	VoiceType string `json:"voice_type" yaml:"voice_type"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
}

// ResolvedVoiceType returns the voice type or the default one
func (c VoiceConfig) ResolvedVoiceType() string {
	if vt := strings.TrimSpace(c.VoiceType); vt != "" {
		return strings.ToLower(vt)
	}
	return DefaultVoiceType
}

// ResolvedLanguage returns the canonical BCP 47 language tag
func (c VoiceConfig) ResolvedLanguage() string {
	return CanonicalLanguage(c.Language)
}

// CanonicalLanguage normalizes a language tag ("es-mx" -> "es-MX").
// Empty or unparseable tags yield DefaultLanguage.
func CanonicalLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return DefaultLanguage
	}
	return t.String()
}

// VoiceHint is what a tier gets to pick a voice
type VoiceHint struct {
	TenantID  string
	VoiceType string
	Language  string
}

// AttemptResult is the outcome of one tier attempt. A tier succeeded only if
// OK is set and AudioLocation is not empty.
type AttemptResult struct {
	OK            bool
	AudioLocation string
	Provider      string
}

// Tier is one step of the synthesis cascade.
// Attempt returns an error for transport or protocol failures; the
// orchestrator treats an error exactly like a result that is not OK.
type Tier interface {
	Name() string
	Attempt(ctx context.Context, text string, hint VoiceHint) (AttemptResult, error)
}

// TierAttempt records one failed or successful tier attempt
type TierAttempt struct {
	Tier     string        `json:"tier"`
	Provider string        `json:"provider,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Outcome is the authoritative part of a SynthesisResult
type Outcome string

const (
	OutcomeAudio        Outcome = "audio"
	OutcomeFallbackText Outcome = "fallback_text"
	OutcomeError        Outcome = "error"
)

// SynthesisResult is produced by Orchestrator.Synthesize. Exactly one of
// AudioURL, FallbackText and Error is authoritative; the flags are always set.
type SynthesisResult struct {
	RequestID            string        `json:"request_id"`
	AudioURL             string        `json:"audio_url,omitempty"`
	FallbackText         string        `json:"fallback_text,omitempty"`
	Error                string        `json:"error,omitempty"`
	Tier                 string        `json:"tier,omitempty"`
	Provider             string        `json:"provider,omitempty"`
	VoiceType            string        `json:"voice_type"`
	Language             string        `json:"language"`
	IsCustomVoice        bool          `json:"is_custom_voice"`
	CustomVoiceSucceeded bool          `json:"custom_voice_succeeded"`
	VendorSucceeded      bool          `json:"vendor_succeeded"`
	Attempts             []TierAttempt `json:"attempts,omitempty"`
}

// Outcome reports which field of the result is authoritative
func (r *SynthesisResult) Outcome() Outcome {
	switch {
	case r == nil || r.Error != "":
		return OutcomeError
	case r.AudioURL != "":
		return OutcomeAudio
	default:
		return OutcomeFallbackText
	}
}

// HasAudio reports whether a tier produced playable audio
func (r *SynthesisResult) HasAudio() bool {
	return r.Outcome() == OutcomeAudio
}
