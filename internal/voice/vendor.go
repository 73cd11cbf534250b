package voice

import (
	"context"
	"fmt"

	"github.com/daikw/callpersona/internal/voice/provider"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// VendorTier synthesizes with a vendor provider and stores the audio
type VendorTier struct {
	provider provider.Provider
	store    AudioStore
	table    VoiceTable
	format   string
	cache    *AudioCache
	limiter  *rate.Limiter
}

// VendorOption configures a VendorTier
type VendorOption func(*VendorTier)

// WithVoiceTable replaces the built-in voice table of the provider
func WithVoiceTable(t VoiceTable) VendorOption {
	return func(v *VendorTier) {
		v.table = t
	}
}

// WithAudioFormat sets the requested audio format (mp3, wav, mulaw)
func WithAudioFormat(format string) VendorOption {
	return func(v *VendorTier) {
		if format != "" {
			v.format = format
		}
	}
}

// WithAudioCache reuses stored audio for identical requests
func WithAudioCache(c *AudioCache) VendorOption {
	return func(v *VendorTier) {
		v.cache = c
	}
}

// WithRateLimit allows rps vendor requests per second. Cache hits are not
// limited. When the wait would outlast the attempt's deadline the attempt
// fails and the cascade moves on. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) VendorOption {
	return func(v *VendorTier) {
		if rps <= 0 {
			v.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewVendorTier creates a vendor tier for p storing audio in store
func NewVendorTier(p provider.Provider, store AudioStore, opts ...VendorOption) *VendorTier {
	v := &VendorTier{
		provider: p,
		store:    store,
		table:    VendorVoiceTable(p.Name()),
		format:   provider.FormatMP3,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VendorTier) Name() string {
	return TierVendor
}

// Attempt synthesizes text and returns the stored audio location
func (v *VendorTier) Attempt(ctx context.Context, text string, hint VoiceHint) (AttemptResult, error) {
	res := AttemptResult{Provider: v.provider.Name()}

	voiceID, mapped := v.table.Lookup(hint.VoiceType)
	if !mapped {
		log.Debug().
			Str("provider", res.Provider).
			Str("voice_type", hint.VoiceType).
			Str("voice", voiceID).
			Msg("Voice type not mapped, using default voice")
	}

	format := provider.OutputFormat(v.provider, v.format)
	key := CacheKey(hint.TenantID, res.Provider, voiceID, hint.Language, format, text)
	if v.cache != nil {
		if loc, ok := v.cache.Lookup(key); ok {
			log.Debug().Str("provider", res.Provider).Msg("Reusing cached vendor audio")
			res.OK = true
			res.AudioLocation = loc
			return res, nil
		}
	}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("rate limited: %w", err)
		}
	}

	stream, err := v.provider.Synthesize(ctx, text, provider.SynthesizeOptions{
		Voice:  voiceID,
		Format: v.format,
	})
	if err != nil {
		return res, err
	}
	defer stream.Close()

	loc, err := v.store.Put(ctx, hint.TenantID, provider.Extension(format), stream)
	if err != nil {
		return res, fmt.Errorf("failed to store audio: %w", err)
	}

	if v.cache != nil {
		v.cache.Record(key, loc)
	}
	res.OK = true
	res.AudioLocation = loc
	return res, nil
}
