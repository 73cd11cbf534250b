package voice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daikw/callpersona/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTierTimeout bounds a single tier attempt
const DefaultTierTimeout = 10 * time.Second

// Orchestrator runs the synthesis cascade: tenant custom voice, then a
// vendor, then the local text fallback which always succeeds.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	custom   Tier
	vendor   Tier
	timeout  time.Duration
	observer events.Observer
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithCustomVoice sets the tenant custom voice tier
func WithCustomVoice(t Tier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.custom = t
	}
}

// WithVendor sets the secondary vendor tier
func WithVendor(t Tier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.vendor = t
	}
}

// WithTierTimeout sets the per-tier timeout
func WithTierTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithEventObserver sets the receiver of cascade events
func WithEventObserver(obs events.Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewOrchestrator creates an orchestrator. Tiers left unset are skipped.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		timeout:  DefaultTierTimeout,
		observer: events.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tiers returns the names of the configured tiers in cascade order
func (o *Orchestrator) Tiers() []string {
	var names []string
	for _, t := range o.upstream() {
		names = append(names, t.tier.Name())
	}
	return append(names, TierLocal)
}

type upstreamTier struct {
	tier   Tier
	custom bool
}

func (o *Orchestrator) upstream() []upstreamTier {
	var tiers []upstreamTier
	if o.custom != nil {
		tiers = append(tiers, upstreamTier{tier: o.custom, custom: true})
	}
	if o.vendor != nil {
		tiers = append(tiers, upstreamTier{tier: o.vendor})
	}
	return tiers
}

// Synthesize produces audio for text or falls back to returning the text.
// The returned error is only set for caller mistakes (empty text, missing
// tenant); provider failures never surface as errors.
func (o *Orchestrator) Synthesize(ctx context.Context, text string, cfg VoiceConfig) (*SynthesisResult, error) {
	result := &SynthesisResult{
		RequestID: uuid.NewString(),
		VoiceType: cfg.ResolvedVoiceType(),
		Language:  cfg.ResolvedLanguage(),
	}

	if strings.TrimSpace(text) == "" {
		result.Error = ErrEmptyText.Error()
		return result, ErrEmptyText
	}
	if strings.TrimSpace(cfg.TenantID) == "" {
		result.Error = ErrMissingTenant.Error()
		return result, ErrMissingTenant
	}

	hint := VoiceHint{
		TenantID:  cfg.TenantID,
		VoiceType: result.VoiceType,
		Language:  result.Language,
	}

	for _, up := range o.upstream() {
		tier := up.tier
		if err := ctx.Err(); err != nil {
			log.Debug().
				Err(err).
				Str("request_id", result.RequestID).
				Str("tenant", cfg.TenantID).
				Msg("Synthesis cancelled, skipping remaining tiers")
			break
		}

		start := time.Now()
		res, err := o.attempt(ctx, tier, text, hint)
		elapsed := time.Since(start)

		if err == nil && res.OK && res.AudioLocation != "" {
			result.AudioURL = res.AudioLocation
			result.Tier = tier.Name()
			result.Provider = res.Provider
			result.Attempts = append(result.Attempts, TierAttempt{Tier: tier.Name(), Provider: res.Provider, Duration: elapsed})
			if up.custom {
				result.IsCustomVoice = true
				result.CustomVoiceSucceeded = true
			} else {
				result.VendorSucceeded = true
			}
			o.emit(events.Event{
				Kind:      events.KindTierSucceeded,
				RequestID: result.RequestID,
				TenantID:  cfg.TenantID,
				Tier:      tier.Name(),
				Provider:  res.Provider,
				Duration:  elapsed,
			})
			return result, nil
		}

		if err == nil {
			err = fmt.Errorf("no audio location in response")
		}
		result.Attempts = append(result.Attempts, TierAttempt{
			Tier:     tier.Name(),
			Provider: res.Provider,
			Error:    err.Error(),
			Duration: elapsed,
		})
		log.Warn().
			Err(err).
			Str("request_id", result.RequestID).
			Str("tenant", cfg.TenantID).
			Str("tier", tier.Name()).
			Str("provider", res.Provider).
			Dur("elapsed", elapsed).
			Msg("Synthesis tier failed")
		o.emit(events.Event{
			Kind:      events.KindTierFailed,
			RequestID: result.RequestID,
			TenantID:  cfg.TenantID,
			Tier:      tier.Name(),
			Provider:  res.Provider,
			Error:     err.Error(),
			Duration:  elapsed,
		})
	}

	result.FallbackText = text
	result.Tier = TierLocal
	o.emit(events.Event{
		Kind:      events.KindFallbackUsed,
		RequestID: result.RequestID,
		TenantID:  cfg.TenantID,
		Tier:      TierLocal,
	})
	return result, nil
}

type attemptOutcome struct {
	res AttemptResult
	err error
}

// attempt runs one tier under the per-tier timeout. A tier that ignores its
// context is abandoned when the deadline passes.
func (o *Orchestrator) attempt(ctx context.Context, tier Tier, text string, hint VoiceHint) (AttemptResult, error) {
	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan attemptOutcome, 1)
	go func() {
		res, err := tier.Attempt(tctx, text, hint)
		done <- attemptOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-tctx.Done():
		return AttemptResult{}, fmt.Errorf("%s tier: %w", tier.Name(), tctx.Err())
	}
}

func (o *Orchestrator) emit(e events.Event) {
	e.Time = time.Now()
	o.observer.Observe(e)
}
