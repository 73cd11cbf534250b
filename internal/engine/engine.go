package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daikw/callpersona/internal/events"
	"github.com/daikw/callpersona/internal/persona"
	"github.com/daikw/callpersona/internal/tenant"
	"github.com/daikw/callpersona/internal/voice"
	"github.com/daikw/callpersona/internal/voice/provider"
	"github.com/rs/zerolog/log"
)

// ErrTenantMismatch is returned when a voice config names a tenant other than the engine's
var ErrTenantMismatch = errors.New("voice config belongs to another tenant")

// VendorFactory builds the vendor provider from a tenant's preference list
type VendorFactory interface {
	FirstAvailable(ctx context.Context, names []string, configs map[string]map[string]interface{}) (provider.Provider, []error)
}

// Engine serves one tenant: persona selection, synthesis and playback commands
type Engine struct {
	tenant       *tenant.Config
	registry     *persona.Registry
	selector     *persona.Selector
	orchestrator *voice.Orchestrator
	vendor       string
}

type options struct {
	audioDir     string
	audioBaseURL string
	audioFormat  string
	cacheTTL     time.Duration
	tierTimeout  time.Duration
	observer     events.Observer
	clock        func() time.Time
	factory      VendorFactory
	store        voice.AudioStore
	cache        *voice.AudioCache
}

// Option configures an Engine
type Option func(*options)

// WithAudioDir sets where vendor audio is written and the URL it is served from
func WithAudioDir(dir, baseURL string) Option {
	return func(o *options) {
		o.audioDir = dir
		o.audioBaseURL = baseURL
	}
}

// WithAudioStore replaces the file store
func WithAudioStore(s voice.AudioStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithAudioFormat sets the format requested from vendors
func WithAudioFormat(format string) Option {
	return func(o *options) {
		o.audioFormat = format
	}
}

// WithCacheTTL enables reuse of vendor audio for ttl
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithSharedCache makes engines share one audio cache
func WithSharedCache(c *voice.AudioCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithTierTimeout bounds each cascade tier
func WithTierTimeout(d time.Duration) Option {
	return func(o *options) {
		o.tierTimeout = d
	}
}

// WithObserver receives selection and synthesis events
func WithObserver(obs events.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithClock sets the time used for time-of-day and day-of-week rules
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithVendorFactory replaces the vendor provider factory
func WithVendorFactory(f VendorFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// New wires an engine for cfg
func New(ctx context.Context, cfg *tenant.Config, opts ...Option) (*Engine, error) {
	if cfg == nil || cfg.ID == "" {
		return nil, voice.ErrMissingTenant
	}

	o := &options{
		audioDir:     "./audio",
		audioBaseURL: "http://localhost:8080/audio",
		audioFormat:  provider.FormatMP3,
		tierTimeout:  voice.DefaultTierTimeout,
		observer:     events.Nop(),
		clock:        time.Now,
		factory:      provider.NewFactory(),
	}
	for _, opt := range opts {
		opt(o)
	}

	registry := persona.NewRegistry()
	if err := registry.Load(cfg.Personas, cfg.Rules); err != nil {
		return nil, fmt.Errorf("failed to load personas for tenant %s: %w", cfg.ID, err)
	}

	e := &Engine{
		tenant:   cfg,
		registry: registry,
		selector: persona.NewSelector(registry,
			persona.WithClock(o.clock),
			persona.WithObserver(o.observer),
			persona.WithTenant(cfg.ID),
		),
	}

	tierTimeout := o.tierTimeout
	if d := cfg.TierTimeout(); d > 0 {
		tierTimeout = d
	}

	orchOpts := []voice.OrchestratorOption{
		voice.WithTierTimeout(tierTimeout),
		voice.WithEventObserver(o.observer),
	}
	if cfg.CustomVoiceEnabled() {
		orchOpts = append(orchOpts, voice.WithCustomVoice(
			voice.NewCustomVoiceTier(cfg.CustomVoice.Endpoint, cfg.CustomVoice.APIKey),
		))
	}
	if tier := e.vendorTier(ctx, o); tier != nil {
		orchOpts = append(orchOpts, voice.WithVendor(tier))
	}
	e.orchestrator = voice.NewOrchestrator(orchOpts...)

	log.Debug().
		Str("tenant", cfg.ID).
		Int("personas", registry.Len()).
		Strs("tiers", e.orchestrator.Tiers()).
		Msg("Engine ready")

	return e, nil
}

func (e *Engine) vendorTier(ctx context.Context, o *options) voice.Tier {
	if len(e.tenant.Providers.TTS) == 0 {
		return nil
	}

	p, errs := o.factory.FirstAvailable(ctx, e.tenant.Providers.TTS, e.tenant.ProviderSettings)
	for _, err := range errs {
		log.Debug().Err(err).Str("tenant", e.tenant.ID).Msg("Vendor provider unavailable")
	}
	if p == nil {
		log.Warn().
			Str("tenant", e.tenant.ID).
			Strs("providers", e.tenant.Providers.TTS).
			Msg("No vendor provider could be created, synthesis will use custom voice and text fallback only")
		return nil
	}
	e.vendor = p.Name()

	store := o.store
	if store == nil {
		store = voice.NewFileStore(o.audioDir, o.audioBaseURL)
	}

	format := o.audioFormat
	if e.tenant.Voice.Format != "" {
		format = e.tenant.Voice.Format
	}

	vendorOpts := []voice.VendorOption{
		voice.WithAudioFormat(format),
		voice.WithRateLimit(e.tenant.Quotas.VendorRPS, e.tenant.Quotas.VendorBurst),
	}
	cache := o.cache
	if cache == nil && o.cacheTTL > 0 {
		cache = voice.NewAudioCache(o.cacheTTL)
	}
	if cache != nil {
		vendorOpts = append(vendorOpts, voice.WithAudioCache(cache))
	}

	return voice.NewVendorTier(p, store, vendorOpts...)
}

// TenantID returns the tenant served by the engine
func (e *Engine) TenantID() string {
	return e.tenant.ID
}

// Tenant returns the tenant configuration
func (e *Engine) Tenant() *tenant.Config {
	return e.tenant
}

// Registry returns the tenant's persona registry
func (e *Engine) Registry() *persona.Registry {
	return e.registry
}

// Tiers returns the cascade tiers in order
func (e *Engine) Tiers() []string {
	return e.orchestrator.Tiers()
}

// Vendor returns the vendor provider name, empty if there is none
func (e *Engine) Vendor() string {
	return e.vendor
}

// LoadPersonas replaces the tenant's personas and rules. Readers see either
// the old or the new set.
func (e *Engine) LoadPersonas(personas []persona.Persona, rules []persona.SelectionRule) error {
	return e.registry.Load(personas, rules)
}

// ApplyHealth rescores every persona with scorer
func (e *Engine) ApplyHealth(ctx context.Context, scorer persona.HealthScorer) error {
	return e.registry.ApplyHealth(ctx, scorer)
}

// SelectPersona picks a persona for the call
func (e *Engine) SelectPersona(cc persona.CallContext) persona.Selection {
	return e.selector.SelectPersona(cc)
}

// ReselectOnEvent returns the persona to switch to, if any
func (e *Engine) ReselectOnEvent(current *persona.Persona, ev persona.CallEvent) (persona.Persona, bool) {
	return e.selector.ReselectOnEvent(current, ev)
}

// VoiceConfig resolves the voice for the active persona. override values win.
func (e *Engine) VoiceConfig(active *persona.Persona, override voice.VoiceConfig) voice.VoiceConfig {
	personaVoice := ""
	if active != nil {
		personaVoice = active.VoiceType
	}
	return voice.Resolve(e.tenant.ID, override, personaVoice, &e.tenant.Voice)
}

// Synthesize runs the synthesis cascade for text. An empty cfg.TenantID means
// the engine's tenant; any other tenant is ErrTenantMismatch.
func (e *Engine) Synthesize(ctx context.Context, text string, cfg voice.VoiceConfig) (*voice.SynthesisResult, error) {
	if cfg.TenantID == "" {
		cfg.TenantID = e.tenant.ID
	}
	if cfg.TenantID != e.tenant.ID {
		log.Warn().
			Str("tenant", e.tenant.ID).
			Str("requested_tenant", cfg.TenantID).
			Msg("Rejected synthesis for another tenant")
		return &voice.SynthesisResult{
			VoiceType: cfg.ResolvedVoiceType(),
			Language:  cfg.ResolvedLanguage(),
			Error:     ErrTenantMismatch.Error(),
		}, ErrTenantMismatch
	}
	return e.orchestrator.Synthesize(ctx, text, cfg)
}

// BuildCommand turns a synthesis result into a playback command
func (e *Engine) BuildCommand(result *voice.SynthesisResult, cfg voice.VoiceConfig, fallbackText string) voice.PlaybackCommand {
	return voice.BuildCommand(result, cfg, fallbackText)
}

// Speech is the outcome of Speak
type Speech struct {
	Result   *voice.SynthesisResult `json:"result"`
	Command  voice.PlaybackCommand  `json:"command"`
	Rendered string                 `json:"rendered"`
}

// Speak synthesizes text in the active persona's voice and renders the
// playback command for the tenant's telephony provider
func (e *Engine) Speak(ctx context.Context, text string, active *persona.Persona, override voice.VoiceConfig) (*Speech, error) {
	cfg := e.VoiceConfig(active, override)

	result, err := e.Synthesize(ctx, text, cfg)
	if err != nil {
		return nil, err
	}

	cmd := e.BuildCommand(result, cfg, text)
	rendered, _, err := voice.Render(cmd, e.tenant.Telephony())
	if err != nil {
		return nil, fmt.Errorf("failed to render playback command: %w", err)
	}

	return &Speech{Result: result, Command: cmd, Rendered: string(rendered)}, nil
}
