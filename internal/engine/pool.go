package engine

import (
	"context"
	"sync"

	"github.com/daikw/callpersona/internal/tenant"
	"github.com/rs/zerolog/log"
)

// Pool builds engines from tenant configurations on first use
type Pool struct {
	loader  *tenant.Loader
	opts    []Option
	mu      sync.Mutex
	engines map[string]*Engine
	// gen changes on Purge so engines built from purged configs are not cached
	gen uint64
}

// NewPool creates a pool reading tenants from loader
func NewPool(loader *tenant.Loader, opts ...Option) *Pool {
	return &Pool{
		loader:  loader,
		opts:    opts,
		engines: make(map[string]*Engine),
	}
}

// Get returns the engine for tenantID, building it if needed. Building one
// tenant does not block requests for other tenants.
func (p *Pool) Get(ctx context.Context, tenantID string) (*Engine, error) {
	p.mu.Lock()
	e, ok := p.engines[tenantID]
	gen := p.gen
	p.mu.Unlock()
	if ok {
		return e, nil
	}

	cfg, err := p.loader.Load(tenantID)
	if err != nil {
		return nil, err
	}

	e, err = New(ctx, cfg, p.opts...)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.engines[tenantID]; ok {
		return existing, nil
	}
	if gen == p.gen {
		p.engines[tenantID] = e
	}
	return e, nil
}

// Reload rereads the tenant configuration and rebuilds its engine
func (p *Pool) Reload(ctx context.Context, tenantID string) (*Engine, error) {
	cfg, err := p.loader.Reload(tenantID)
	if err != nil {
		return nil, err
	}

	e, err := New(ctx, cfg, p.opts...)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.engines[tenantID] = e
	p.mu.Unlock()

	log.Info().Str("tenant", tenantID).Msg("Reloaded tenant engine")
	return e, nil
}

// Purge drops every cached configuration and engine. Engines are rebuilt
// from the files on next use.
func (p *Pool) Purge() {
	p.loader.Purge()

	p.mu.Lock()
	n := len(p.engines)
	p.engines = make(map[string]*Engine)
	p.gen++
	p.mu.Unlock()

	log.Info().Int("engines", n).Msg("Purged tenant engines")
}

// Tenants lists the configured tenant ids
func (p *Pool) Tenants() ([]string, error) {
	return p.loader.List()
}
