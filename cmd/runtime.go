package main

import (
	"context"
	"fmt"
	"time"

	"github.com/daikw/callpersona/internal/config"
	"github.com/daikw/callpersona/internal/engine"
	"github.com/daikw/callpersona/internal/events"
	"github.com/daikw/callpersona/internal/tenant"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// runtime holds everything a command needs to serve tenants
type runtime struct {
	cfg    *config.Config
	loader *tenant.Loader
	pool   *engine.Pool
	reader *sdkmetric.ManualReader
	meters *sdkmetric.MeterProvider
	conn   *nats.Conn
}

func newRuntime() (*runtime, error) {
	cfg := appConfig
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}

	rt := &runtime{
		cfg:    cfg,
		loader: tenant.NewLoader(cfg.TenantsDir),
		reader: sdkmetric.NewManualReader(),
	}
	rt.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(rt.reader))

	observers := events.Multi{events.NewLogObserver(&log.Logger)}

	metrics, err := events.NewMetricsObserver(rt.meters)
	if err != nil {
		return nil, err
	}
	observers = append(observers, metrics)

	if cfg.Events.NATSURL != "" {
		conn, err := events.ConnectNATS(cfg.Events.NATSURL, 5*time.Second)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.Events.NATSURL).Msg("Event publishing disabled")
		} else {
			rt.conn = conn
			observers = append(observers, events.NewNATSObserver(conn, cfg.Events.SubjectPrefix))
		}
	}

	rt.pool = engine.NewPool(rt.loader,
		engine.WithAudioDir(cfg.Audio.Dir, cfg.Audio.BaseURL),
		engine.WithAudioFormat(cfg.Audio.Format),
		engine.WithCacheTTL(cfg.Audio.CacheTTL),
		engine.WithTierTimeout(cfg.Synthesis.TierTimeout),
		engine.WithObserver(observers),
	)

	return rt, nil
}

func (rt *runtime) engine(ctx context.Context, tenantID string) (*engine.Engine, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	return rt.pool.Get(ctx, tenantID)
}

func (rt *runtime) Close(ctx context.Context) {
	if rt.conn != nil {
		if err := rt.conn.Drain(); err != nil {
			log.Debug().Err(err).Msg("Failed to drain NATS connection")
		}
	}
	if err := rt.meters.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to shut down meter provider")
	}
}
