package events

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/daikw/callpersona"

// MetricsObserver turns events into OpenTelemetry counters and a tier latency histogram
type MetricsObserver struct {
	selections metric.Int64Counter
	switches   metric.Int64Counter
	tiers      metric.Int64Counter
	fallbacks  metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewMetricsObserver creates instruments on the given meter provider,
// or the global one when mp is nil.
func NewMetricsObserver(mp metric.MeterProvider) (*MetricsObserver, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	var (
		o   MetricsObserver
		err error
	)

	if o.selections, err = meter.Int64Counter("callpersona.persona.selections",
		metric.WithDescription("Persona selections by source")); err != nil {
		return nil, fmt.Errorf("failed to create selections counter: %w", err)
	}
	if o.switches, err = meter.Int64Counter("callpersona.persona.switches",
		metric.WithDescription("Mid-call persona switches by event")); err != nil {
		return nil, fmt.Errorf("failed to create switches counter: %w", err)
	}
	if o.tiers, err = meter.Int64Counter("callpersona.synthesis.attempts",
		metric.WithDescription("Synthesis tier attempts by tier and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create attempts counter: %w", err)
	}
	if o.fallbacks, err = meter.Int64Counter("callpersona.synthesis.fallbacks",
		metric.WithDescription("Synthesis requests that ended on text fallback")); err != nil {
		return nil, fmt.Errorf("failed to create fallbacks counter: %w", err)
	}
	if o.duration, err = meter.Float64Histogram("callpersona.synthesis.tier.duration",
		metric.WithDescription("Synthesis tier latency"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &o, nil
}

func (o *MetricsObserver) Observe(e Event) {
	ctx := context.Background()
	tenant := attribute.String("tenant", e.TenantID)

	switch e.Kind {
	case KindPersonaSelected:
		o.selections.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("source", e.Reason)))
	case KindPersonaSwitched:
		o.switches.Add(ctx, 1, metric.WithAttributes(tenant, attribute.String("event", e.Reason)))
	case KindTierSucceeded, KindTierFailed:
		outcome := "success"
		if e.Kind == KindTierFailed {
			outcome = "failure"
		}
		attrs := metric.WithAttributes(tenant,
			attribute.String("tier", e.Tier),
			attribute.String("outcome", outcome))
		o.tiers.Add(ctx, 1, attrs)
		o.duration.Record(ctx, e.Duration.Seconds(), attrs)
	case KindFallbackUsed:
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(tenant))
	}
}
