package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daikw/callpersona/internal/engine"
	"github.com/daikw/callpersona/internal/persona"
	"github.com/daikw/callpersona/internal/voice"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func handleSay(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("usage: callpersona say <tenant> <text...>")
	}
	tenantID := args[0]
	text := strings.Join(args[1:], " ")

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	e, err := rt.engine(ctx, tenantID)
	if err != nil {
		return err
	}

	var active *persona.Persona
	if id := c.String("persona"); id != "" {
		p, ok := e.Registry().Lookup(id)
		if !ok {
			return fmt.Errorf("persona %s not found for tenant %s", id, e.TenantID())
		}
		active = &p
	}

	override := voice.VoiceConfig{
		VoiceType: c.String("voice-type"),
		Language:  c.String("language"),
	}

	speech, err := e.Speak(ctx, text, active, override)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		if err := printJSON(speech); err != nil {
			return err
		}
	} else {
		printSpeech(speech)
	}

	if c.Bool("stats") {
		var rm metricdata.ResourceMetrics
		if err := rt.reader.Collect(ctx, &rm); err != nil {
			return fmt.Errorf("failed to collect metrics: %w", err)
		}
		printMetrics(rm)
	}
	return nil
}

func printSpeech(s *engine.Speech) {
	r := s.Result
	for _, a := range r.Attempts {
		status := color.GreenString("ok")
		if a.Error != "" {
			status = color.RedString("failed: %s", a.Error)
		}
		fmt.Printf("  %-12s %-10s %6s  %s\n", a.Tier, a.Provider, a.Duration.Round(time.Millisecond), status)
	}

	switch s.Command.Kind {
	case voice.CommandPlay:
		fmt.Printf("🔊 %s (%s)\n", s.Command.AudioURL, s.Command.Provenance)
	default:
		color.Yellow("💬 Text fallback: %s", s.Command.Text)
	}
	fmt.Println()
	fmt.Println(s.Rendered)
}

func printMetrics(rm metricdata.ResourceMetrics) {
	fmt.Println()
	fmt.Println("📊 Metrics:")
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Printf("  %s{%s} %d\n", m.Name, formatAttrs(dp.Attributes), dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					fmt.Printf("  %s{%s} count=%d sum=%.3fs\n", m.Name, formatAttrs(dp.Attributes), dp.Count, dp.Sum)
				}
			}
		}
	}
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		parts = append(parts, fmt.Sprintf("%s=%s", kv.Key, kv.Value.Emit()))
	}
	return strings.Join(parts, ",")
}
