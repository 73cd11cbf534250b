package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func handleTenants(ctx context.Context, c *cli.Command) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if id := c.Args().Get(0); id != "" {
		cfg, err := rt.loader.Load(id)
		if err != nil {
			return err
		}
		if cfg.Fallback {
			color.Yellow("⚠️  No configuration for %s, showing the default tenant", id)
		}
		data, err := json.MarshalIndent(cfg.MaskSecrets(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tenant: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	ids, err := rt.loader.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("No tenants found in %s\n", rt.loader.Dir())
		return nil
	}

	bold := color.New(color.Bold)
	fmt.Println("🏢 Tenants:")
	for _, id := range ids {
		cfg, err := rt.loader.Load(id)
		if err != nil {
			color.Red("  ✗ %s: %v", id, err)
			continue
		}
		tts := "-"
		if len(cfg.Providers.TTS) > 0 {
			tts = strings.Join(cfg.Providers.TTS, ",")
		}
		custom := ""
		if cfg.CustomVoiceEnabled() {
			custom = " +custom voice"
		}
		fmt.Printf("  %s  %s (%d personas, %d rules, tts: %s%s, telephony: %s)\n",
			bold.Sprint(id), cfg.Name, len(cfg.Personas), len(cfg.Rules), tts, custom, cfg.Telephony())
	}
	return nil
}
