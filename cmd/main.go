package main

import (
	"context"
	"fmt"
	"os"

	"github.com/daikw/callpersona/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "callpersona",
		Usage: "Persona selection and voice synthesis for multi-tenant call handling",
		Description: `callpersona picks the voice persona for a call from a tenant's personas and
selection rules, switches persona on call events, and produces audio through the
tenant's custom voice, a vendor, or the telephony provider's own speech.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to callpersona.yaml (default: search ., ./configs, /etc/callpersona)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: console, json (overrides config)",
			},
			&cli.StringFlag{
				Name:  "tenants-dir",
				Usage: "Directory with tenant configurations (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "tenants",
				Usage:     "List tenants, or show one tenant's configuration",
				Action:    handleTenants,
				Aliases:   []string{"t"},
				ArgsUsage: "[tenant]",
			},
			{
				Name:      "personas",
				Usage:     "List a tenant's personas and selection rules",
				Action:    handlePersonas,
				Aliases:   []string{"ls"},
				ArgsUsage: "<tenant>",
			},
			{
				Name:      "select",
				Usage:     "Select the persona for a call",
				Action:    handleSelect,
				ArgsUsage: "<tenant>",
				Flags:     callContextFlags(),
			},
			{
				Name:      "reselect",
				Usage:     "Show the persona a call event switches to",
				Action:    handleReselect,
				ArgsUsage: "<tenant>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "current",
						Usage: "Id of the active persona",
					},
					&cli.StringFlag{
						Name:     "event",
						Usage:    "Call event: key_moment, objection_handling, closing_attempt, complaint_escalation",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
			},
			{
				Name:      "say",
				Usage:     "Synthesize text for a tenant and print the playback command",
				Action:    handleSay,
				ArgsUsage: "<tenant> <text...>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "persona",
						Aliases: []string{"p"},
						Usage:   "Speak as this persona (default: tenant voice defaults)",
					},
					&cli.StringFlag{
						Name:  "voice-type",
						Usage: "Voice type override: primary, sales, support, spanish, custom",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "BCP 47 language tag override",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the synthesis result and command as JSON",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Print collected metrics after synthesis",
					},
				},
			},
			{
				Name:      "validate",
				Usage:     "Check tenant configurations for problems",
				Action:    handleValidate,
				ArgsUsage: "[tenant...]",
			},
			{
				Name:   "mcp",
				Usage:  "Serve persona selection and synthesis as MCP tools over stdio",
				Action: handleMCP,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if f := c.String("log-format"); f != "" {
				cfg.Logging.Format = f
			}
			if c.Bool("verbose") {
				cfg.Logging.Level = "debug"
			}
			if dir := c.String("tenants-dir"); dir != "" {
				cfg.TenantsDir = dir
			}
			config.SetupLogging(cfg.Logging, os.Stderr)
			appConfig = cfg
			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

// appConfig is loaded once before any command runs
var appConfig *config.Config
