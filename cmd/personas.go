package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daikw/callpersona/internal/persona"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func callContextFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "call-type",
			Usage: "Call type, e.g. outbound_reminder, inbound_support",
		},
		&cli.StringFlag{
			Name:  "segment",
			Usage: "Customer segment",
		},
		&cli.StringFlag{
			Name:  "department",
			Usage: "Department handling the call",
		},
		&cli.StringFlag{
			Name:  "language",
			Usage: "Call language",
		},
		&cli.StringFlag{
			Name:  "time-of-day",
			Usage: "Time-of-day bucket: morning, afternoon, evening",
		},
		&cli.BoolFlag{
			Name:  "vip",
			Usage: "Customer is a VIP",
		},
		&cli.IntFlag{
			Name:  "attempt",
			Usage: "Call attempt number",
		},
		&cli.StringSliceFlag{
			Name:  "tag",
			Usage: "Customer tag (repeatable)",
		},
		&cli.StringFlag{
			Name:  "lead-source",
			Usage: "Customer lead source",
		},
		&cli.StringFlag{
			Name:  "previous-outcome",
			Usage: "Outcome of the previous call",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the selection as JSON",
		},
	}
}

// callContextFromFlags builds the call context described by callContextFlags
func callContextFromFlags(c *cli.Command) persona.CallContext {
	cc := persona.CallContext{
		CallType:        c.String("call-type"),
		CustomerSegment: c.String("segment"),
		Department:      c.String("department"),
		Language:        c.String("language"),
		TimeOfDay:       c.String("time-of-day"),
		IsVIP:           c.Bool("vip"),
		CallAttempt:     int(c.Int("attempt")),
	}

	tags := c.StringSlice("tag")
	if len(tags) > 0 || c.String("lead-source") != "" || c.String("previous-outcome") != "" {
		cc.CustomerHistory = &persona.CustomerHistory{
			Tags:            tags,
			LeadSource:      c.String("lead-source"),
			PreviousOutcome: c.String("previous-outcome"),
		}
	}
	return cc
}

func handlePersonas(ctx context.Context, c *cli.Command) error {
	tenantID := c.Args().Get(0)

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	e, err := rt.engine(ctx, tenantID)
	if err != nil {
		return err
	}

	personas := e.Registry().Personas()
	if len(personas) == 0 {
		fmt.Printf("No personas configured for %s\n", tenantID)
		return nil
	}

	eligible := color.New(color.FgGreen)
	ineligible := color.New(color.FgHiBlack)

	fmt.Printf("🎭 Personas for %s:\n", e.TenantID())
	for _, p := range personas {
		mark := eligible.Sprint("✓")
		line := fmt.Sprintf("%s (%s, voice %s, health %.0f)", p.ID, p.Tone, p.VoiceType, p.Health.Overall)
		if !p.Eligible() {
			mark = ineligible.Sprint("✗")
			line = ineligible.Sprint(line + " " + ineligibleReason(p))
		}
		fmt.Printf("  %s %s\n", mark, line)
	}

	rules := e.Registry().Rules()
	if len(rules) > 0 {
		fmt.Println()
		fmt.Println("📋 Rules (evaluation order):")
		for _, r := range rules {
			fmt.Printf("  %3d  %s → %s\n", r.Priority, r.ID, r.Action.UsePersona)
		}
	}
	return nil
}

func ineligibleReason(p persona.Persona) string {
	var reasons []string
	if !p.Active {
		reasons = append(reasons, "inactive")
	}
	if !p.BrandSafety.Approved {
		reasons = append(reasons, "not approved")
	}
	return "[" + strings.Join(reasons, ", ") + "]"
}

func handleSelect(ctx context.Context, c *cli.Command) error {
	tenantID := c.Args().Get(0)

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	e, err := rt.engine(ctx, tenantID)
	if err != nil {
		return err
	}

	sel := e.SelectPersona(callContextFromFlags(c))

	if c.Bool("json") {
		return printJSON(sel)
	}

	if !sel.Found() {
		color.Yellow("No eligible persona for this call")
		return nil
	}

	fmt.Printf("🎭 %s (%s)\n", color.New(color.Bold).Sprint(sel.Persona.ID), sel.Persona.Name)
	switch sel.Source {
	case persona.SourceRule:
		fmt.Printf("   matched rule %s\n", sel.RuleID)
		if sel.ContextMessage != "" {
			fmt.Printf("   context: %s\n", sel.ContextMessage)
		}
		if sel.EscalationTrigger != "" {
			fmt.Printf("   escalation: %s\n", sel.EscalationTrigger)
		}
	default:
		fmt.Printf("   score %.0f\n", sel.Score)
	}
	return nil
}

func handleReselect(ctx context.Context, c *cli.Command) error {
	tenantID := c.Args().Get(0)

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	e, err := rt.engine(ctx, tenantID)
	if err != nil {
		return err
	}

	var current *persona.Persona
	if id := c.String("current"); id != "" {
		p, ok := e.Registry().Lookup(id)
		if !ok {
			return fmt.Errorf("persona %s not found for tenant %s", id, e.TenantID())
		}
		current = &p
	}

	ev := persona.CallEvent{Type: persona.EventType(c.String("event"))}
	next, switched := e.ReselectOnEvent(current, ev)

	if c.Bool("json") {
		out := struct {
			Switched bool             `json:"switched"`
			Persona  *persona.Persona `json:"persona,omitempty"`
		}{Switched: switched}
		if switched {
			out.Persona = &next
		}
		return printJSON(out)
	}

	if !switched {
		fmt.Println("Keeping the current persona")
		return nil
	}
	fmt.Printf("🔀 Switch to %s (%s, %s)\n", color.New(color.Bold).Sprint(next.ID), next.Name, next.Tone)
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
