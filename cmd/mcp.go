package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/daikw/callpersona/internal/persona"
	"github.com/daikw/callpersona/internal/voice"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func handleMCP(ctx context.Context, _ *cli.Command) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	s := newMCPServer(rt, version)

	log.Info().Str("tenants_dir", rt.loader.Dir()).Msg("Serving MCP tools on stdio")
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}

func newMCPServer(rt *runtime, version string) *server.MCPServer {
	s := server.NewMCPServer("callpersona", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("list_tenants",
		mcp.WithDescription("List the configured tenant ids"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := rt.loader.List()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(ids)
	})

	s.AddTool(mcp.NewTool("reload_tenants",
		mcp.WithDescription("Drop cached tenant configurations so edited files take effect"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rt.pool.Purge()
		return mcp.NewToolResultText("reloaded"), nil
	})

	s.AddTool(mcp.NewTool("select_persona",
		mcp.WithDescription("Select the persona for a call from the tenant's rules and persona scores"),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant id")),
		mcp.WithString("call_type", mcp.Description("Call type, e.g. outbound_reminder")),
		mcp.WithString("customer_segment", mcp.Description("Customer segment")),
		mcp.WithString("department", mcp.Description("Department")),
		mcp.WithString("language", mcp.Description("Call language")),
		mcp.WithString("time_of_day", mcp.Description("morning, afternoon or evening")),
		mcp.WithBoolean("is_vip", mcp.Description("Customer is a VIP")),
		mcp.WithNumber("call_attempt", mcp.Description("Call attempt number")),
		mcp.WithArray("customer_tags", mcp.WithStringItems(), mcp.Description("Customer tags")),
		mcp.WithString("lead_source", mcp.Description("Customer lead source")),
		mcp.WithString("previous_outcome", mcp.Description("Outcome of the previous call")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		e, err := rt.engine(ctx, tenantID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cc := persona.CallContext{
			CallType:        req.GetString("call_type", ""),
			CustomerSegment: req.GetString("customer_segment", ""),
			Department:      req.GetString("department", ""),
			Language:        req.GetString("language", ""),
			TimeOfDay:       req.GetString("time_of_day", ""),
			IsVIP:           req.GetBool("is_vip", false),
			CallAttempt:     int(req.GetFloat("call_attempt", 0)),
		}
		history := persona.CustomerHistory{
			Tags:            req.GetStringSlice("customer_tags", nil),
			LeadSource:      req.GetString("lead_source", ""),
			PreviousOutcome: req.GetString("previous_outcome", ""),
		}
		if len(history.Tags) > 0 || history.LeadSource != "" || history.PreviousOutcome != "" {
			cc.CustomerHistory = &history
		}
		return jsonResult(e.SelectPersona(cc))
	})

	s.AddTool(mcp.NewTool("reselect_persona",
		mcp.WithDescription("Return the persona a mid-call event switches to"),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant id")),
		mcp.WithString("event", mcp.Required(), mcp.Description("Call event type"),
			mcp.Enum(
				string(persona.EventKeyMoment),
				string(persona.EventObjectionHandling),
				string(persona.EventClosingAttempt),
				string(persona.EventComplaintEscalation),
			)),
		mcp.WithString("current_persona", mcp.Description("Id of the active persona")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		event, err := req.RequireString("event")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		e, err := rt.engine(ctx, tenantID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var current *persona.Persona
		if id := req.GetString("current_persona", ""); id != "" {
			p, ok := e.Registry().Lookup(id)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("persona %s not found", id)), nil
			}
			current = &p
		}

		next, switched := e.ReselectOnEvent(current, persona.CallEvent{Type: persona.EventType(event)})
		if !switched {
			return mcp.NewToolResultText("no switch"), nil
		}
		return jsonResult(next)
	})

	s.AddTool(mcp.NewTool("speak",
		mcp.WithDescription("Synthesize text for a tenant and return the playback command"),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to speak")),
		mcp.WithString("persona", mcp.Description("Id of the persona to speak as")),
		mcp.WithString("voice_type", mcp.Description("Voice type override")),
		mcp.WithString("language", mcp.Description("Language override")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		e, err := rt.engine(ctx, tenantID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var active *persona.Persona
		if id := req.GetString("persona", ""); id != "" {
			p, ok := e.Registry().Lookup(id)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("persona %s not found", id)), nil
			}
			active = &p
		}

		speech, err := e.Speak(ctx, text, active, voice.VoiceConfig{
			VoiceType: req.GetString("voice_type", ""),
			Language:  req.GetString("language", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(speech)
	})

	return s
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
