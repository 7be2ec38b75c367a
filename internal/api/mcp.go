package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

const profileURIPrefix = "fitai://profile/"

// NewMCPServer creates an MCP server exposing profile tools and resources.
func NewMCPServer(coach *Coach, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fitai",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("fitai: personal fitness profiles with workout and diet plans. Update profiles from what the user says; plans are regenerated only on request."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Return a fitness profile with BMI and current plans as JSON."),
			mcp.WithString("profile_id", mcp.Description("Profile id"), mcp.Required()),
		),
		mcpGetProfile(coach),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Apply profile changes described in free text, e.g. \"I now weigh 80 kg and want to build muscle\"."),
			mcp.WithString("profile_id", mcp.Description("Profile id"), mcp.Required()),
			mcp.WithString("text", mcp.Description("What changed, in the user's words"), mcp.Required()),
			mcp.WithBoolean("regenerate", mcp.Description("Regenerate plans if anything changed (default false)")),
		),
		mcpUpdateProfile(coach),
	)

	s.AddTool(
		mcp.NewTool("regenerate_plans",
			mcp.WithDescription("Regenerate both the workout and the diet plan from the current profile."),
			mcp.WithString("profile_id", mcp.Description("Profile id"), mcp.Required()),
		),
		mcpRegeneratePlans(coach),
	)

	s.AddResource(
		mcp.NewResource(
			"fitai://profiles",
			"Profiles",
			mcp.WithResourceDescription("Stored profiles (id and name)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(coach),
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			profileURIPrefix+"{id}",
			"Profile",
			mcp.WithTemplateDescription("A profile with BMI and plans as JSON"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		mcpResourceProfile(coach),
	)

	return s
}

func mcpGetProfile(coach *Coach) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("profile_id")
		if err != nil {
			return mcpError("profile_id is required"), nil
		}
		p, err := coach.Profile(ctx, id)
		if err != nil {
			return mcpError(describe(err)), nil
		}
		b, err := json.Marshal(profile.NewSnapshot(p, false))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpUpdateProfile(coach *Coach) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("profile_id")
		if err != nil {
			return mcpError("profile_id is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		regenerate := req.GetBool("regenerate", false)

		res, err := coach.UpdateFromText(ctx, id, text, regenerate)
		if err != nil {
			return mcpError(describe(err)), nil
		}

		var b strings.Builder
		b.WriteString(formatChanges(res.Reconciled))
		for _, r := range res.Reconciled.Rejected {
			fmt.Fprintf(&b, "\nIgnored %s %q: %v", r.Field, r.Raw, r.Reason)
		}
		switch {
		case res.Regenerated:
			b.WriteString("\nPlans regenerated.")
		case res.RegenErr != nil:
			fmt.Fprintf(&b, "\nPlans kept: %v", res.RegenErr)
		}
		return mcpText(b.String()), nil
	}
}

func mcpRegeneratePlans(coach *Coach) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("profile_id")
		if err != nil {
			return mcpError("profile_id is required"), nil
		}
		p, err := coach.Regenerate(ctx, id)
		if err != nil {
			return mcpError(describe(err)), nil
		}
		return mcpText(fmt.Sprintf("## Workout Plan\n\n%s\n\n## Diet Plan\n\n%s", p.Workout.Text, p.Diet.Text)), nil
	}
}

func mcpResourceProfiles(coach *Coach) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		refs, err := coach.Profiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		out := make([]profileRefView, len(refs))
		for i, ref := range refs {
			out[i] = profileRefView{ID: ref.ID, Name: ref.Name, UpdatedAt: ref.UpdatedAt}
		}
		return jsonResource(req.Params.URI, out)
	}
}

func mcpResourceProfile(coach *Coach) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(req.Params.URI, profileURIPrefix)
		if id == "" || id == req.Params.URI {
			return nil, fmt.Errorf("invalid profile uri %q", req.Params.URI)
		}
		p, err := coach.Profile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		return jsonResource(req.Params.URI, profile.NewSnapshot(p, false))
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func formatChanges(res reconcile.Result) string {
	if !res.Changed() {
		return "No profile changes."
	}
	parts := make([]string, len(res.Applied))
	for i, c := range res.Applied {
		parts[i] = fmt.Sprintf("%s: %s -> %s", c.Field, c.From, c.To)
	}
	return "Updated " + strings.Join(parts, ", ") + "."
}

// describe renders an error for a tool result.
func describe(err error) string {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return "profile not found"
	case errors.Is(err, plan.ErrRegeneration):
		return fmt.Sprintf("could not regenerate plans, existing plans kept: %v", err)
	}
	return err.Error()
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
