// Package resources exposes read-only, URI-addressable views of the selected
// site. Resources share the tools' transport and envelope conventions; they
// differ only in being keyed by a stable URI instead of a procedure name.
package resources

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forumhq/discourse-mcp/internal/tools"
)

// ResourceRegistry is the minimal surface of the MCP server needed here.
type ResourceRegistry interface {
	AddResource(resource mcp.Resource, handler server.ResourceHandlerFunc)
}

// Register adds the read-only resources. Like tool registration it is a
// one-shot startup action.
func Register(reg ResourceRegistry, tc *tools.Context) {
	reg.AddResource(
		mcp.NewResource("discourse://site", "Selected site",
			mcp.WithResourceDescription("Summary of the currently selected Discourse site"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			v, err := tools.SiteSummary(ctx, tc)
			return jsonContents(req.Params.URI, v, err)
		},
	)

	reg.AddResource(
		mcp.NewResource("discourse://categories", "Categories",
			mcp.WithResourceDescription("Category list of the selected site"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			v, err := tools.Categories(ctx, tc)
			return jsonContents(req.Params.URI, v, err)
		},
	)

	reg.AddResource(
		mcp.NewResource("discourse://tags", "Tags",
			mcp.WithResourceDescription("Tag list of the selected site"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			v, err := tools.Tags(ctx, tc)
			return jsonContents(req.Params.URI, v, err)
		},
	)
}

// jsonContents renders the resource envelope. Failures surface as the same
// {error: ...} object a tool would return, never as a raw transport error.
func jsonContents(uri string, v any, err error) ([]mcp.ResourceContents, error) {
	if err != nil {
		v = map[string]any{"error": err.Error()}
	}
	data, merr := json.Marshal(v)
	if merr != nil {
		return nil, merr
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
