package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/schema"
)

type selectSiteInput struct {
	URL string `json:"url" jsonschema:"description=Base URL of the Discourse site to target,required" validate:"required"`
}

// selectSiteTool probes a site and commits it as the active selection. The
// probe runs on a client built without mutating the selection, so a dead site
// leaves the previous selection intact.
func selectSiteTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_select_site",
			"Select the Discourse site that subsequent tools operate on.",
			schema.Generate[selectSiteInput](),
		),
		Selection: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in selectSiteInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			base, client, err := tc.Sites.BuildClientForSite(in.URL)
			if err != nil {
				return errorResult(err.Error(), nil), nil
			}

			v, err := client.Get(ctx, "/about.json")
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			about := sub(asMap(v), "about")

			tc.Sites.Select(base)
			tc.logger().Info("site selected", "site", base)

			return successResult(tc, map[string]any{
				"site":        base,
				"title":       str(about, "title"),
				"description": str(about, "description"),
			}), nil
		},
	}, true
}
