package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/schema"
)

type listTagsInput struct{}

func listTagsTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_tags",
			"List the tags on the selected site.",
			schema.Generate[listTagsInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			v, err := fetchTags(ctx, tc)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, v), nil
		},
	}, true
}

// fetchTags is shared with the tags resource.
func fetchTags(ctx context.Context, tc *Context) (map[string]any, error) {
	_, client, err := tc.Sites.EnsureSelected()
	if err != nil {
		return nil, err
	}

	v, err := client.GetCached(ctx, "/tags.json", tc.cacheTTL())
	if err != nil {
		return nil, err
	}

	tags := make([]map[string]any, 0)
	for _, t := range arr(asMap(v), "tags") {
		tag := asMap(t)
		name := str(tag, "name")
		if name == "" {
			name = str(tag, "id")
		}
		tags = append(tags, map[string]any{
			"name":  name,
			"count": num(tag, "count"),
		})
	}

	return map[string]any{
		"tags": tags,
		"meta": map[string]any{"total": len(tags)},
	}, nil
}
