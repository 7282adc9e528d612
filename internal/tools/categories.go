package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/schema"
)

type listCategoriesInput struct{}

func listCategoriesTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_categories",
			"List the categories on the selected site.",
			schema.Generate[listCategoriesInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			v, err := fetchCategories(ctx, tc)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, v), nil
		},
	}, true
}

// fetchCategories is shared with the categories resource; the category list
// changes rarely, so it goes through the response cache.
func fetchCategories(ctx context.Context, tc *Context) (map[string]any, error) {
	_, client, err := tc.Sites.EnsureSelected()
	if err != nil {
		return nil, err
	}

	v, err := client.GetCached(ctx, "/categories.json", tc.cacheTTL())
	if err != nil {
		return nil, err
	}

	categories := make([]map[string]any, 0)
	for _, c := range arr(sub(asMap(v), "category_list"), "categories") {
		cat := asMap(c)
		categories = append(categories, map[string]any{
			"id":          num(cat, "id"),
			"name":        str(cat, "name"),
			"slug":        str(cat, "slug"),
			"description": str(cat, "description_text"),
			"topic_count": num(cat, "topic_count"),
		})
	}

	return map[string]any{
		"categories": categories,
		"meta":       map[string]any{"total": len(categories)},
	}, nil
}
