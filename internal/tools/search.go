package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/schema"
)

type searchInput struct {
	Query      string `json:"query" jsonschema:"description=Search query in Discourse search syntax,required" validate:"required"`
	Page       int    `json:"page,omitempty" jsonschema:"description=Result page starting at 1" validate:"omitempty,min=1"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results to return" validate:"omitempty,min=1,max=100"`
}

func searchTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_search",
			"Search the selected Discourse site for topics.",
			schema.Generate[searchInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in searchInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			q := in.Query
			if tc.SearchPrefix != "" {
				q = tc.SearchPrefix + " " + q
			}
			values := url.Values{}
			values.Set("q", q)
			values.Set("expanded", "true")
			if in.Page > 1 {
				values.Set("page", strconv.Itoa(in.Page))
			}

			v, err := client.Get(ctx, "/search.json?"+values.Encode())
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			body := asMap(v)

			limit := in.MaxResults
			if limit <= 0 {
				limit = 50
			}
			results := make([]map[string]any, 0, limit)
			for _, t := range arr(body, "topics") {
				if len(results) == limit {
					break
				}
				topic := asMap(t)
				results = append(results, map[string]any{
					"id":          num(topic, "id"),
					"title":       str(topic, "title"),
					"slug":        str(topic, "slug"),
					"posts_count": num(topic, "posts_count"),
					"category_id": num(topic, "category_id"),
					"created_at":  str(topic, "created_at"),
				})
			}

			grouped := sub(body, "grouped_search_result")
			return successResult(tc, map[string]any{
				"results": results,
				"meta": map[string]any{
					"total":    len(results),
					"has_more": boolean(grouped, "more_full_page_results"),
				},
			}), nil
		},
	}, true
}
