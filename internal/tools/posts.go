package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/schema"
)

type readPostInput struct {
	PostID int `json:"post_id" jsonschema:"description=Numeric post id,required" validate:"required,min=1"`
}

func readPostTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_read_post",
			"Read a single post by id.",
			schema.Generate[readPostInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in readPostInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Get(ctx, fmt.Sprintf("/posts/%d.json", in.PostID))
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			post := asMap(v)

			return successResult(tc, map[string]any{
				"id":          num(post, "id"),
				"topic_id":    num(post, "topic_id"),
				"post_number": num(post, "post_number"),
				"username":    str(post, "username"),
				"cooked":      str(post, "cooked"),
				"created_at":  str(post, "created_at"),
			}), nil
		},
	}, true
}

type listUserPostsInput struct {
	Username string `json:"username" jsonschema:"description=User whose recent posts to list,required" validate:"required"`
	Offset   int    `json:"offset,omitempty" jsonschema:"description=Pagination offset" validate:"omitempty,min=0"`
}

func listUserPostsTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_user_posts",
			"List a user's recent posts.",
			schema.Generate[listUserPostsInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in listUserPostsInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			values := url.Values{}
			values.Set("username", in.Username)
			values.Set("filter", "4,5") // replies and topics
			if in.Offset > 0 {
				values.Set("offset", fmt.Sprint(in.Offset))
			}
			v, err := client.Get(ctx, "/user_actions.json?"+values.Encode())
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			posts := make([]map[string]any, 0)
			for _, a := range arr(asMap(v), "user_actions") {
				action := asMap(a)
				posts = append(posts, map[string]any{
					"topic_id":    num(action, "topic_id"),
					"post_number": num(action, "post_number"),
					"title":       str(action, "title"),
					"excerpt":     str(action, "excerpt"),
					"created_at":  str(action, "created_at"),
				})
			}

			return successResult(tc, map[string]any{
				"posts": posts,
				"meta":  map[string]any{"total": len(posts)},
			}), nil
		},
	}, true
}
