package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/schema"
)

type readTopicInput struct {
	TopicID   int `json:"topic_id" jsonschema:"description=Numeric topic id,required" validate:"required,min=1"`
	PostLimit int `json:"post_limit,omitempty" jsonschema:"description=Maximum number of posts to include" validate:"omitempty,min=1,max=100"`
}

func readTopicTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_read_topic",
			"Read a topic and its post stream.",
			schema.Generate[readTopicInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in readTopicInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Get(ctx, fmt.Sprintf("/t/%d.json", in.TopicID))
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			topic := asMap(v)

			limit := in.PostLimit
			if limit <= 0 {
				limit = 20
			}
			posts := make([]map[string]any, 0, limit)
			for _, p := range arr(sub(topic, "post_stream"), "posts") {
				if len(posts) == limit {
					break
				}
				post := asMap(p)
				posts = append(posts, map[string]any{
					"id":          num(post, "id"),
					"post_number": num(post, "post_number"),
					"username":    str(post, "username"),
					"cooked":      str(post, "cooked"),
					"created_at":  str(post, "created_at"),
				})
			}

			return successResult(tc, map[string]any{
				"id":          num(topic, "id"),
				"title":       str(topic, "title"),
				"slug":        str(topic, "slug"),
				"category_id": num(topic, "category_id"),
				"tags":        arr(topic, "tags"),
				"posts":       posts,
				"meta": map[string]any{
					"total":    num(topic, "posts_count"),
					"has_more": num(topic, "posts_count") > len(posts),
				},
			}), nil
		},
	}, true
}

type listLatestInput struct {
	Page int `json:"page,omitempty" jsonschema:"description=Result page starting at 0" validate:"omitempty,min=0"`
}

func listLatestTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_latest",
			"List the latest topics on the selected site.",
			schema.Generate[listLatestInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in listLatestInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			path := "/latest.json"
			if in.Page > 0 {
				path += "?page=" + strconv.Itoa(in.Page)
			}
			v, err := client.Get(ctx, path)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			list := sub(asMap(v), "topic_list")

			topics := make([]map[string]any, 0)
			for _, t := range arr(list, "topics") {
				topic := asMap(t)
				topics = append(topics, map[string]any{
					"id":          num(topic, "id"),
					"title":       str(topic, "title"),
					"slug":        str(topic, "slug"),
					"posts_count": num(topic, "posts_count"),
					"created_at":  str(topic, "created_at"),
				})
			}

			return successResult(tc, map[string]any{
				"topics": topics,
				"meta": map[string]any{
					"page":     in.Page,
					"has_more": str(list, "more_topics_url") != "",
				},
			}), nil
		},
	}, true
}

type createTopicInput struct {
	Title      string   `json:"title" jsonschema:"description=Topic title,required" validate:"required,min=3"`
	Raw        string   `json:"raw" jsonschema:"description=Topic body in Markdown,required" validate:"required"`
	CategoryID int      `json:"category_id,omitempty" jsonschema:"description=Category to post into" validate:"omitempty,min=1"`
	Tags       []string `json:"tags,omitempty" jsonschema:"description=Tags to apply"`
}

func createTopicTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_create_topic",
			"Create a new topic on the selected site.",
			schema.Generate[createTopicInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in createTopicInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyTopic); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			body := map[string]any{"title": in.Title, "raw": in.Raw}
			if in.CategoryID > 0 {
				body["category"] = in.CategoryID
			}
			if len(in.Tags) > 0 {
				body["tags"] = in.Tags
			}
			v, err := client.Post(ctx, "/posts.json", body)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			post := asMap(v)

			return successResult(tc, map[string]any{
				"topic_id":   num(post, "topic_id"),
				"topic_slug": str(post, "topic_slug"),
				"post_id":    num(post, "id"),
			}), nil
		},
	}, true
}

type replyInput struct {
	TopicID int    `json:"topic_id" jsonschema:"description=Topic to reply to,required" validate:"required,min=1"`
	Raw     string `json:"raw" jsonschema:"description=Reply body in Markdown,required" validate:"required"`
}

func replyToTopicTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_reply_to_topic",
			"Post a reply to an existing topic.",
			schema.Generate[replyInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in replyInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyPost); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Post(ctx, "/posts.json", map[string]any{
				"topic_id": in.TopicID,
				"raw":      in.Raw,
			})
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			post := asMap(v)

			return successResult(tc, map[string]any{
				"post_id":     num(post, "id"),
				"post_number": num(post, "post_number"),
				"topic_id":    num(post, "topic_id"),
			}), nil
		},
	}, true
}

type createMessageInput struct {
	Recipients []string `json:"recipients" jsonschema:"description=Usernames to message,required" validate:"required,min=1,dive,required"`
	Title      string   `json:"title" jsonschema:"description=Message title,required" validate:"required,min=3"`
	Raw        string   `json:"raw" jsonschema:"description=Message body in Markdown,required" validate:"required"`
}

func createMessageTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_create_message",
			"Send a private message to one or more users.",
			schema.Generate[createMessageInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in createMessageInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyMessage); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Post(ctx, "/posts.json", map[string]any{
				"title":             in.Title,
				"raw":               in.Raw,
				"archetype":         "private_message",
				"target_recipients": strings.Join(in.Recipients, ","),
			})
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			post := asMap(v)

			return successResult(tc, map[string]any{
				"post_id":  num(post, "id"),
				"topic_id": num(post, "topic_id"),
			}), nil
		},
	}, true
}
