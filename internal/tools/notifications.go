package tools

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/schema"
)

type listNotificationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum notifications to return" validate:"omitempty,min=1,max=60"`
}

func listNotificationsTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_notifications",
			"List notifications for the authenticated user.",
			schema.Generate[listNotificationsInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in listNotificationsInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			path := "/notifications.json"
			if in.Limit > 0 {
				path += "?limit=" + strconv.Itoa(in.Limit)
			}
			v, err := client.Get(ctx, path)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			notifications := make([]map[string]any, 0)
			for _, n := range arr(asMap(v), "notifications") {
				notif := asMap(n)
				notifications = append(notifications, map[string]any{
					"id":         num(notif, "id"),
					"type":       num(notif, "notification_type"),
					"read":       boolean(notif, "read"),
					"topic_id":   num(notif, "topic_id"),
					"title":      str(notif, "fancy_title"),
					"created_at": str(notif, "created_at"),
				})
			}

			return successResult(tc, map[string]any{
				"notifications": notifications,
				"meta":          map[string]any{"total": len(notifications)},
			}), nil
		},
	}, true
}

type markNotificationsReadInput struct {
	ID int `json:"id,omitempty" jsonschema:"description=Single notification to mark; all when omitted" validate:"omitempty,min=1"`
}

func markNotificationsReadTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_mark_notifications_read",
			"Mark notifications as read.",
			schema.Generate[markNotificationsReadInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in markNotificationsReadInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			var body map[string]any
			if in.ID > 0 {
				body = map[string]any{"id": in.ID}
			}
			if _, err := client.Put(ctx, "/notifications/mark-read", body); err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, map[string]any{"marked_read": true}), nil
		},
	}, true
}
