package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/schema"
)

type getUserInput struct {
	Username string `json:"username" jsonschema:"description=Username to look up,required" validate:"required"`
}

func getUserTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_get_user",
			"Look up a user's public profile.",
			schema.Generate[getUserInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in getUserInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Get(ctx, "/u/"+url.PathEscape(in.Username)+".json")
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			user := sub(asMap(v), "user")

			return successResult(tc, map[string]any{
				"id":          num(user, "id"),
				"username":    str(user, "username"),
				"name":        str(user, "name"),
				"trust_level": num(user, "trust_level"),
				"admin":       boolean(user, "admin"),
				"moderator":   boolean(user, "moderator"),
			}), nil
		},
	}, true
}

type whoamiInput struct{}

func whoamiTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_whoami",
			"Show the identity the configured credential resolves to.",
			schema.Generate[whoamiInput](),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			base, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			v, err := client.Get(ctx, "/session/current.json")
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			user := sub(asMap(v), "current_user")

			return successResult(tc, map[string]any{
				"site":      base,
				"auth_type": string(tc.Sites.AuthType(base)),
				"id":        num(user, "id"),
				"username":  str(user, "username"),
				"admin":     boolean(user, "admin"),
				"moderator": boolean(user, "moderator"),
			}), nil
		},
	}, true
}

type createUserInput struct {
	Username string `json:"username" jsonschema:"description=Username for the new account,required" validate:"required,min=3"`
	Email    string `json:"email" jsonschema:"description=Email address,required" validate:"required,email"`
	Name     string `json:"name,omitempty" jsonschema:"description=Full name"`
	Password string `json:"password,omitempty" jsonschema:"description=Initial password; generated upstream when omitted"`
}

func createUserTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_create_user",
			"Create a user account (admin credential required).",
			schema.Generate[createUserInput](),
		),
		Write: true,
		Admin: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in createUserInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if d := guard.RequireAdminAccess(tc.Sites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyUser); res != nil {
				return res, nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			body := map[string]any{
				"username": in.Username,
				"email":    in.Email,
				"active":   true,
			}
			if in.Name != "" {
				body["name"] = in.Name
			}
			if in.Password != "" {
				body["password"] = in.Password
			}
			v, err := client.Post(ctx, "/users.json", body)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			resp := asMap(v)

			if !boolean(resp, "success") {
				return errorResult(str(resp, "message"), nil), nil
			}
			return successResult(tc, map[string]any{
				"user_id":  num(resp, "user_id"),
				"username": in.Username,
			}), nil
		},
	}, true
}

type listUsersInput struct {
	Flag string `json:"flag,omitempty" jsonschema:"description=User list to fetch,enum=active,enum=new,enum=staff,enum=suspended" validate:"omitempty,oneof=active new staff suspended"`
	Page int    `json:"page,omitempty" jsonschema:"description=Result page starting at 1" validate:"omitempty,min=1"`
}

func listUsersTool(tc *Context) (Definition, bool) {
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_list_users",
			"List site users (admin credential required).",
			schema.Generate[listUsersInput](),
		),
		Admin: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in listUsersInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireAdminAccess(tc.Sites); d != nil {
				return denialResult(d), nil
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			flag := in.Flag
			if flag == "" {
				flag = "active"
			}
			path := "/admin/users/list/" + flag + ".json"
			if in.Page > 1 {
				path += fmt.Sprintf("?page=%d", in.Page)
			}
			v, err := client.Get(ctx, path)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			users := make([]map[string]any, 0)
			if list, ok := v.([]any); ok {
				for _, u := range list {
					user := asMap(u)
					users = append(users, map[string]any{
						"id":          num(user, "id"),
						"username":    str(user, "username"),
						"email":       str(user, "email"),
						"trust_level": num(user, "trust_level"),
						"admin":       boolean(user, "admin"),
					})
				}
			}

			return successResult(tc, map[string]any{
				"users": users,
				"meta":  map[string]any{"total": len(users), "page": in.Page},
			}), nil
		},
	}, true
}
