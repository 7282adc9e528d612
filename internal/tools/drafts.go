package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/schema"
)

type createDraftInput struct {
	DraftKey string `json:"draft_key" jsonschema:"description=Draft key such as new_topic or topic_123,required" validate:"required"`
	Data     string `json:"data" jsonschema:"description=Draft payload as a JSON string,required" validate:"required"`
}

func createDraftTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_create_draft",
			"Create a draft under a draft key.",
			schema.Generate[createDraftInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in createDraftInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyDraft); res != nil {
				return res, nil
			}

			v, err := saveDraft(ctx, tc, in.DraftKey, 0, in.Data)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, v), nil
		},
	}, true
}

type updateDraftInput struct {
	DraftKey string `json:"draft_key" jsonschema:"description=Draft key,required" validate:"required"`
	Sequence int    `json:"sequence" jsonschema:"description=Sequence number from the previous save,required" validate:"min=0"`
	Data     string `json:"data" jsonschema:"description=Draft payload as a JSON string,required" validate:"required"`
}

func updateDraftTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_update_draft",
			"Update a draft; fails on a stale sequence number.",
			schema.Generate[updateDraftInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in updateDraftInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}
			if res := tc.reserve(rateKeyDraft); res != nil {
				return res, nil
			}

			v, err := saveDraft(ctx, tc, in.DraftKey, in.Sequence, in.Data)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, v), nil
		},
	}, true
}

// saveDraft posts a draft save and maps a stale-sequence rejection onto
// ConflictError so callers see expected-vs-actual instead of a bare 409.
func saveDraft(ctx context.Context, tc *Context, key string, sequence int, data string) (map[string]any, error) {
	_, client, err := tc.Sites.EnsureSelected()
	if err != nil {
		return nil, err
	}

	v, err := client.Post(ctx, "/drafts.json", map[string]any{
		"draft_key": key,
		"sequence":  sequence,
		"data":      data,
	})
	if err != nil {
		var se *discourse.StatusError
		if errors.As(err, &se) && se.Status == 409 {
			actual := num(asMap(se.Body), "draft_sequence")
			return nil, &discourse.ConflictError{
				Expected: sequence,
				Actual:   actual,
				Message:  fmt.Sprintf("draft %q was modified elsewhere; re-fetch and retry", key),
			}
		}
		return nil, err
	}

	resp := asMap(v)
	return map[string]any{
		"draft_key": key,
		"sequence":  num(resp, "draft_sequence"),
	}, nil
}

type deleteDraftInput struct {
	DraftKey string `json:"draft_key" jsonschema:"description=Draft key,required" validate:"required"`
	Sequence int    `json:"sequence" jsonschema:"description=Current sequence number,required" validate:"min=0"`
}

func deleteDraftTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_delete_draft",
			"Delete a draft.",
			schema.Generate[deleteDraftInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in deleteDraftInput
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

			path := fmt.Sprintf("/drafts/%s.json?sequence=%d", url.PathEscape(in.DraftKey), in.Sequence)
			if _, err := client.Delete(ctx, path, nil); err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			return successResult(tc, map[string]any{"deleted": true, "draft_key": in.DraftKey}), nil
		},
	}, true
}
