package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/schema"
)

type uploadFileInput struct {
	Path     string `json:"path" jsonschema:"description=Local file to upload; must be inside an allowed upload directory,required" validate:"required"`
	Filename string `json:"filename,omitempty" jsonschema:"description=Name to upload as; defaults to the file's own name"`
}

func uploadFileTool(tc *Context) (Definition, bool) {
	if !tc.AllowWrites {
		return Definition{}, false
	}
	return Definition{
		Tool: mcp.NewToolWithRawSchema(
			"discourse_upload_file",
			"Upload a local file to the selected site.",
			schema.Generate[uploadFileInput](),
		),
		Write: true,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var in uploadFileInput
			if res := bindInput(req, &in); res != nil {
				return res, nil
			}
			if d := guard.RequireWriteAccess(tc.Sites, tc.AllowWrites); d != nil {
				return denialResult(d), nil
			}

			path, err := filepath.Abs(in.Path)
			if err != nil {
				return errorResult(fmt.Sprintf("resolving path: %s", err), nil), nil
			}
			if !uploadAllowed(tc.AllowedUploadDirs, path) {
				return errorResult("path is outside the allowed upload directories", map[string]any{
					"path": path,
				}), nil
			}

			if res := tc.reserve(rateKeyUpload); res != nil {
				return res, nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return errorResult(fmt.Sprintf("reading file: %s", err), nil), nil
			}

			filename := in.Filename
			if filename == "" {
				filename = filepath.Base(path)
			}

			_, client, err := tc.Sites.EnsureSelected()
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}

			form := discourse.NewMultipartForm().
				AddField("type", "composer").
				AddField("synchronous", "true").
				SetFile("file", filename, data)

			v, err := client.PostMultipart(ctx, "/uploads.json", form)
			if err != nil {
				return upstreamError(tc.logger(), err), nil
			}
			upload := asMap(v)

			return successResult(tc, map[string]any{
				"id":                num(upload, "id"),
				"url":               str(upload, "url"),
				"short_url":         str(upload, "short_url"),
				"original_filename": str(upload, "original_filename"),
			}), nil
		},
	}, true
}

// uploadAllowed matches an absolute path against the configured allow-list.
// Patterns are doublestar globs; a plain directory entry admits everything
// beneath it.
func uploadAllowed(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(filepath.Join(p, "**"), path); err == nil && ok {
			return true
		}
	}
	return false
}
