// Package tools implements the Discourse procedures exposed over MCP. Each
// tool is a thin request/response mapping over the transport core; the shared
// Context carries everything a handler needs.
package tools

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
)

const (
	defaultMaxResponseBytes = 50_000
	defaultCacheTTL         = 30 * time.Second
)

// Rate-limit keys. A key is shared by every procedure that performs the same
// kind of operation, independent of which tool it is.
const (
	rateKeyTopic   = "topic"
	rateKeyPost    = "post"
	rateKeyMessage = "message"
	rateKeyDraft   = "draft"
	rateKeyUpload  = "upload"
	rateKeyUser    = "user"
)

// Context is the shared state handed to every tool at registration.
type Context struct {
	Sites   *site.State
	Logger  *slog.Logger
	Limiter *discourse.RateLimiter

	AllowWrites       bool
	SearchPrefix      string
	MaxResponseBytes  int
	CacheTTL          time.Duration
	AllowedUploadDirs []string
}

func (tc *Context) logger() *slog.Logger {
	if tc.Logger != nil {
		return tc.Logger
	}
	return slog.Default()
}

func (tc *Context) maxResponseBytes() int {
	if tc.MaxResponseBytes > 0 {
		return tc.MaxResponseBytes
	}
	return defaultMaxResponseBytes
}

func (tc *Context) cacheTTL() time.Duration {
	if tc.CacheTTL > 0 {
		return tc.CacheTTL
	}
	return defaultCacheTTL
}

// reserve admits an operation under a rate-limit key, or returns the error
// result to hand back. The limiter tracks start times only; it never sleeps.
func (tc *Context) reserve(key string) *mcp.CallToolResult {
	if tc.Limiter == nil {
		return nil
	}
	wait, ok := tc.Limiter.Reserve(key)
	if !ok {
		return errorResult(fmt.Sprintf("rate limited: another %s operation ran recently", key), map[string]any{
			"retry_after_ms": wait.Milliseconds(),
		})
	}
	return nil
}

// Definition couples a tool declaration with its handler and the policy
// attributes the registrar's set algebra runs on.
type Definition struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc

	// Write marks procedures that mutate the remote site.
	Write bool
	// Admin marks procedures requiring the admin-style credential.
	Admin bool
	// Selection marks the site-selection procedure, hidden when tethered.
	Selection bool
}

// Definitions returns every procedure this process can expose. Write-gated
// tools re-check the write flag themselves and drop out of the returned set
// when writes are disabled, independent of the registrar's own filtering.
func Definitions(tc *Context) []Definition {
	builders := []func(*Context) (Definition, bool){
		selectSiteTool,
		searchTool,
		readTopicTool,
		readPostTool,
		listCategoriesTool,
		listTagsTool,
		listLatestTool,
		getUserTool,
		listUserPostsTool,
		whoamiTool,
		listNotificationsTool,
		createTopicTool,
		replyToTopicTool,
		createMessageTool,
		createDraftTool,
		updateDraftTool,
		deleteDraftTool,
		uploadFileTool,
		markNotificationsReadTool,
		createUserTool,
		listUsersTool,
	}

	defs := make([]Definition, 0, len(builders))
	for _, build := range builders {
		if d, ok := build(tc); ok {
			defs = append(defs, d)
		}
	}
	return defs
}
