// Package registrar decides, once at startup, which procedures the adapter
// exposes. The decision is a deterministic function of the policy flags:
//
//	exposed = Read ∪ (Write if writes enabled) ∪ (Admin if admin credential)
//	          minus the selection procedure when tethered
//
// Write-gated tools additionally drop themselves when writes are disabled, so
// a tool added without a policy entry still fails safe.
package registrar

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forumhq/discourse-mcp/internal/tools"
)

// ToolsMode selects where procedures come from. Only local procedures are
// registered in either mode; discovery against a remote tool-execution API is
// an external procedure source layered on top.
type ToolsMode string

const (
	ModeLocal    ToolsMode = "local"
	ModeDiscover ToolsMode = "discover"
)

// Policy holds the flags the registration decision runs on, resolved once at
// startup.
type Policy struct {
	// AllowWrites enables the write procedure set.
	AllowWrites bool
	// AdminPresent enables the admin procedure set.
	AdminPresent bool
	// Tethered hides the site-selection procedure: the process was started
	// pointed at a fixed site.
	Tethered bool
	// Mode is the procedure source mode.
	Mode ToolsMode
}

// ToolRegistry is the minimal surface of the MCP server the registrar needs.
// *server.MCPServer satisfies it.
type ToolRegistry interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// Register computes the exposed procedure set and registers it. It is a
// one-shot action: it runs before the server starts serving and the set never
// changes afterwards. Returns the names registered, in registration order.
func Register(reg ToolRegistry, tc *tools.Context, p Policy, logger *slog.Logger) []string {
	var names []string
	for _, def := range tools.Definitions(tc) {
		if def.Write && !p.AllowWrites {
			continue
		}
		if def.Admin && !p.AdminPresent {
			continue
		}
		if def.Selection && p.Tethered {
			continue
		}
		reg.AddTool(def.Tool, def.Handler)
		names = append(names, def.Tool.Name)
	}
	logger.Info("tools registered",
		"count", len(names),
		"writes", p.AllowWrites,
		"admin", p.AdminPresent,
		"tethered", p.Tethered,
		"mode", string(p.Mode),
	)
	return names
}
