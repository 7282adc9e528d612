// Package guard holds the call-time authorization checks that mutating and
// admin-scoped procedures run before touching the transport. Registration
// already gates which procedures exist; the guard closes the gap between
// "registered" and "currently safe to execute" (e.g. the site was reselected
// after startup).
package guard

import (
	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
)

// Denial is a structured refusal. It is returned as a value, not an error,
// so call sites can hand it straight back as the procedure's error result.
type Denial struct {
	Reason string
}

// RequireWriteAccess verifies that a mutating call is currently authorized:
// writes enabled globally, a site selected, and a non-anonymous credential
// resolved for it. Returns nil when the call may proceed.
func RequireWriteAccess(sites *site.State, allowWrites bool) *Denial {
	if !allowWrites {
		return &Denial{Reason: "writes are disabled; restart with write access to use this tool"}
	}
	base := sites.SelectedBase()
	if base == "" {
		return &Denial{Reason: "no site selected"}
	}
	if sites.AuthType(base) == discourse.AuthNone {
		return &Denial{Reason: "the selected site has no credential configured; writes require authentication"}
	}
	return nil
}

// RequireAdminAccess verifies that the selected site's credential is the
// admin-style key variant specifically. A user-scoped credential is not
// sufficient.
func RequireAdminAccess(sites *site.State) *Denial {
	base := sites.SelectedBase()
	if base == "" {
		return &Denial{Reason: "no site selected"}
	}
	if sites.AuthType(base) != discourse.AuthAPIKey {
		return &Denial{Reason: "this tool requires an admin API key for the selected site"}
	}
	return nil
}
