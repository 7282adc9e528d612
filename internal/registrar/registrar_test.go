package registrar

import (
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
	"github.com/forumhq/discourse-mcp/internal/tools"
)

type fakeRegistry struct {
	names []string
}

func (f *fakeRegistry) AddTool(tool mcp.Tool, _ server.ToolHandlerFunc) {
	f.names = append(f.names, tool.Name)
}

func toolContext(t *testing.T, cred discourse.Credential, allowWrites bool) *tools.Context {
	t.Helper()
	s, err := site.NewState(cred, nil)
	require.NoError(t, err)
	return &tools.Context{Sites: s, AllowWrites: allowWrites}
}

func register(t *testing.T, tc *tools.Context, p Policy) map[string]bool {
	t.Helper()
	reg := &fakeRegistry{}
	names := Register(reg, tc, p, slog.Default())
	assert.Equal(t, reg.names, names)

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func TestRegister_ReadOnly(t *testing.T) {
	tc := toolContext(t, discourse.AnonymousCredential(), false)
	set := register(t, tc, Policy{Mode: ModeLocal})

	assert.True(t, set["discourse_search"])
	assert.True(t, set["discourse_read_topic"])
	assert.True(t, set["discourse_select_site"])
	assert.False(t, set["discourse_create_topic"])
	assert.False(t, set["discourse_create_user"])
}

func TestRegister_WritesWithUserCredential(t *testing.T) {
	tc := toolContext(t, discourse.UserAPIKeyCredential("k", "client"), true)
	set := register(t, tc, Policy{AllowWrites: true, Mode: ModeLocal})

	assert.True(t, set["discourse_create_topic"])
	assert.True(t, set["discourse_create_draft"])
	assert.False(t, set["discourse_create_user"])
	assert.False(t, set["discourse_list_users"])
}

func TestRegister_WritesWithAdminCredential(t *testing.T) {
	tc := toolContext(t, discourse.APIKeyCredential("k", "system"), true)
	set := register(t, tc, Policy{AllowWrites: true, AdminPresent: true, Mode: ModeLocal})

	assert.True(t, set["discourse_create_topic"])
	assert.True(t, set["discourse_create_user"])
	assert.True(t, set["discourse_list_users"])
}

func TestRegister_TetheredHidesSelection(t *testing.T) {
	tc := toolContext(t, discourse.APIKeyCredential("k", "system"), true)
	set := register(t, tc, Policy{AllowWrites: true, AdminPresent: true, Tethered: true, Mode: ModeLocal})

	assert.False(t, set["discourse_select_site"])
	assert.True(t, set["discourse_search"])
}

// Policy flags and the context flag disagreeing must fail safe: the context
// flag drops write definitions before the policy filter ever sees them.
func TestRegister_FailSafeOnFlagMismatch(t *testing.T) {
	tc := toolContext(t, discourse.APIKeyCredential("k", "system"), false)
	set := register(t, tc, Policy{AllowWrites: true, AdminPresent: true, Mode: ModeLocal})

	assert.False(t, set["discourse_create_topic"])
	assert.False(t, set["discourse_create_user"])
	assert.True(t, set["discourse_search"])
}

func TestRegister_Deterministic(t *testing.T) {
	tc := toolContext(t, discourse.APIKeyCredential("k", "system"), true)
	p := Policy{AllowWrites: true, AdminPresent: true, Mode: ModeLocal}

	first := &fakeRegistry{}
	second := &fakeRegistry{}
	Register(first, tc, p, slog.Default())
	Register(second, tc, p, slog.Default())

	assert.Equal(t, first.names, second.names)
	assert.NotEmpty(t, first.names)
}
