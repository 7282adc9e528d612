package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
)

func newState(t *testing.T, def discourse.Credential) *site.State {
	t.Helper()
	s, err := site.NewState(def, nil)
	require.NoError(t, err)
	return s
}

func TestRequireWriteAccess_WritesDisabled(t *testing.T) {
	s := newState(t, discourse.APIKeyCredential("k", "u"))
	s.Select("https://example.com")

	d := RequireWriteAccess(s, false)
	require.NotNil(t, d)
	assert.Contains(t, d.Reason, "writes are disabled")
}

func TestRequireWriteAccess_NoSiteSelected(t *testing.T) {
	s := newState(t, discourse.APIKeyCredential("k", "u"))

	d := RequireWriteAccess(s, true)
	require.NotNil(t, d)
	assert.Equal(t, "no site selected", d.Reason)
}

func TestRequireWriteAccess_AnonymousCredential(t *testing.T) {
	s := newState(t, discourse.AnonymousCredential())
	s.Select("https://example.com")

	d := RequireWriteAccess(s, true)
	require.NotNil(t, d)
	assert.Contains(t, d.Reason, "no credential")
}

func TestRequireWriteAccess_Allowed(t *testing.T) {
	for _, cred := range []discourse.Credential{
		discourse.APIKeyCredential("k", "u"),
		discourse.UserAPIKeyCredential("k", "c"),
	} {
		s := newState(t, cred)
		s.Select("https://example.com")
		assert.Nil(t, RequireWriteAccess(s, true))
	}
}

func TestRequireAdminAccess(t *testing.T) {
	s := newState(t, discourse.APIKeyCredential("k", "u"))
	assert.NotNil(t, RequireAdminAccess(s)) // no site yet

	s.Select("https://example.com")
	assert.Nil(t, RequireAdminAccess(s))
}

func TestRequireAdminAccess_UserKeyInsufficient(t *testing.T) {
	s := newState(t, discourse.UserAPIKeyCredential("k", "c"))
	s.Select("https://example.com")

	d := RequireAdminAccess(s)
	require.NotNil(t, d)
	assert.Contains(t, d.Reason, "admin API key")
}
