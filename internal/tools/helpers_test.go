package tools

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
)

// testContext builds a Context whose site state resolves every site to cred,
// pre-selected against the given test server.
func testContext(t *testing.T, srv *httptest.Server, cred discourse.Credential) *Context {
	t.Helper()
	s, err := site.NewState(cred, nil, site.WithClientOptions(
		discourse.WithTimeout(5*time.Second),
		discourse.WithBackoffBase(time.Millisecond),
	))
	require.NoError(t, err)
	if srv != nil {
		s.Select(srv.URL)
	}
	return &Context{
		Sites:       s,
		AllowWrites: true,
		Limiter:     discourse.NewRateLimiter(0),
	}
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the envelope text of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &m))
	return m
}

func findDef(t *testing.T, tc *Context, name string) Definition {
	t.Helper()
	for _, d := range Definitions(tc) {
		if d.Tool.Name == name {
			return d
		}
	}
	t.Fatalf("tool %s not defined", name)
	return Definition{}
}
