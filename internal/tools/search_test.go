package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhq/discourse-mcp/internal/discourse"
)

func TestSearch_PrefixAndProjection(t *testing.T) {
	var searchQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/about"):
			io.WriteString(w, `{"about":{"title":"Example Discourse"}}`)
		case strings.HasPrefix(r.URL.Path, "/search"):
			searchQuery = r.URL.RawQuery
			io.WriteString(w, `{
				"topics":[{"id":7,"title":"Hello world","slug":"hello-world","posts_count":3}],
				"grouped_search_result":{"more_full_page_results":false}
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tc := testContext(t, nil, discourse.AnonymousCredential())
	tc.SearchPrefix = "tag:ai order:latest"

	// Select the site through the selection tool, then search.
	sel := findDef(t, tc, "discourse_select_site")
	res, err := sel.Handler(context.Background(), callReq("discourse_select_site", map[string]any{"url": srv.URL}))
	require.NoError(t, err)
	selected := resultJSON(t, res)
	assert.Equal(t, "Example Discourse", selected["title"])

	search := findDef(t, tc, "discourse_search")
	res, err = search.Handler(context.Background(), callReq("discourse_search", map[string]any{"query": "hello"}))
	require.NoError(t, err)

	assert.Contains(t, searchQuery, "q=tag%3Aai+order%3Alatest+hello")
	assert.Contains(t, searchQuery, "expanded=true")

	body := resultJSON(t, res)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "hello-world", first["slug"])
	assert.Equal(t, "Hello world", first["title"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, false, meta["has_more"])
}

func TestSearch_NoPrefix(t *testing.T) {
	var searchQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searchQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"topics":[]}`)
	}))
	defer srv.Close()

	tc := testContext(t, srv, discourse.AnonymousCredential())
	search := findDef(t, tc, "discourse_search")
	_, err := search.Handler(context.Background(), callReq("discourse_search", map[string]any{"query": "hello"}))
	require.NoError(t, err)

	assert.Contains(t, searchQuery, "q=hello")
}

func TestSearch_NoSiteSelected(t *testing.T) {
	tc := testContext(t, nil, discourse.AnonymousCredential())
	search := findDef(t, tc, "discourse_search")

	res, err := search.Handler(context.Background(), callReq("discourse_search", map[string]any{"query": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	body := resultJSON(t, res)
	assert.Contains(t, body["error"], "no site selected")
}
