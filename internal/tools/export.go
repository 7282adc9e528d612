package tools

import "context"

// Read-only fetchers shared with the resource endpoints.

// Categories returns the projected category list for the selected site.
func Categories(ctx context.Context, tc *Context) (map[string]any, error) {
	return fetchCategories(ctx, tc)
}

// Tags returns the projected tag list for the selected site.
func Tags(ctx context.Context, tc *Context) (map[string]any, error) {
	return fetchTags(ctx, tc)
}

// SiteSummary returns the /about projection for the selected site.
func SiteSummary(ctx context.Context, tc *Context) (map[string]any, error) {
	base, client, err := tc.Sites.EnsureSelected()
	if err != nil {
		return nil, err
	}
	v, err := client.GetCached(ctx, "/about.json", tc.cacheTTL())
	if err != nil {
		return nil, err
	}
	about := sub(asMap(v), "about")
	return map[string]any{
		"site":        base,
		"title":       str(about, "title"),
		"description": str(about, "description"),
		"version":     str(about, "version"),
	}, nil
}
