package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/guard"
	"github.com/forumhq/discourse-mcp/internal/site"
)

// successResult wraps v as the uniform success envelope: a single text block
// holding the JSON rendering. Oversized payloads are truncated and flagged.
func successResult(tc *Context, v any) *mcp.CallToolResult {
	text := marshalEnvelope(v)
	if limit := tc.maxResponseBytes(); len(text) > limit {
		text = marshalEnvelope(map[string]any{
			"truncated": true,
			"content":   text[:limit],
		})
	}
	return mcp.NewToolResultText(text)
}

// errorResult builds the uniform error envelope: isError plus a JSON object
// carrying at least an "error" message.
func errorResult(msg string, details map[string]any) *mcp.CallToolResult {
	payload := map[string]any{"error": msg}
	for k, v := range details {
		payload[k] = v
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(marshalEnvelope(payload))},
		IsError: true,
	}
}

func denialResult(d *guard.Denial) *mcp.CallToolResult {
	return errorResult(d.Reason, nil)
}

// upstreamError converts a transport failure into the error envelope,
// surfacing the taxonomy kind the caller can act on. Unexpected conditions
// are logged before being reduced to a generic message.
func upstreamError(logger *slog.Logger, err error) *mcp.CallToolResult {
	var se *discourse.StatusError
	if errors.As(err, &se) {
		return errorResult(se.Message, map[string]any{
			"status": se.Status,
			"body":   se.Body,
		})
	}
	var ce *discourse.ConflictError
	if errors.As(err, &ce) {
		return errorResult(ce.Message, map[string]any{
			"conflict":          true,
			"expected_sequence": ce.Expected,
			"actual_sequence":   ce.Actual,
		})
	}
	var te *discourse.TimeoutError
	if errors.As(err, &te) {
		return errorResult(fmt.Sprintf("request timed out after %s", te.Duration), nil)
	}
	var ne *discourse.NetworkError
	if errors.As(err, &ne) {
		return errorResult("could not reach the site", map[string]any{"cause": ne.Cause.Error()})
	}
	if errors.Is(err, site.ErrNoSiteSelected) {
		return errorResult("no site selected; call discourse_select_site first", nil)
	}
	logger.Error("unexpected tool failure", "cause", err)
	return errorResult("internal error", nil)
}

func marshalEnvelope(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Envelope payloads are built from maps and decoded JSON; this is
		// unreachable short of a programming error.
		return fmt.Sprintf(`{"error":"encoding response: %s"}`, err)
	}
	return string(data)
}
