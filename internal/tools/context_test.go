package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumhq/discourse-mcp/internal/discourse"
)

func TestReserve_RateLimitEnvelope(t *testing.T) {
	tc := &Context{Limiter: discourse.NewRateLimiter(time.Minute)}

	assert.Nil(t, tc.reserve(rateKeyTopic))

	res := tc.reserve(rateKeyTopic)
	require.NotNil(t, res)
	assert.True(t, res.IsError)

	body := resultJSON(t, res)
	assert.Contains(t, body["error"], "rate limited")
	assert.Greater(t, body["retry_after_ms"], float64(0))

	// Other keys are independent.
	assert.Nil(t, tc.reserve(rateKeyUpload))
}

func TestReserve_NoLimiter(t *testing.T) {
	tc := &Context{}
	assert.Nil(t, tc.reserve(rateKeyPost))
}
