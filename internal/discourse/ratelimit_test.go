package discourse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Reserve(t *testing.T) {
	l := NewRateLimiter(time.Second)
	now := time.Now()
	l.now = func() time.Time { return now }

	_, ok := l.Reserve("post")
	assert.True(t, ok)

	wait, ok := l.Reserve("post")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	// Independent keys do not interfere.
	_, ok = l.Reserve("topic")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = l.Reserve("post")
	assert.True(t, ok)
}

func TestRateLimiter_DeniedReserveKeepsClock(t *testing.T) {
	l := NewRateLimiter(time.Second)
	now := time.Now()
	l.now = func() time.Time { return now }

	_, ok := l.Reserve("post")
	assert.True(t, ok)

	// A denied call must not push the window forward.
	now = now.Add(600 * time.Millisecond)
	_, ok = l.Reserve("post")
	assert.False(t, ok)

	now = now.Add(500 * time.Millisecond)
	_, ok = l.Reserve("post")
	assert.True(t, ok)
}
