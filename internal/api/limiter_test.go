package api

import (
	"testing"
	"time"

	"hotelpos/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 2})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, l.allow("a"), "one token refilled")
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("a"))
	}
	assert.Equal(t, 0, l.size())
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 5})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("a")
	l.allow("b")
	assert.Equal(t, 2, l.size())

	now = now.Add(limiterIdleTTL + time.Minute)
	l.allow("c")
	assert.Equal(t, 1, l.size())
}
