package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	rules := DefaultRules(60, 30)

	r := Match("POST", "/questions/12/regenerate", rules)
	require.NotNil(t, r)
	assert.Equal(t, time.Hour, r.Window)

	r = Match("POST", "/sync", rules)
	require.NotNil(t, r)
	assert.Equal(t, 30, r.Limit)

	assert.Nil(t, Match("GET", "/questions/12/regenerations", rules))
	assert.Nil(t, Match("GET", "/health", rules))
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{Enabled: true, Rules: []Rule{{Method: "POST", Path: "/sync", Limit: 2, Window: time.Minute}}})
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("svc-a", "POST", "/sync").Allowed)
	assert.True(t, l.Allow("svc-a", "POST", "/sync").Allowed)

	denied := l.Allow("svc-a", "POST", "/sync")
	assert.False(t, denied.Allowed)
	assert.InDelta(t, float64(30*time.Second), float64(denied.RetryAfter), float64(time.Millisecond))

	// other clients have their own bucket
	assert.True(t, l.Allow("svc-b", "POST", "/sync").Allowed)

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("svc-a", "POST", "/sync").Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(Config{Enabled: false, Rules: DefaultRules(1, 1)})
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("svc", "POST", "/sync").Allowed)
	}
}

func TestLimiter_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{Enabled: true, Rules: DefaultRules(10, 10)})
	l.now = func() time.Time { return now }

	l.Allow("svc-a", "POST", "/sync")
	now = now.Add(2 * time.Hour)
	l.Allow("svc-b", "POST", "/sync")

	assert.Len(t, l.buckets, 1)
}
