package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCacheRecordAndTake(t *testing.T) {
	cache := NewJoinCache()
	joined := time.Now().Add(-10 * time.Second)

	cache.Record(100, 1, joined)

	got, ok := cache.Take(100, 1)
	require.True(t, ok)
	assert.Equal(t, joined, got)

	// Take removes the entry, a second leave has nothing to correlate
	_, ok = cache.Take(100, 1)
	assert.False(t, ok)
}

func TestJoinCacheTakeUnknownUser(t *testing.T) {
	cache := NewJoinCache()
	cache.Record(100, 1, time.Now())

	_, ok := cache.Take(100, 2)
	assert.False(t, ok)

	_, ok = cache.Take(200, 1)
	assert.False(t, ok)
}

func TestJoinCacheRecordOverwrites(t *testing.T) {
	cache := NewJoinCache()
	first := time.Now().Add(-time.Hour)
	second := time.Now()

	cache.Record(100, 1, first)
	cache.Record(100, 1, second)

	got, ok := cache.Take(100, 1)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestJoinCacheSweep(t *testing.T) {
	cache := NewJoinCache()
	cache.Record(100, 1, time.Now().Add(-3*time.Hour))
	cache.Record(100, 2, time.Now().Add(-time.Minute))
	cache.Record(200, 3, time.Now().Add(-25*time.Hour))

	removed := cache.Sweep(2 * time.Hour)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Len())

	// The recent entry survives
	_, ok := cache.Take(100, 2)
	assert.True(t, ok)
}
