package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketFor(t *testing.T) {
	window := 24 * time.Hour
	// UTC midnight is a 24h-bucket edge, so in-window offsets stay inside
	// one bucket.
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Claims anywhere inside one window share a bucket, so the unique index
	// arbitrates concurrent first-views.
	assert.Equal(t, bucketFor(base, window), bucketFor(base.Add(time.Hour), window))
	assert.Equal(t, bucketFor(base, window), bucketFor(base.Add(23*time.Hour+59*time.Minute), window))
	// The next window rolls over.
	assert.Equal(t, bucketFor(base, window)+1, bucketFor(base.Add(24*time.Hour), window))
	// Bucketing is UTC regardless of the wall clock's zone.
	shifted := base.In(time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, bucketFor(base, window), bucketFor(shifted, window))

	// Shorter operator windows bucket proportionally.
	assert.Equal(t, bucketFor(base, time.Hour)+1, bucketFor(base.Add(time.Hour), time.Hour))
}

func TestNewDedupGuardDefaultWindow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewDedupGuard(nil, 0).Window())
	assert.Equal(t, 24*time.Hour, NewDedupGuard(nil, -time.Hour).Window())
	assert.Equal(t, 6*time.Hour, NewDedupGuard(nil, 6*time.Hour).Window())
}
