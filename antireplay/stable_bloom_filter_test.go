package antireplay_test

import (
	"crypto/rand"
	"testing"

	"github.com/perimetr/gatekeeper/antireplay"
	"github.com/stretchr/testify/assert"
)

func TestSeenBefore(t *testing.T) {
	t.Parallel()

	cache := antireplay.NewStableBloomFilter(0, -1)

	digest := make([]byte, 32)
	rand.Read(digest) //nolint: errcheck

	assert.False(t, cache.SeenBefore(digest))
	assert.True(t, cache.SeenBefore(digest))
	assert.True(t, cache.SeenBefore(digest))

	metrics := cache.Stats()
	assert.EqualValues(t, 3, metrics.TotalChecks)
	assert.EqualValues(t, 2, metrics.ReplayDetected)
}

func TestDistinctDigests(t *testing.T) {
	t.Parallel()

	cache := antireplay.NewStableBloomFilter(0, -1)

	seen := 0

	for i := 0; i < 1000; i++ {
		digest := make([]byte, 32)
		rand.Read(digest) //nolint: errcheck

		if cache.SeenBefore(digest) {
			seen++
		}
	}

	// A handful of false positives is expected, a flood is a bug.
	assert.Less(t, seen, 50)
}
