package antireplay

import (
	"sync"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"
	boom "github.com/tylertreat/BoomFilters"

	"github.com/perimetr/gatekeeper/seclayer"
)

const (
	// DefaultMaxSize is the filter memory in bytes.
	DefaultMaxSize = 1024 * 1024

	// DefaultErrorRate is the accepted false positive rate.
	DefaultErrorRate = 0.01
)

// StableBloomFilter is a seclayer.ReplayCache backed by a Stable Bloom
// Filter with lightweight usage counters.
type StableBloomFilter struct {
	filter boom.StableBloomFilter
	mutex  sync.Mutex

	totalChecks    atomic.Uint64
	replayDetected atomic.Uint64
}

func (s *StableBloomFilter) SeenBefore(digest []byte) bool {
	s.totalChecks.Add(1)

	s.mutex.Lock()
	isDuplicate := s.filter.TestAndAdd(digest)
	s.mutex.Unlock()

	if isDuplicate {
		s.replayDetected.Add(1)
	}

	return isDuplicate
}

// Metrics is a snapshot of the cache counters.
type Metrics struct {
	TotalChecks    uint64
	ReplayDetected uint64
}

// Stats returns current counters.
func (s *StableBloomFilter) Stats() Metrics {
	return Metrics{
		TotalChecks:    s.totalChecks.Load(),
		ReplayDetected: s.replayDetected.Load(),
	}
}

// NewStableBloomFilter returns a replay cache of byteSize bytes with
// the given false positive rate. Zero byteSize and a negative
// errorRate select the defaults.
func NewStableBloomFilter(byteSize uint, errorRate float64) *StableBloomFilter {
	if byteSize == 0 {
		byteSize = DefaultMaxSize
	}

	if errorRate < 0 {
		errorRate = DefaultErrorRate
	}

	sf := boom.NewDefaultStableBloomFilter(byteSize*8, errorRate) //nolint: gomnd
	sf.SetHash(xxhash.New64())

	return &StableBloomFilter{
		filter: *sf,
	}
}

var _ seclayer.ReplayCache = (*StableBloomFilter)(nil)
