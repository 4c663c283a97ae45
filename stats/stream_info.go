package stats

import (
	"sync"
	"time"

	statsd "github.com/smira/go-statsd"
)

type streamInfo struct {
	tags      map[string]string
	startTime time.Time
}

func (s streamInfo) T(key string) statsd.Tag {
	return statsd.StringTag(key, s.tags[key])
}

func (s *streamInfo) Reset() {
	s.startTime = time.Time{}

	for k := range s.tags {
		delete(s.tags, k)
	}
}

var streamInfoPool = sync.Pool{
	New: func() interface{} {
		return &streamInfo{
			tags: map[string]string{},
		}
	},
}

func acquireStreamInfo() *streamInfo {
	return streamInfoPool.Get().(*streamInfo) //nolint: forcetypeassert
}

func releaseStreamInfo(info *streamInfo) {
	info.Reset()
	streamInfoPool.Put(info)
}
