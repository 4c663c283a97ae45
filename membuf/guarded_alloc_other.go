//go:build !unix

package membuf

// guardedAlloc fallback for platforms without mmap/mprotect: a plain
// allocation, bounds checks only.
type guardedAlloc struct {
	data []byte
}

func newGuardedAlloc(size int) (*guardedAlloc, error) {
	return &guardedAlloc{
		data: make([]byte, size),
	}, nil
}

func (g *guardedAlloc) release() error {
	g.data = nil

	return nil
}
