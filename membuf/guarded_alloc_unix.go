//go:build unix

package membuf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// guardedAlloc is the page-protection backed variant: one inaccessible
// page before and after the data region.
type guardedAlloc struct {
	raw  []byte
	data []byte
}

func newGuardedAlloc(size int) (*guardedAlloc, error) {
	pageSize := os.Getpagesize()
	dataSize := ((size + pageSize - 1) / pageSize) * pageSize
	total := dataSize + 2*pageSize

	raw, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("cannot mmap %d bytes: %w", total, err)
	}

	if err := unix.Mprotect(raw[:pageSize], unix.PROT_NONE); err != nil {
		unix.Munmap(raw) //nolint: errcheck

		return nil, fmt.Errorf("cannot protect leading guard page: %w", err)
	}

	if err := unix.Mprotect(raw[pageSize+dataSize:], unix.PROT_NONE); err != nil {
		unix.Munmap(raw) //nolint: errcheck

		return nil, fmt.Errorf("cannot protect trailing guard page: %w", err)
	}

	return &guardedAlloc{
		raw:  raw,
		data: raw[pageSize : pageSize+dataSize],
	}, nil
}

func (g *guardedAlloc) release() error {
	if g.raw == nil {
		return nil
	}

	err := unix.Munmap(g.raw)
	g.raw = nil
	g.data = nil

	if err != nil {
		return fmt.Errorf("cannot unmap guarded allocation: %w", err)
	}

	return nil
}
