package membuf

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a released guarded buffer.
var ErrClosed = errors.New("buffer is closed")

// GuardedBuffer is a scratch buffer of a declared size flanked by
// inaccessible guard pages. Every read and write goes through an
// overflow-safe range check; a direct out-of-bounds access through the
// raw view faults immediately instead of corrupting neighbours.
//
// On platforms without page protection primitives the guard regions
// degrade to a plain allocation and only the range checks remain.
//
// GuardedBuffer is not safe for concurrent access to overlapping byte
// ranges; callers writing to disjoint offsets need no extra locking.
type GuardedBuffer struct {
	alloc *guardedAlloc
	size  int
}

// NewGuardedBuffer maps size data bytes plus the guard regions. It
// fails with an allocation error if the mapping cannot be created.
func NewGuardedBuffer(size int) (*GuardedBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", size)
	}

	alloc, err := newGuardedAlloc(size)
	if err != nil {
		return nil, fmt.Errorf("cannot create guarded allocation: %w", err)
	}

	return &GuardedBuffer{
		alloc: alloc,
		size:  size,
	}, nil
}

// ValidateRange reports whether [offset, offset+length) lies inside the
// declared size. The sum is never computed directly, so it cannot
// overflow.
func (b *GuardedBuffer) ValidateRange(offset, length int) bool {
	if offset < 0 || length < 0 {
		return false
	}

	return offset <= b.size && length <= b.size-offset
}

// ReadAt copies len(dst) bytes starting at offset into dst.
func (b *GuardedBuffer) ReadAt(dst []byte, offset int) error {
	if b.alloc == nil {
		return ErrClosed
	}

	if !b.ValidateRange(offset, len(dst)) {
		return newOverflow("read", offset, len(dst), b.size)
	}

	copy(dst, b.alloc.data[offset:offset+len(dst)])

	return nil
}

// WriteAt copies src into the buffer starting at offset.
func (b *GuardedBuffer) WriteAt(src []byte, offset int) error {
	if b.alloc == nil {
		return ErrClosed
	}

	if !b.ValidateRange(offset, len(src)) {
		return newOverflow("write", offset, len(src), b.size)
	}

	copy(b.alloc.data[offset:offset+len(src)], src)

	return nil
}

// Bytes returns the raw data region. Indexing past it hits a guard
// page on platforms that support them.
func (b *GuardedBuffer) Bytes() []byte {
	if b.alloc == nil {
		return nil
	}

	return b.alloc.data[:b.size]
}

// Size returns the declared size in bytes.
func (b *GuardedBuffer) Size() int {
	return b.size
}

// Close releases the mapping including the guard regions. It is safe
// to call more than once.
func (b *GuardedBuffer) Close() error {
	if b.alloc == nil {
		return nil
	}

	err := b.alloc.release()
	b.alloc = nil

	return err
}
