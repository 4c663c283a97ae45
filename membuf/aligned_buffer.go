package membuf

import "fmt"

// AlignedBuffer owns a fixed-length, alignment-correct allocation of T.
// Indexed access is bounds checked. Release transfers ownership and
// leaves the source empty.
type AlignedBuffer[T any] struct {
	items []T
}

// NewAlignedBuffer allocates count items.
func NewAlignedBuffer[T any](count int) (*AlignedBuffer[T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("item count must be positive, got %d", count)
	}

	return &AlignedBuffer[T]{
		items: make([]T, count),
	}, nil
}

// At returns the item at index i.
func (b *AlignedBuffer[T]) At(i int) (T, error) {
	if i < 0 || i >= len(b.items) {
		var zero T

		return zero, fmt.Errorf("index %d of %d items: %w", i, len(b.items), ErrOutOfRange)
	}

	return b.items[i], nil
}

// Set stores v at index i.
func (b *AlignedBuffer[T]) Set(i int, v T) error {
	if i < 0 || i >= len(b.items) {
		return fmt.Errorf("index %d of %d items: %w", i, len(b.items), ErrOutOfRange)
	}

	b.items[i] = v

	return nil
}

// Len returns the item count.
func (b *AlignedBuffer[T]) Len() int {
	return len(b.items)
}

// Release transfers the underlying storage to the caller, leaving the
// buffer empty.
func (b *AlignedBuffer[T]) Release() []T {
	items := b.items
	b.items = nil

	return items
}
