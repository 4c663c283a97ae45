package membuf

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow is a base error for every bounds violation reported
// by this package. Use errors.Is against this value.
var ErrBufferOverflow = errors.New("buffer overflow")

// ErrOutOfRange is returned on indexed access past the end of an owned
// allocation.
var ErrOutOfRange = errors.New("index out of range")

// OverflowError describes a rejected read/write/append with the exact
// bounds that were violated.
type OverflowError struct {
	Op     string
	Offset int
	Length int
	Size   int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s of %d bytes at offset %d exceeds size %d: %v",
		e.Op, e.Length, e.Offset, e.Size, ErrBufferOverflow)
}

func (e *OverflowError) Unwrap() error {
	return ErrBufferOverflow
}

func newOverflow(op string, offset, length, size int) error {
	return &OverflowError{
		Op:     op,
		Offset: offset,
		Length: length,
		Size:   size,
	}
}
