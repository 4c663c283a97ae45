package membuf

import "bytes"

// BoundedString is a string with a hard capacity and an explicit
// length. The storage always keeps a NUL terminator inside the
// capacity, so the longest representable value is capacity-1 bytes.
// Assign of an over-long span fails without touching the stored value.
type BoundedString struct {
	data   []byte
	length int
}

// NewBoundedString makes an empty bounded string with the given
// capacity (value bytes + terminator).
func NewBoundedString(capacity int) *BoundedString {
	if capacity <= 0 {
		panic("membuf: bounded string capacity must be positive")
	}

	return &BoundedString{
		data: make([]byte, capacity),
	}
}

// Assign replaces the value with a copy of p.
func (s *BoundedString) Assign(p []byte) error {
	if len(p) >= len(s.data) {
		return newOverflow("assign", 0, len(p), len(s.data))
	}

	copy(s.data, p)
	s.data[len(p)] = 0
	s.length = len(p)

	return nil
}

// AssignString replaces the value with a copy of str.
func (s *BoundedString) AssignString(str string) error {
	return s.Assign([]byte(str))
}

// String returns the stored value.
func (s *BoundedString) String() string {
	return string(s.data[:s.length])
}

// Bytes returns a view of the stored value without the terminator.
func (s *BoundedString) Bytes() []byte {
	return s.data[:s.length]
}

// Len returns the value length in bytes.
func (s *BoundedString) Len() int {
	return s.length
}

// MaxLen returns the longest value this string can hold.
func (s *BoundedString) MaxLen() int {
	return len(s.data) - 1
}

// Empty reports whether the value has zero length.
func (s *BoundedString) Empty() bool {
	return s.length == 0
}

// Clear resets the value to empty.
func (s *BoundedString) Clear() {
	s.length = 0
	s.data[0] = 0
}

// Equal compares length first, then bytes.
func (s *BoundedString) Equal(other *BoundedString) bool {
	return s.length == other.length &&
		bytes.Equal(s.data[:s.length], other.data[:other.length])
}
