package membuf

// FixedBuffer is a byte buffer with a hard capacity. Write replaces the
// contents, Append grows the tail. An operation that would exceed the
// capacity fails atomically: the buffer keeps its previous contents and
// length.
type FixedBuffer struct {
	data []byte
	used int
}

// NewFixedBuffer makes a buffer with the given capacity. A
// non-positive capacity is a programming error.
func NewFixedBuffer(capacity int) *FixedBuffer {
	if capacity <= 0 {
		panic("membuf: fixed buffer capacity must be positive")
	}

	return &FixedBuffer{
		data: make([]byte, capacity),
	}
}

// Write replaces the buffer contents with p.
func (b *FixedBuffer) Write(p []byte) error {
	if len(p) > len(b.data) {
		return newOverflow("write", 0, len(p), len(b.data))
	}

	copy(b.data, p)
	b.used = len(p)

	return nil
}

// Append adds p after the current contents.
func (b *FixedBuffer) Append(p []byte) error {
	if len(p) > len(b.data)-b.used {
		return newOverflow("append", b.used, len(p), len(b.data))
	}

	copy(b.data[b.used:], p)
	b.used += len(p)

	return nil
}

// Read copies the first len(dst) used bytes into dst. Asking for more
// than is used fails without a partial copy.
func (b *FixedBuffer) Read(dst []byte) error {
	if len(dst) > b.used {
		return newOverflow("read", 0, len(dst), b.used)
	}

	copy(dst, b.data[:len(dst)])

	return nil
}

// Bytes returns a view of the used region. The view is invalidated by
// the next Write/Append/Reset.
func (b *FixedBuffer) Bytes() []byte {
	return b.data[:b.used]
}

// Len returns the number of used bytes.
func (b *FixedBuffer) Len() int {
	return b.used
}

// Cap returns the buffer capacity.
func (b *FixedBuffer) Cap() int {
	return len(b.data)
}

// Reset discards the contents, keeping the allocation.
func (b *FixedBuffer) Reset() {
	b.used = 0
}
