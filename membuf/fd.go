package membuf

// ScopedFD owns an OS file descriptor exclusively and closes it exactly
// once. The zero value holds no descriptor.
type ScopedFD struct {
	fd   int
	held bool
}

// NewScopedFD takes ownership of fd.
func NewScopedFD(fd int) *ScopedFD {
	return &ScopedFD{fd: fd, held: fd >= 0}
}

// Get returns the descriptor without releasing ownership, or -1 if
// none is held.
func (s *ScopedFD) Get() int {
	if !s.held {
		return -1
	}

	return s.fd
}

// Valid reports whether a descriptor is held.
func (s *ScopedFD) Valid() bool {
	return s.held
}

// Release gives up ownership and returns the descriptor. The holder
// becomes invalid and a later Close is a no-op.
func (s *ScopedFD) Release() int {
	fd := s.Get()
	s.held = false

	return fd
}

// Reset closes the held descriptor, if any, and takes ownership of fd.
func (s *ScopedFD) Reset(fd int) {
	s.Close() //nolint: errcheck
	s.fd = fd
	s.held = fd >= 0
}

// Close closes the descriptor. Double close is a no-op.
func (s *ScopedFD) Close() error {
	if !s.held {
		return nil
	}

	s.held = false

	return closeFD(s.fd)
}
