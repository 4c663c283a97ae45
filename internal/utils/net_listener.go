package utils

import (
	"fmt"
	"net"
)

// Listener is a TCP listener whose accepted connections are tuned for
// low latency before anyone reads from them.
type Listener struct {
	net.Listener
}

func (l Listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if err := SetClientSocketOptions(conn); err != nil {
		conn.Close()

		return nil, fmt.Errorf("cannot set TCP options: %w", err)
	}

	return conn, nil
}

// NewListener builds a tuned TCP listener on bindTo.
func NewListener(bindTo string) (net.Listener, error) {
	base, err := net.Listen("tcp", bindTo)
	if err != nil {
		return nil, fmt.Errorf("cannot build a base listener: %w", err)
	}

	return Listener{Listener: base}, nil
}
